// internal/adapters/out/mail/setup_report_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/edmundobop/plataforma-bravo/internal/application/usecase"
)

// EmailClient は実際のメール送信クライアント（SendGrid など）を抽象化したインターフェースです。
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SetupReportMailer は usecase.SetupNotifier の実装で、
// Setup 結果の要約をプレーンテキストで送信します。
type SetupReportMailer struct {
	client      EmailClient
	fromAddress string
	recipients  []string
}

// NewSetupReportMailer は to をカンマ区切りで受け取り、空要素は捨てます。
func NewSetupReportMailer(client EmailClient, fromAddress, to string) *SetupReportMailer {
	var recipients []string
	for _, r := range strings.Split(to, ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return &SetupReportMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		recipients:  recipients,
	}
}

func (m *SetupReportMailer) NotifySetup(ctx context.Context, res usecase.SetupResult) error {
	if len(m.recipients) == 0 {
		return fmt.Errorf("mail: no recipients configured")
	}

	subject := buildSubject(res)
	body := BuildSetupSummary(res)

	var failed []string
	for _, to := range m.recipients {
		if err := m.client.Send(ctx, m.fromAddress, to, subject, body); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", to, err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("mail: send failed for %d recipient(s): %s", len(failed), strings.Join(failed, "; "))
	}
	return nil
}

func buildSubject(res usecase.SetupResult) string {
	status := "OK"
	if res.FailureCount() > 0 {
		status = fmt.Sprintf("%d falha(s)", res.FailureCount())
	}
	prefix := ""
	if res.DryRun {
		prefix = "[dry-run] "
	}
	return fmt.Sprintf("%s[Plataforma Bravo] Configuração de unidades: %s", prefix, status)
}

// BuildSetupSummary は Setup 結果のプレーンテキスト要約を組み立てます。
func BuildSetupSummary(res usecase.SetupResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Execução: %s\n", res.RunID)
	if !res.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Início: %s\n", res.StartedAt.Format("02.01.2006 15:04:05"))
	}
	if res.DryRun {
		b.WriteString("Modo: dry-run (nenhuma alteração gravada)\n")
	}

	b.WriteString("\nAtivação\n")
	fmt.Fprintf(&b, "  Unidades encontradas: %d\n", res.Activation.Total)
	fmt.Fprintf(&b, "  Ativadas: %d\n", res.Activation.Activated)
	fmt.Fprintf(&b, "  Já ativas: %d\n", res.Activation.AlreadyActive)

	b.WriteString("\nInserção\n")
	if res.InsertSkipped {
		b.WriteString("  Ignorada (quantidade mínima já atingida)\n")
	} else {
		fmt.Fprintf(&b, "  Adicionadas: %d\n", res.Insert.Added)
		fmt.Fprintf(&b, "  Já existentes: %d\n", res.Insert.Existing)
	}

	if n := res.FailureCount(); n > 0 {
		fmt.Fprintf(&b, "\nFalhas (%d)\n", n)
		for _, f := range res.Activation.Failures {
			fmt.Fprintf(&b, "  - ativação %s\n", f.Error())
		}
		for _, f := range res.Insert.Failures {
			fmt.Fprintf(&b, "  - inserção %s\n", f.Error())
		}
	}

	fmt.Fprintf(&b, "\nUnidades ativas (%d)\n", len(res.Active))
	for _, u := range res.Active {
		fmt.Fprintf(&b, "  - %s\n", u.Label())
	}

	return b.String()
}
