package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edmundobop/plataforma-bravo/internal/application/usecase"
	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

type sentMail struct {
	from, to, subject, body string
}

type fakeEmailClient struct {
	sent   []sentMail
	failTo map[string]error
}

func (c *fakeEmailClient) Send(_ context.Context, from, to, subject, body string) error {
	if err := c.failTo[to]; err != nil {
		return err
	}
	c.sent = append(c.sent, sentMail{from, to, subject, body})
	return nil
}

func TestSetupReportMailer_NotifySetup(t *testing.T) {
	client := &fakeEmailClient{}
	m := NewSetupReportMailer(client, " ops@bravo.test ", "a@bravo.test, ,b@bravo.test")

	res := usecase.SetupResult{
		RunID:      "run-9",
		Activation: usecase.ActivationResult{Total: 3, Activated: 2, AlreadyActive: 1},
		Insert:     usecase.InsertResult{Added: 2},
		Active:     []fudom.FireUnit{{Code: "1º GBM", Name: "1º Grupamento"}},
	}
	require.NoError(t, m.NotifySetup(context.Background(), res))

	require.Len(t, client.sent, 2)
	assert.Equal(t, "ops@bravo.test", client.sent[0].from)
	assert.Equal(t, "b@bravo.test", client.sent[1].to)
	assert.Contains(t, client.sent[0].subject, ": OK")
	assert.Contains(t, client.sent[0].body, "Execução: run-9")
	assert.Contains(t, client.sent[0].body, "Ativadas: 2")
	assert.Contains(t, client.sent[0].body, "  - 1º GBM - 1º Grupamento")
}

func TestSetupReportMailer_Failures(t *testing.T) {
	client := &fakeEmailClient{failTo: map[string]error{"b@bravo.test": errors.New("rejected")}}
	m := NewSetupReportMailer(client, "ops@bravo.test", "a@bravo.test,b@bravo.test")

	res := usecase.SetupResult{
		DryRun:        true,
		InsertSkipped: true,
		Activation: usecase.ActivationResult{
			Failures: []usecase.ItemFailure{{Code: "2º GBM", Err: errors.New("timeout")}},
		},
	}
	err := m.NotifySetup(context.Background(), res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b@bravo.test: rejected")

	require.Len(t, client.sent, 1)
	assert.Contains(t, client.sent[0].subject, "[dry-run]")
	assert.Contains(t, client.sent[0].subject, "1 falha(s)")
	assert.Contains(t, client.sent[0].body, "Ignorada")
	assert.Contains(t, client.sent[0].body, "ativação 2º GBM: timeout")
}

func TestSetupReportMailer_NoRecipients(t *testing.T) {
	m := NewSetupReportMailer(&fakeEmailClient{}, "ops@bravo.test", " ")
	assert.Error(t, m.NotifySetup(context.Background(), usecase.SetupResult{}))
}

func TestSendGridClient_Send(t *testing.T) {
	ctx := context.Background()

	assert.ErrorContains(t, NewSendGridClient("", nil).Send(ctx, "f@x", "t@x", "s", "b"), "api key is empty")
	assert.ErrorContains(t, NewSendGridClient("k", nil).Send(ctx, "", "t@x", "s", "b"), "from address is empty")
	assert.ErrorContains(t, NewSendGridClient("k", nil).Send(ctx, "f@x", "", "s", "b"), "to address is empty")

	var got *mail.SGMailV3
	c := NewSendGridClient("k", nil)
	c.send = func(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
		got = m
		return &rest.Response{StatusCode: 202}, nil
	}
	require.NoError(t, c.Send(ctx, "f@x", "t@x", "assunto", "corpo"))
	require.NotNil(t, got)
	assert.Equal(t, "assunto", got.Subject)
	assert.Equal(t, "f@x", got.From.Address)

	// DB 由来の文字列は HTML 側でエスケープされ、テキスト側はそのまま
	require.NoError(t, c.Send(ctx, "f@x", "t@x", "assunto", `  - 9º GBM - <script>alert("x")</script> & Cia`))
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Contains(t, got.Content[0].Value, "<script>")
	assert.Equal(t, "text/html", got.Content[1].Type)
	assert.Equal(t,
		"<pre>  - 9º GBM - &lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; Cia</pre>",
		got.Content[1].Value,
	)

	c.send = func(context.Context, *mail.SGMailV3) (*rest.Response, error) {
		return &rest.Response{StatusCode: 401, Body: "unauthorized"}, nil
	}
	assert.ErrorContains(t, c.Send(ctx, "f@x", "t@x", "s", "b"), "status=401")

	c.send = func(context.Context, *mail.SGMailV3) (*rest.Response, error) {
		return nil, errors.New("dial")
	}
	assert.ErrorContains(t, c.Send(ctx, "f@x", "t@x", "s", "b"), "sendgrid send error")
}
