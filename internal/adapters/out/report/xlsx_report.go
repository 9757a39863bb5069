// internal/adapters/out/report/xlsx_report.go
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/edmundobop/plataforma-bravo/internal/application/usecase"
	"github.com/edmundobop/plataforma-bravo/internal/infra/seedfile"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetActive   = "Unidades ativas"
	sheetSummary  = "Resumo"
	sheetFailures = "Falhas"

	dateTimeFmt = "02.01.2006 15:04"
)

var ErrNoObjectWriter = errors.New("report: gs:// destination requires an object writer")

// ObjectWriter は gs://bucket/object への書き込みポートです（GCS adapter が実装）。
type ObjectWriter interface {
	Write(ctx context.Context, bucket, object, contentType string, data []byte) error
}

var activeHeaders = []string{
	"Código", "Nome", "Cidade", "UF", "Telefone", "E-mail", "Comandante", "Posto", "Criado em", "Atualizado em",
}

// XLSXReporter は Setup 結果（有効な部隊一覧・集計・失敗）を xlsx に書き出します。
type XLSXReporter struct {
	dest   string
	writer ObjectWriter
	logger *zap.Logger
}

// NewXLSXReporter は dest（ローカルパス or gs://bucket/object）に出力する Reporter を作ります。
func NewXLSXReporter(dest string, writer ObjectWriter, logger *zap.Logger) *XLSXReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &XLSXReporter{dest: strings.TrimSpace(dest), writer: writer, logger: logger}
}

func (r *XLSXReporter) Report(ctx context.Context, res usecase.SetupResult) error {
	if r.dest == "" {
		return errors.New("report: destination is empty")
	}

	f, err := Build(res)
	if err != nil {
		return err
	}
	defer f.Close()

	if bucket, object, ok := seedfile.SplitGCSURI(r.dest); ok {
		if r.writer == nil {
			return ErrNoObjectWriter
		}
		buf, err := f.WriteToBuffer()
		if err != nil {
			return fmt.Errorf("report: encode xlsx: %w", err)
		}
		if err := r.writer.Write(ctx, bucket, object, xlsxContentType, buf.Bytes()); err != nil {
			return err
		}
	} else if strings.HasPrefix(r.dest, "gs://") {
		return fmt.Errorf("report: invalid destination %q", r.dest)
	} else {
		if dir := filepath.Dir(r.dest); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("report: mkdir %s: %w", dir, err)
			}
		}
		if err := f.SaveAs(r.dest); err != nil {
			return fmt.Errorf("report: save %s: %w", r.dest, err)
		}
	}

	r.logger.Info("📝 relatório gerado", zap.String("dest", r.dest), zap.Int("active", len(res.Active)))
	return nil
}

// Build は SetupResult から xlsx ワークブックを組み立てます。
func Build(res usecase.SetupResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetActive); err != nil {
		_ = f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, int, usecase.SetupResult) error{
		writeActiveSheet,
		writeSummarySheet,
		writeFailuresSheet,
	}
	for _, step := range steps {
		if err := step(f, bold, res); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("report: build xlsx: %w", err)
		}
	}
	return f, nil
}

func writeActiveSheet(f *excelize.File, bold int, res usecase.SetupResult) error {
	if err := f.SetSheetRow(sheetActive, "A1", &activeHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetActive, "A1", "J1", bold); err != nil {
		return err
	}

	for i, u := range res.Active {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		updated := ""
		if u.UpdatedAt != nil {
			updated = u.UpdatedAt.Format(dateTimeFmt)
		}
		row := []interface{}{
			u.Code, u.Name, u.City, u.State, u.Phone, u.Email,
			u.CommanderName, u.CommanderRank, formatTime(u.CreatedAt), updated,
		}
		if err := f.SetSheetRow(sheetActive, cell, &row); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheetActive, "A", "A", 12)
	_ = f.SetColWidth(sheetActive, "B", "B", 40)
	_ = f.SetColWidth(sheetActive, "E", "H", 25)
	_ = f.SetColWidth(sheetActive, "I", "J", 18)
	return nil
}

func writeSummarySheet(f *excelize.File, bold int, res usecase.SetupResult) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Execução", res.RunID},
		{"Dry-run", res.DryRun},
		{"Início", formatTime(res.StartedAt)},
		{"Fim", formatTime(res.FinishedAt)},
		{"Unidades encontradas", res.Activation.Total},
		{"Ativadas", res.Activation.Activated},
		{"Já ativas", res.Activation.AlreadyActive},
		{"Adicionadas", res.Insert.Added},
		{"Já existentes", res.Insert.Existing},
		{"Inserção ignorada", res.InsertSkipped},
		{"Falhas", res.FailureCount()},
		{"Unidades ativas", len(res.Active)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return err
		}
	}

	_ = f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), bold)
	_ = f.SetColWidth(sheetSummary, "A", "A", 24)
	_ = f.SetColWidth(sheetSummary, "B", "B", 40)
	return nil
}

func writeFailuresSheet(f *excelize.File, bold int, res usecase.SetupResult) error {
	if res.FailureCount() == 0 {
		return nil
	}
	if _, err := f.NewSheet(sheetFailures); err != nil {
		return err
	}

	header := []string{"Etapa", "Código", "Erro"}
	if err := f.SetSheetRow(sheetFailures, "A1", &header); err != nil {
		return err
	}
	_ = f.SetCellStyle(sheetFailures, "A1", "C1", bold)

	line := 2
	add := func(step string, fails []usecase.ItemFailure) error {
		for _, fl := range fails {
			cell, err := excelize.CoordinatesToCellName(1, line)
			if err != nil {
				return err
			}
			row := []interface{}{step, fl.Code, fmt.Sprint(fl.Err)}
			if err := f.SetSheetRow(sheetFailures, cell, &row); err != nil {
				return err
			}
			line++
		}
		return nil
	}
	if err := add("ativação", res.Activation.Failures); err != nil {
		return err
	}
	if err := add("inserção", res.Insert.Failures); err != nil {
		return err
	}
	_ = f.SetColWidth(sheetFailures, "C", "C", 60)
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeFmt)
}
