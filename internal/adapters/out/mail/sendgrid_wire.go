package mail

import (
	"go.uber.org/zap"
)

// NewSetupReportMailerWithSendGrid は SendGrid を使った SetupReportMailer を生成します。
//
// - apiKey : SENDGRID_API_KEY
// - from   : SENDGRID_FROM
// - to     : SETUP_REPORT_TO（カンマ区切り）
func NewSetupReportMailerWithSendGrid(apiKey, from, to string, logger *zap.Logger) *SetupReportMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if apiKey == "" {
		logger.Warn("[mail] SENDGRID_API_KEY is empty. SetupReportMailer will fail to send mail.")
	}
	if from == "" {
		logger.Warn("[mail] SENDGRID_FROM is empty. SetupReportMailer will fail to send mail.")
	}

	mailer := NewSetupReportMailer(NewSendGridClient(apiKey, logger), from, to)

	logger.Info("[mail] SetupReportMailerWithSendGrid initialized",
		zap.String("from", from),
		zap.Strings("to", mailer.recipients),
	)
	return mailer
}
