package mail

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// senderName は送信元の表示名です。
const senderName = "Plataforma Bravo"

// SendGridClient implements EmailClient interface
type SendGridClient struct {
	apiKey string
	logger *zap.Logger
	send   func(ctx context.Context, m *mail.SGMailV3) (*rest.Response, error)
}

func NewSendGridClient(apiKey string, logger *zap.Logger) *SendGridClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &SendGridClient{apiKey: apiKey, logger: logger}
	c.send = func(ctx context.Context, m *mail.SGMailV3) (*rest.Response, error) {
		return sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, m)
	}
	return c
}

// Send sends an email using SendGrid
func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if from == "" {
		return fmt.Errorf("from address is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(senderName, from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	response, err := c.send(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 400 {
		c.logger.Error("[sendgrid] error",
			zap.Int("status", response.StatusCode),
			zap.String("body", response.Body),
		)
		return fmt.Errorf(
			"sendgrid send failed: status=%d, body=%s",
			response.StatusCode,
			response.Body,
		)
	}

	c.logger.Info("[sendgrid] mail sent",
		zap.Int("status", response.StatusCode),
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
