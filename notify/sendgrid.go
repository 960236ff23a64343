package notify

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	apiKey string
	host   string
}

var _ Sender = (*SendGridSender)(nil)

// NewSendGridSender creates a sender. An empty host uses the public API.
func NewSendGridSender(apiKey, host string) *SendGridSender {
	if host == "" {
		host = "https://api.sendgrid.com"
	}
	return &SendGridSender{apiKey: apiKey, host: host}
}

// Name implements Sender.
func (s *SendGridSender) Name() string {
	return ProviderSendGrid
}

// Send implements Sender. Only 200 and 202 count as delivered.
func (s *SendGridSender) Send(ctx context.Context, env Envelope) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("", env.From),
		env.Subject,
		mail.NewEmail("", env.To),
		env.Text,
		env.HTML,
	)

	request := sendgrid.GetRequest(s.apiKey, sendGridEndpoint, s.host)
	request.Method = http.MethodPost
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "sendgrid request failed")
	}

	switch response.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil
	}

	return ErrDeliveryRejected.Clone().WithMetadata(map[string]any{
		"provider": ProviderSendGrid,
		"status":   response.StatusCode,
		"body":     response.Body,
	})
}
