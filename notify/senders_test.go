package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridSenderAccepted(t *testing.T) {
	var payload map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender("SG.key", srv.URL)
	err := s.Send(context.Background(), Envelope{
		From:    "no-reply@hirewell.test",
		To:      "u@x.com",
		Subject: "Hello",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer SG.key", auth)
	assert.Equal(t, "Hello", payload["subject"])
}

func TestSendGridSenderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	err := NewSendGridSender("SG.bad", srv.URL).Send(context.Background(), Envelope{
		From: "no-reply@hirewell.test", To: "u@x.com", Subject: "s", HTML: "h",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, TextCodeDeliveryRejected, richErr.TextCode)
	assert.Equal(t, http.StatusUnauthorized, richErr.Metadata["status"])
	assert.Contains(t, richErr.Metadata["body"], "bad key")
}

type stubSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (s *stubSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	s.input = params
	if s.err != nil {
		return nil, s.err
	}
	return &sesv2.SendEmailOutput{}, nil
}

func TestSESSenderBuildsSimpleMessage(t *testing.T) {
	client := &stubSES{}
	err := NewSESSenderWithClient(client).Send(context.Background(), Envelope{
		From: "no-reply@hirewell.test", To: "u@x.com", Subject: "Hello", HTML: "<p>hi</p>", Text: "hi",
	})
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "no-reply@hirewell.test", *client.input.FromEmailAddress)
	assert.Equal(t, []string{"u@x.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Hello", *client.input.Content.Simple.Subject.Data)
	assert.Equal(t, "<p>hi</p>", *client.input.Content.Simple.Body.Html.Data)
	assert.Equal(t, "hi", *client.input.Content.Simple.Body.Text.Data)
}

func TestSESSenderError(t *testing.T) {
	client := &stubSES{err: errors.New("MessageRejected")}
	err := NewSESSenderWithClient(client).Send(context.Background(), Envelope{To: "u@x.com"})
	require.Error(t, err)
}

func TestNewSenderByProvider(t *testing.T) {
	s, err := NewSender(context.Background(), Config{Provider: ProviderLog}, &recordingLogger{})
	require.NoError(t, err)
	assert.Equal(t, ProviderLog, s.Name())
	require.NoError(t, s.Send(context.Background(), Envelope{To: "u@x.com"}))

	s, err = NewSender(context.Background(), Config{Provider: ProviderSendGrid, APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderSendGrid, s.Name())
}
