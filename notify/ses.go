package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/goliatone/go-errors"
)

// SESAPI is the subset of the SES v2 client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers through Amazon SES.
type SESSender struct {
	client SESAPI
}

var _ Sender = (*SESSender)(nil)

// NewSESSender builds an SES client for cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewSESSender(ctx context.Context, cfg Config) (*SESSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SESRegion),
	}

	if cfg.SESAccessKeyID != "" && cfg.SESSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SESAccessKeyID, cfg.SESSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load aws config")
	}

	return NewSESSenderWithClient(sesv2.NewFromConfig(awsCfg)), nil
}

// NewSESSenderWithClient wraps an existing client.
func NewSESSenderWithClient(client SESAPI) *SESSender {
	return &SESSender{client: client}
}

// Name implements Sender.
func (s *SESSender) Name() string {
	return ProviderSES
}

// Send implements Sender.
func (s *SESSender) Send(ctx context.Context, env Envelope) error {
	body := &types.Body{
		Html: &types.Content{
			Data:    aws.String(env.HTML),
			Charset: aws.String("UTF-8"),
		},
	}
	if env.Text != "" {
		body.Text = &types.Content{
			Data:    aws.String(env.Text),
			Charset: aws.String("UTF-8"),
		}
	}

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(env.From),
		Destination: &types.Destination{
			ToAddresses: []string{env.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(env.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: body,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "ses send failed").
			WithTextCode(TextCodeDeliveryRejected)
	}
	return nil
}
