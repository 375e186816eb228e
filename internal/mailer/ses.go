package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the part of the SES client the provider uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESProvider implements email sending via AWS SES.
type SESProvider struct {
	client sesAPI
	logger *slog.Logger
}

// NewSESProvider creates a new SES email provider using the default AWS
// credential chain.
func NewSESProvider(ctx context.Context, logger *slog.Logger, region string) (*SESProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	logger.Info("SES email provider initialized", "region", region)
	return &SESProvider{client: sesv2.NewFromConfig(cfg), logger: logger}, nil
}

// Name returns the provider name.
func (p *SESProvider) Name() string {
	return "ses"
}

// Send sends an email via AWS SES. Attachments are not supported by the
// simple content type and are dropped.
func (p *SESProvider) Send(ctx context.Context, msg *Message) (*Response, error) {
	if len(msg.Attachments) > 0 {
		p.logger.Warn("SES provider does not send attachments, dropping them", "count", len(msg.Attachments))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: msg.To,
			CcAddresses: msg.CC,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := p.client.SendEmail(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("SES send failed: %w", err)
	}
	return &Response{StatusCode: http.StatusOK, Body: aws.ToString(out.MessageId)}, nil
}
