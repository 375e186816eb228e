package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESProvider_Send(t *testing.T) {
	api := &fakeSES{}
	p := &SESProvider{client: api, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	resp, err := p.Send(context.Background(), &Message{
		From:    "from@example.edu",
		To:      []string{"to@example.edu"},
		CC:      []string{"cc@example.edu"},
		Subject: "Weekly",
		HTML:    "<p>x</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "ses-1", resp.Body)
	assert.Equal(t, "from@example.edu", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"to@example.edu"}, api.input.Destination.ToAddresses)
	assert.Equal(t, []string{"cc@example.edu"}, api.input.Destination.CcAddresses)
	assert.Equal(t, "Weekly", aws.ToString(api.input.Content.Simple.Subject.Data))
	assert.Equal(t, "<p>x</p>", aws.ToString(api.input.Content.Simple.Body.Html.Data))
}

func TestSESProvider_Error(t *testing.T) {
	p := &SESProvider{client: &fakeSES{err: errors.New("throttled")}, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	_, err := p.Send(context.Background(), &Message{To: []string{"to@example.edu"}})
	assert.ErrorContains(t, err, "throttled")
}
