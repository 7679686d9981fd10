// Package ses implements a Provider that delivers records as email via AWS
// SES v2.
package ses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/mailxml/internal/email"
)

// maxRetries is the maximum number of retry attempts for transient failures.
const maxRetries = 3

// baseRetryDelay is the initial delay for exponential backoff.
const baseRetryDelay = 1 * time.Second

// ErrNoRecipient is returned when the record has no To address.
var ErrNoRecipient = errors.New("record has no recipient address")

// SESProviderConfig holds the configuration for creating a SESProvider.
type SESProviderConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Sender          string
}

// SESProvider sends records via the AWS SES v2 API.
type SESProvider struct {
	sender     string
	client     SendEmailAPI
	retryDelay time.Duration
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a new SESProvider with the given configuration.
func New(ctx context.Context, cfg SESProviderConfig) (*SESProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewWithClient(cfg.Sender, sesv2.NewFromConfig(awsCfg)), nil
}

// NewWithClient creates a SESProvider with a custom client, used for testing.
func NewWithClient(sender string, client SendEmailAPI) *SESProvider {
	return &SESProvider{
		sender:     sender,
		client:     client,
		retryDelay: baseRetryDelay,
	}
}

// Send delivers the record as a plain-text email. The configured sender is
// the envelope From; the record's From becomes the Reply-To.
func (s *SESProvider) Send(ctx context.Context, rec *email.Record) error {
	if rec.To.Address == "" {
		return ErrNoRecipient
	}
	input := buildInput(s.sender, rec)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying SES API request",
				"attempt", attempt,
				"max_retries", maxRetries,
			)
			if err := sleepWithContext(ctx, s.backoffDelay(attempt)); err != nil {
				return fmt.Errorf("context cancelled during retry wait: %w", err)
			}
		}

		out, err := s.client.SendEmail(ctx, input)
		if err == nil {
			slog.Info("record delivered via SES",
				"to", rec.To.Address,
				"message_id", aws.ToString(out.MessageId),
			)
			return nil
		}

		lastErr = err
		slog.Warn("SES API error",
			"attempt", attempt,
			"error", err,
		)
	}

	return fmt.Errorf("SES API request failed after %d retries: %w", maxRetries, lastErr)
}

// Name returns the provider name.
func (s *SESProvider) Name() string {
	return "ses"
}

// buildInput creates the SES SendEmailInput for a record.
func buildInput(sender string, rec *email.Record) *sesv2.SendEmailInput {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(sender),
		Destination: &types.Destination{
			ToAddresses: []string{formatAddress(rec.To)},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(rec.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(rec.Body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}
	if rec.From.Address != "" {
		input.ReplyToAddresses = []string{formatAddress(rec.From)}
	}
	return input
}

// formatAddress renders a party as an RFC 5322 address, encoding non-ASCII
// display names.
func formatAddress(p email.Party) string {
	addr := mail.Address{Name: p.Name, Address: p.Address}
	return addr.String()
}

// backoffDelay returns the exponential backoff delay for the given attempt number.
func (s *SESProvider) backoffDelay(attempt int) time.Duration {
	delay := s.retryDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// sleepWithContext waits for the specified duration or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
