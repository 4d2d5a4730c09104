// Package notify emails rendered analysis reports through AWS SESv2.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/sendtime-optimizer/internal/config"
	"github.com/ignite/sendtime-optimizer/internal/pkg/logger"
)

// sesAPI is the slice of the SESv2 client the notifier uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifier sends report summaries to a configured recipient list. A nil
// Notifier (or one built from a disabled config) is safe to call and
// does nothing.
type Notifier struct {
	client     sesAPI
	fromEmail  string
	recipients []string
}

// New builds a Notifier from config. Returns nil when notifications are
// disabled or missing a sender address.
func New(ctx context.Context, cfg config.NotifyConfig) (*Notifier, error) {
	if !cfg.Enabled || cfg.FromEmail == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Notifier{
		client:     sesv2.NewFromConfig(awsCfg),
		fromEmail:  cfg.FromEmail,
		recipients: cfg.Recipients,
	}, nil
}

// Send delivers the rendered report body to the configured recipients.
// Extra recipients may be supplied per call; they are appended to the
// configured list.
func (n *Notifier) Send(ctx context.Context, subject, body string, extra ...string) error {
	if n == nil || n.client == nil {
		return nil
	}

	to := append(append([]string{}, n.recipients...), extra...)
	to = dedupe(to)
	if len(to) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	out, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	redacted := make([]string, len(to))
	for i, addr := range to {
		redacted[i] = logger.RedactEmail(addr)
	}
	logger.Info("report notification sent",
		"message_id", aws.ToString(out.MessageId),
		"to", strings.Join(redacted, ","),
	)
	return nil
}

func dedupe(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := addrs[:0]
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
