// Package mailer sends the newsletter through Amazon SES.
package mailer

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SESv2SendEmailAPI allows sending emails.
type SESv2SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// MaxRecipientsPerMessage is the SES limit on destination addresses in one message.
const MaxRecipientsPerMessage = 50

const charset = "UTF-8"

// Config provides configuration options for a Dispatcher.
type Config struct {
	SendEmailAPI            SESv2SendEmailAPI
	FromEmailAddress        string
	ConfigurationSet        string
	ReplyToAddresses        []string
	MaxRecipientsPerMessage int
	Template                Template
	Logger                  *zap.Logger
}

// Dispatcher sends one message, split into as few SES requests as the
// per-message address limit allows, with every recipient in BCC.
type Dispatcher struct {
	seAPI            SESv2SendEmailAPI
	fromEmailAddr    string
	configurationSet string
	replyTo          []string
	chunkSize        int
	tmpl             Template
	log              *zap.Logger
}

// New creates a new Dispatcher instance.
func New(cfg Config) *Dispatcher {
	size := cfg.MaxRecipientsPerMessage
	if size <= 0 || size > MaxRecipientsPerMessage {
		size = MaxRecipientsPerMessage
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		seAPI:            cfg.SendEmailAPI,
		fromEmailAddr:    cfg.FromEmailAddress,
		configurationSet: cfg.ConfigurationSet,
		replyTo:          cfg.ReplyToAddresses,
		chunkSize:        size,
		tmpl:             cfg.Template,
		log:              log,
	}
}

// SendResult describes a completed Send.
type SendResult struct {
	// Recipients is the number of addresses in messages SES accepted.
	Recipients int
	// MessageIDs holds one SES message ID per accepted message.
	MessageIDs []string
}

// EmailServiceError is returned when SES rejects one or more messages of a send.
type EmailServiceError struct {
	FailedChunks []int
	Chunks       int
	Err          error
}

func (e *EmailServiceError) Error() string {
	return fmt.Sprintf("email service: %d of %d messages failed: %v", len(e.FailedChunks), e.Chunks, e.Err)
}

func (e *EmailServiceError) Unwrap() error {
	return e.Err
}

func (d *Dispatcher) content() *sestypes.EmailContent {
	body := &sestypes.Body{}
	if d.tmpl.Text != "" {
		body.Text = &sestypes.Content{Charset: aws.String(charset), Data: aws.String(d.tmpl.Text)}
	}
	if d.tmpl.HTML != "" {
		body.Html = &sestypes.Content{Charset: aws.String(charset), Data: aws.String(d.tmpl.HTML)}
	}
	return &sestypes.EmailContent{
		Simple: &sestypes.Message{
			Subject: &sestypes.Content{Charset: aws.String(charset), Data: aws.String(d.tmpl.Subject)},
			Body:    body,
		},
	}
}

func (d *Dispatcher) sendChunk(ctx context.Context, bcc []string) (*sesv2.SendEmailOutput, error) {
	input := &sesv2.SendEmailInput{
		Destination: &sestypes.Destination{
			BccAddresses: bcc,
		},
		FromEmailAddress: aws.String(d.fromEmailAddr),
		ReplyToAddresses: d.replyTo,
		Content:          d.content(),
	}
	if d.configurationSet != "" {
		input.ConfigurationSetName = aws.String(d.configurationSet)
	}
	return d.seAPI.SendEmail(ctx, input)
}

// Send emails the newsletter to recipients. An empty list sends nothing and
// succeeds. A failed message does not stop the remaining ones; all failures
// are reported together in an *EmailServiceError.
func (d *Dispatcher) Send(ctx context.Context, recipients []string) (SendResult, error) {
	res := SendResult{}
	if len(recipients) == 0 {
		d.log.Info("no recipients, skipping send")
		return res, nil
	}

	nc := int(math.Ceil(float64(len(recipients)) / float64(d.chunkSize)))
	var errs error
	var failed []int
	for c := 0; c < nc; c++ {
		start := c * d.chunkSize
		stop := start + d.chunkSize
		if stop > len(recipients) {
			stop = len(recipients)
		}

		out, err := d.sendChunk(ctx, recipients[start:stop])
		if err != nil {
			d.log.Error("SendEmail failed", zap.Int("chunk", c), zap.Int("recipients", stop-start), zap.Error(err))
			failed = append(failed, c)
			errs = multierr.Append(errs, fmt.Errorf("message %d: %w", c, err))
			continue
		}

		res.Recipients += stop - start
		if out != nil && out.MessageId != nil {
			res.MessageIDs = append(res.MessageIDs, *out.MessageId)
		}
	}

	if errs != nil {
		return res, &EmailServiceError{FailedChunks: failed, Chunks: nc, Err: errs}
	}
	d.log.Info("newsletter sent", zap.Int("recipients", res.Recipients), zap.Int("messages", nc))
	return res, nil
}
