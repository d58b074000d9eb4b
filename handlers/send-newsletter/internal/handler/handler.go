// Package handler provides the Lambda function implementation.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"newsletter/internal/mailer"
	"newsletter/internal/subscribers"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// SubscriberScanner reads every item of the subscribers table.
type SubscriberScanner interface {
	FetchAll(ctx context.Context) ([]subscribers.Record, error)
}

// NewsletterDispatcher emails the newsletter to a list of recipients.
type NewsletterDispatcher interface {
	Send(ctx context.Context, recipients []string) (mailer.SendResult, error)
}

// Handler provides the state and implementation of the main Lambda function.
type Handler struct {
	scanner    SubscriberScanner
	dispatcher NewsletterDispatcher
	log        *zap.Logger
}

// New creates a new Handler instance.
func New(scanner SubscriberScanner, dispatcher NewsletterDispatcher, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{scanner, dispatcher, log}
}

// SendNewsletter emails the newsletter to every subscribed address in the table.
// The request itself is not inspected, so the function can be invoked through its
// URL or on a schedule. Failures are reported as 5xx responses, never as
// invocation errors.
func (h *Handler) SendNewsletter(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	log := h.log.With(zap.String("requestId", req.RequestContext.RequestID))

	records, err := h.scanner.FetchAll(ctx)
	if err != nil {
		log.Error("could not read subscribers", zap.Error(err))
		return errorResponse(fmt.Errorf("could not read subscribers: %w", err)), nil
	}

	recipients, skipped := subscribers.RecipientsWithStats(records)
	log.Info("collected recipients",
		zap.Int("records", len(records)), zap.Int("recipients", len(recipients)), zap.Int("skipped", skipped))

	res, err := h.dispatcher.Send(ctx, recipients)
	if err != nil {
		log.Error("could not send newsletter", zap.Error(err), zap.Int("delivered", res.Recipients))
		return errorResponse(fmt.Errorf("could not send newsletter: %w", err)), nil
	}

	return response(http.StatusOK, fmt.Sprintf("newsletter sent to %d subscribers", res.Recipients)), nil
}

func errorResponse(err error) events.APIGatewayV2HTTPResponse {
	var be *subscribers.BackendError
	var ese *mailer.EmailServiceError
	if errors.As(err, &be) || errors.As(err, &ese) {
		return response(http.StatusBadGateway, err.Error())
	}
	return response(http.StatusInternalServerError, err.Error())
}

func response(status int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type": "text/plain; charset=utf-8",
		},
		Body: body,
	}
}
