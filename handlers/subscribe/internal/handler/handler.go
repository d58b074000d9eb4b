// Package handler provides the Lambda function implementation.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"newsletter/internal/subscribers"
	"newsletter/types"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// SubscriberRegistrar adds a subscriber for an email address.
type SubscriberRegistrar interface {
	Add(ctx context.Context, address string) (types.Subscriber, error)
}

type Handler struct {
	registrar SubscriberRegistrar
	log       *zap.Logger
}

// New creates an instance of Handler that will subscribe clients by adding them to the subscribers table.
func New(registrar SubscriberRegistrar, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{registrar, log}
}

// SubscribeResponse is the JSON body of every Subscribe response.
type SubscribeResponse struct {
	ID     string      `json:"id,omitempty"`
	Email  string      `json:"email,omitempty"`
	Errors []ErrorInfo `json:"errors,omitempty"`
}

// ErrorInfo contains information about errors in a request that resulted in an invalid response.
type ErrorInfo struct {
	Field    string `json:"field,omitempty"`
	Message  string `json:"message,omitempty"`
	Location string `json:"location"`
}

type subscribeBody struct {
	Email string `json:"email"`
}

// emailParam returns the address from the "email" query parameter, or else from
// a JSON body, along with where it was found.
func emailParam(req events.APIGatewayV2HTTPRequest) (string, string, error) {
	if email, ok := req.QueryStringParameters["email"]; ok {
		return email, "query", nil
	}
	if strings.TrimSpace(req.Body) == "" {
		return "", "query", nil
	}

	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return "", "body", fmt.Errorf("body is not valid base64: %w", err)
		}
		raw = b
	}
	var body subscribeBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", "body", fmt.Errorf("body is not valid JSON: %w", err)
	}
	return body.Email, "body", nil
}

// Subscribe adds the email address associated with the request to the subscribers table.
func (h *Handler) Subscribe(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	email, loc, err := emailParam(req)
	if err != nil {
		return response(http.StatusBadRequest, SubscribeResponse{Errors: []ErrorInfo{{Message: err.Error(), Location: loc}}})
	}
	if len(email) == 0 {
		return response(http.StatusBadRequest, SubscribeResponse{Errors: []ErrorInfo{{"email", "email is required", loc}}})
	}

	sub, err := h.registrar.Add(ctx, email)
	if err != nil {
		if errors.Is(err, subscribers.ErrInvalidAddress) {
			return response(http.StatusBadRequest, SubscribeResponse{Errors: []ErrorInfo{{"email", "email must be a valid address", loc}}})
		}

		h.log.Error("could not add subscriber", zap.Error(err))
		status := http.StatusInternalServerError
		var be *subscribers.BackendError
		if errors.As(err, &be) {
			status = http.StatusBadGateway
		}
		return response(status, SubscribeResponse{Errors: []ErrorInfo{{Message: "could not add subscriber", Location: "server"}}})
	}

	return response(http.StatusCreated, SubscribeResponse{ID: sub.ID, Email: sub.Email})
}

func response(status int, body SubscribeResponse) (events.APIGatewayV2HTTPResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
		}, fmt.Errorf("error marshalling response body: %w", err)
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type": "application/json",
		},
		Body: string(b),
	}, nil
}
