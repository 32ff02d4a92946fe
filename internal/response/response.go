// Package response builds API Gateway proxy responses.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/comments/internal/claims"
	"github.com/UKHomeOffice/comments/internal/store"
	"github.com/UKHomeOffice/comments/internal/validate"
)

// ErrMissingID is returned when a path needs an id and has none
var ErrMissingID = errors.New("id is required")

const internalBody = `{"message":"internal error"}`

func headers() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// JSON marshals v as the response body
func JSON(status int, v interface{}) events.APIGatewayProxyResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers(),
			Body:       internalBody,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers(),
		Body:       string(b),
	}
}

// Message responds with {"message": msg}
func Message(status int, msg string) events.APIGatewayProxyResponse {
	return JSON(status, struct {
		Message string `json:"message"`
	}{Message: msg})
}

// Error maps err to a status code. Causes of 500s are logged and kept out of the body.
func Error(log logrus.FieldLogger, err error) events.APIGatewayProxyResponse {

	var ve validate.Errors
	switch {
	case errors.As(err, &ve):
		return JSON(http.StatusBadRequest, struct {
			Message string          `json:"message"`
			Errors  validate.Errors `json:"errors"`
		}{Message: "validation failed", Errors: ve})
	case errors.Is(err, validate.ErrBody):
		return Message(http.StatusBadRequest, "invalid request body")
	case errors.Is(err, ErrMissingID):
		return Message(http.StatusBadRequest, "id is required")
	case errors.Is(err, claims.ErrMissing):
		return Message(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, claims.ErrForbidden):
		return Message(http.StatusForbidden, "forbidden")
	case errors.Is(err, store.ErrNotFound):
		return Message(http.StatusNotFound, "comment not found")
	}

	log.WithError(err).Error("request failed")
	return Message(http.StatusInternalServerError, "internal error")
}
