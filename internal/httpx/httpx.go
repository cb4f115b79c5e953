// Package httpx provides helper functions for creating API Gateway HTTP responses.
package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// JSON creates a JSON HTTP response with the given status code and value.
func JSON(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"message":"internal server error"}`)
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(b),
	}, nil
}

// Error creates a JSON HTTP error response with the given status code and message.
func Error(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return JSON(status, map[string]string{"message": msg})
}

// Header retrieves a request header value in a case-insensitive manner.
func Header(h map[string]string, key string) string {
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}
