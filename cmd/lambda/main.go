// Package main serves the claims API from AWS Lambda behind an API Gateway HTTP API.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kylejryan/vehicle-claims-api/internal/api"
	"github.com/kylejryan/vehicle-claims-api/internal/claims"
	"github.com/kylejryan/vehicle-claims-api/internal/config"
	"github.com/kylejryan/vehicle-claims-api/internal/httpx"
	"github.com/kylejryan/vehicle-claims-api/internal/storage"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

const claimsPath = "/api/claims"

// App holds the claim store shared across invocations.
type App struct {
	store *claims.Store
}

// handler routes an API Gateway request to the matching claim operation.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := req.RequestContext.HTTP.Method
	path := strings.TrimSuffix(req.RawPath, "/")

	if path == "/ping" && method == http.MethodGet {
		if err := a.store.Ping(ctx); err != nil {
			log.Printf("ping: %v request_id=%s", err, requestID(req))
			return httpx.Error(http.StatusServiceUnavailable, err.Error())
		}
		return httpx.JSON(http.StatusOK, api.PingResponse{Pong: true, Time: time.Now().UTC().Format(time.RFC3339)})
	}

	id, ok := claimID(req, path)
	if !ok {
		return httpx.Error(http.StatusNotFound, "not found")
	}

	switch {
	case id == "" && method == http.MethodPost:
		body, err := decodeBody(req)
		if err != nil {
			return httpx.Error(http.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
		c, err := a.store.Insert(ctx, body)
		if err != nil {
			return a.fail(req, err)
		}
		resp, _ := httpx.JSON(http.StatusCreated, c)
		resp.Headers["Location"] = claimsPath + "/" + c.ID
		return resp, nil

	case id == "" && method == http.MethodGet:
		all, err := a.store.FindAll(ctx)
		if err != nil {
			return a.fail(req, err)
		}
		return httpx.JSON(http.StatusOK, all)

	case id != "" && method == http.MethodGet:
		c, err := a.store.FindByID(ctx, id)
		if err != nil {
			return a.fail(req, err)
		}
		return httpx.JSON(http.StatusOK, c)

	case id != "" && method == http.MethodPut:
		body, err := decodeBody(req)
		if err != nil {
			return httpx.Error(http.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
		c, err := a.store.UpdateByID(ctx, id, body)
		if err != nil {
			return a.fail(req, err)
		}
		return httpx.JSON(http.StatusOK, c)

	case id != "" && method == http.MethodDelete:
		if err := a.store.DeleteByID(ctx, id); err != nil {
			return a.fail(req, err)
		}
		return httpx.JSON(http.StatusOK, api.MessageResponse{Message: api.MsgClaimDeleted})
	}

	return httpx.Error(http.StatusMethodNotAllowed, "method not allowed")
}

// claimID extracts the {id} segment of /api/claims/{id}. ok is false for paths
// outside the claims collection.
func claimID(req events.APIGatewayV2HTTPRequest, path string) (string, bool) {
	if id := req.PathParameters["id"]; id != "" {
		return id, true
	}
	if path == claimsPath {
		return "", true
	}
	rest, found := strings.CutPrefix(path, claimsPath+"/")
	if !found || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// decodeBody reads the request body into a ClaimRequest. An empty body yields no fields.
func decodeBody(req events.APIGatewayV2HTTPRequest) (api.ClaimRequest, error) {
	var out api.ClaimRequest
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return out, err
		}
		raw = b
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return out, nil
	}
	err := json.Unmarshal(raw, &out)
	return out, err
}

// requestID prefers a client-supplied X-Request-Id over the API Gateway request id.
func requestID(req events.APIGatewayV2HTTPRequest) string {
	if id := httpx.Header(req.Headers, "X-Request-Id"); id != "" {
		return id
	}
	return req.RequestContext.RequestID
}

func (a *App) fail(req events.APIGatewayV2HTTPRequest, err error) (events.APIGatewayV2HTTPResponse, error) {
	status, msg := api.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v request_id=%s", req.RequestContext.HTTP.Method, req.RawPath, err, requestID(req))
	}
	return httpx.Error(status, msg)
}

// main opens the configured repository and starts the Lambda handler.
func main() {
	env := config.MustLoad()
	backend, err := storage.Open(context.Background(), env)
	if err != nil {
		log.Fatal(err)
	}
	app := &App{store: claims.NewStore(backend)}
	lambda.Start(app.handler)
}
