// Package client is a small HTTP client for the chatd API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"chatd/pkg/types"
)

// Client talks to a running chatd server.
type Client struct {
	HttpClient *resty.Client
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// New returns a client for base, e.g. http://localhost:8000.
func New(base string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{HttpClient: c}
}

// Chat posts one message.
func (c *Client) Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	resp, err := c.HttpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&types.ChatResponse{}).
		SetError(&types.ErrorResponse{}).
		Post("/api/v1/chat/chat")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError(resp)
	}
	return resp.Result().(*types.ChatResponse), nil
}

// Health fetches the service health.
func (c *Client) Health(ctx context.Context) (*types.HealthResponse, error) {
	resp, err := c.HttpClient.R().
		SetContext(ctx).
		SetResult(&types.HealthResponse{}).
		SetError(&types.ErrorResponse{}).
		Get("/api/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError(resp)
	}
	return resp.Result().(*types.HealthResponse), nil
}

func apiError(resp *resty.Response) error {
	if e, ok := resp.Error().(*types.ErrorResponse); ok && e.Error != "" {
		return &APIError{Status: resp.StatusCode(), Message: e.Error}
	}
	return &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(string(resp.Body()))}
}
