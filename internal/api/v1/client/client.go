// Package client is a Go client for the v1 API served by `gcpiac serve`
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/gcpiac/internal/api/v1/handlers"
	"github.com/celestiaorg/gcpiac/internal/api/v1/routes"
	"github.com/celestiaorg/gcpiac/internal/db/models"
	"github.com/celestiaorg/gcpiac/internal/workspace"
)

// DefaultTimeout is the default timeout for listing requests. Workflow requests wait as long
// as the workflow runs unless the context carries a deadline.
const DefaultTimeout = 30 * time.Second

// Client defines the interface for interacting with the gcpiac API
type Client interface {
	HealthCheck(ctx context.Context) (map[string]string, error)
	ListWorkspaces(ctx context.Context) ([]workspace.Workspace, error)
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	Apply(ctx context.Context, force bool) (*WorkflowResult, error)
	Destroy(ctx context.Context) (*WorkflowResult, error)
}

// ClientOptions contains configuration options for the API client
type ClientOptions struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *ClientOptions {
	return &ClientOptions{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

var _ Client = (*APIClient)(nil)

// NewClient creates a new API client with the given options
func NewClient(opts *ClientOptions) (*APIClient, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL: unsupported scheme %q", u.Scheme)
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}, timeout time.Duration) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or the given default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else if timeout > 0 {
		agent.Timeout(timeout)
	}

	agent.Set("Accept", "application/json")
	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// executeRequest sends the request and decodes the data of the response envelope into v
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, v interface{}, timeout time.Duration) error {
	agent, err := c.createAgent(ctx, method, endpoint, body, timeout)
	if err != nil {
		return err
	}

	statusCode, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if statusCode < 200 || statusCode >= 300 {
		msg := "unknown error"
		if decodeErr == nil && env.Error != "" {
			msg = env.Error
		}
		// Failed workflows still carry their result
		if decodeErr == nil && v != nil && len(env.Data) > 0 && env.Slug == string(handlers.ErrorSlug) {
			_ = json.Unmarshal(env.Data, v)
		}
		return &fiber.Error{Code: statusCode, Message: msg}
	}

	if decodeErr != nil {
		return fmt.Errorf("error decoding response: %w", decodeErr)
	}
	if v != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}
	return nil
}

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.HealthCheckURL(), nil, c.timeout)
	if err != nil {
		return nil, err
	}
	var response map[string]string
	statusCode, _, errs := agent.Struct(&response)
	if len(errs) > 0 {
		return nil, fmt.Errorf("error sending request: %w", errs[0])
	}
	if statusCode != fiber.StatusOK {
		return nil, &fiber.Error{Code: statusCode, Message: "unhealthy"}
	}
	return response, nil
}

// ListWorkspaces lists the workspaces of the server environment
func (c *APIClient) ListWorkspaces(ctx context.Context) ([]workspace.Workspace, error) {
	var response []workspace.Workspace
	if err := c.executeRequest(ctx, http.MethodGet, routes.ListWorkspacesURL(), nil, &response, c.timeout); err != nil {
		return nil, err
	}
	return response, nil
}

// ListRuns lists the most recent runs
func (c *APIClient) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	var response []models.Run
	if err := c.executeRequest(ctx, http.MethodGet, routes.ListRunsURL(limit), nil, &response, c.timeout); err != nil {
		return nil, err
	}
	return response, nil
}

// Apply runs the apply workflow on the server. A failed workflow returns both its result
// and an error.
func (c *APIClient) Apply(ctx context.Context, force bool) (*WorkflowResult, error) {
	var response WorkflowResult
	err := c.executeRequest(ctx, http.MethodPost, routes.ApplyURL(), handlers.ApplyRequest{Force: force}, &response, 0)
	return resultOrNil(&response, err)
}

// Destroy runs the destroy workflow on the server
func (c *APIClient) Destroy(ctx context.Context) (*WorkflowResult, error) {
	var response WorkflowResult
	err := c.executeRequest(ctx, http.MethodPost, routes.DestroyURL(), nil, &response, 0)
	return resultOrNil(&response, err)
}

func resultOrNil(res *WorkflowResult, err error) (*WorkflowResult, error) {
	if res.Action == "" {
		return nil, err
	}
	return res, err
}
