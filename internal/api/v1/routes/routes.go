// Package routes declares the v1 API paths
package routes

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultBaseURL is where a local server listens by default
	DefaultBaseURL = "http://localhost:8080"

	// APIPrefix is the prefix of every v1 route
	APIPrefix = "/api/v1"

	// HealthCheck is the liveness endpoint
	HealthCheck = "/health"
	// Metrics is the Prometheus endpoint
	Metrics = "/metrics"

	workspaces = "/workspaces"
	runs       = "/runs"
	apply      = "/apply"
	destroy    = "/destroy"
)

// Handlers are the endpoints served under APIPrefix
type Handlers interface {
	ListWorkspaces(c *fiber.Ctx) error
	ListRuns(c *fiber.Ctx) error
	Apply(c *fiber.Ctx) error
	Destroy(c *fiber.Ctx) error
}

// Register registers the v1 routes
func Register(app fiber.Router, h Handlers) {
	v1 := app.Group(APIPrefix)
	v1.Get(workspaces, h.ListWorkspaces).Name("workspaces.list")
	v1.Get(runs, h.ListRuns).Name("runs.list")
	v1.Post(apply, h.Apply).Name("workflows.apply")
	v1.Post(destroy, h.Destroy).Name("workflows.destroy")
}

// HealthCheckURL returns the health endpoint path
func HealthCheckURL() string {
	return HealthCheck
}

// ListWorkspacesURL returns the workspace listing path
func ListWorkspacesURL() string {
	return APIPrefix + workspaces
}

// ListRunsURL returns the run listing path, limited to limit rows when positive
func ListRunsURL(limit int) string {
	if limit > 0 {
		return fmt.Sprintf("%s%s?limit=%d", APIPrefix, runs, limit)
	}
	return APIPrefix + runs
}

// ApplyURL returns the apply workflow path
func ApplyURL() string {
	return APIPrefix + apply
}

// DestroyURL returns the destroy workflow path
func DestroyURL() string {
	return APIPrefix + destroy
}
