// Package handlers implements the v1 API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/db/models"
	"github.com/celestiaorg/gcpiac/internal/orchestrator"
	"github.com/celestiaorg/gcpiac/internal/workspace"
)

// Workflows runs the apply and destroy workflows
type Workflows interface {
	Apply(ctx context.Context, opts orchestrator.ApplyOptions) *orchestrator.Result
	Destroy(ctx context.Context) *orchestrator.Result
}

// WorkspaceLister lists existing workspaces
type WorkspaceLister interface {
	List() ([]workspace.Workspace, error)
}

// RunLister lists recorded runs
type RunLister interface {
	List(ctx context.Context, opts *models.ListOptions) ([]models.Run, error)
}

// Handler serves the v1 endpoints
type Handler struct {
	workflows  Workflows
	workspaces WorkspaceLister
	runs       RunLister // nil when history is disabled
	log        logrus.FieldLogger
}

// NewHandler creates a Handler
func NewHandler(workflows Workflows, workspaces WorkspaceLister, runs RunLister, log logrus.FieldLogger) *Handler {
	return &Handler{
		workflows:  workflows,
		workspaces: workspaces,
		runs:       runs,
		log:        log,
	}
}

// ListWorkspaces returns every existing workspace
func (h *Handler) ListWorkspaces(c *fiber.Ctx) error {
	list, err := h.workspaces.List()
	if err != nil {
		h.log.WithError(err).Error("Failed to list workspaces")
		return c.Status(fiber.StatusInternalServerError).JSON(errServer(fmt.Sprintf("failed to list workspaces: %v", err)))
	}
	return c.JSON(success(list))
}

// ListRuns returns the most recent runs
func (h *Handler) ListRuns(c *fiber.Ctx) error {
	if h.runs == nil {
		return c.Status(fiber.StatusNotFound).JSON(errGeneral("run history is disabled", nil))
	}

	opts := &models.ListOptions{
		Limit:  c.QueryInt("limit", models.DefaultLimit),
		Offset: c.QueryInt("offset", 0),
	}
	if opts.Limit <= 0 || opts.Offset < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput("limit must be positive and offset non-negative"))
	}
	if action := c.Query("action"); action != "" {
		a, err := models.ParseAction(action)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
		}
		opts.Action = a
	}

	runs, err := h.runs.List(c.UserContext(), opts)
	if err != nil {
		h.log.WithError(err).Error("Failed to list runs")
		return c.Status(fiber.StatusInternalServerError).JSON(errServer(fmt.Sprintf("failed to list runs: %v", err)))
	}
	return c.JSON(success(runs))
}

// Apply runs the apply workflow and returns its result
func (h *Handler) Apply(c *fiber.Ctx) error {
	var req ApplyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(fmt.Sprintf("invalid request body: %v", err)))
		}
	}
	return h.respond(c, h.workflows.Apply(c.UserContext(), orchestrator.ApplyOptions{Force: req.Force}))
}

// Destroy runs the destroy workflow and returns its result
func (h *Handler) Destroy(c *fiber.Ctx) error {
	return h.respond(c, h.workflows.Destroy(c.UserContext()))
}

func (h *Handler) respond(c *fiber.Ctx, res *orchestrator.Result) error {
	switch {
	case res.OK():
		return c.JSON(success(res))
	case errors.Is(res.Err, orchestrator.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(errConflict(res.Err.Error()))
	default:
		msg := "workflow failed"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(errGeneral(msg, res))
	}
}
