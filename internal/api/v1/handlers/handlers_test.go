package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/gcpiac/internal/api/v1/routes"
	"github.com/celestiaorg/gcpiac/internal/db/models"
	"github.com/celestiaorg/gcpiac/internal/logger"
	"github.com/celestiaorg/gcpiac/internal/orchestrator"
	"github.com/celestiaorg/gcpiac/internal/types"
	"github.com/celestiaorg/gcpiac/internal/workspace"
)

type fakeWorkflows struct {
	applyResult   *orchestrator.Result
	destroyResult *orchestrator.Result
	applyOpts     []orchestrator.ApplyOptions
}

func (f *fakeWorkflows) Apply(_ context.Context, opts orchestrator.ApplyOptions) *orchestrator.Result {
	f.applyOpts = append(f.applyOpts, opts)
	return f.applyResult
}

func (f *fakeWorkflows) Destroy(_ context.Context) *orchestrator.Result {
	return f.destroyResult
}

type fakeWorkspaces struct {
	list []workspace.Workspace
	err  error
}

func (f *fakeWorkspaces) List() ([]workspace.Workspace, error) {
	return f.list, f.err
}

type fakeRuns struct {
	runs []models.Run
	opts *models.ListOptions
}

func (f *fakeRuns) List(_ context.Context, opts *models.ListOptions) ([]models.Run, error) {
	f.opts = opts
	return f.runs, nil
}

func newTestApp(h *Handler) *fiber.App {
	app := fiber.New()
	routes.Register(app, h)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (int, Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHandler_Apply(t *testing.T) {
	wf := &fakeWorkflows{applyResult: &orchestrator.Result{
		Action:   orchestrator.ActionApply,
		State:    orchestrator.StateDone,
		Instance: &types.ProvisionedInstance{Name: "vm-1", IP: "10.0.0.5"},
	}}
	app := newTestApp(NewHandler(wf, &fakeWorkspaces{}, nil, logger.Discard()))

	status, resp := doRequest(t, app, fiber.MethodPost, routes.ApplyURL(), `{"force": true}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, SuccessSlug, resp.Slug)
	require.Len(t, wf.applyOpts, 1)
	assert.True(t, wf.applyOpts[0].Force)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["ok"])
	assert.Equal(t, "Done", data["state"])
}

func TestHandler_ApplyWithoutBody(t *testing.T) {
	wf := &fakeWorkflows{applyResult: &orchestrator.Result{State: orchestrator.StateDone}}
	app := newTestApp(NewHandler(wf, &fakeWorkspaces{}, nil, logger.Discard()))

	status, _ := doRequest(t, app, fiber.MethodPost, routes.ApplyURL(), "")

	assert.Equal(t, fiber.StatusOK, status)
	require.Len(t, wf.applyOpts, 1)
	assert.False(t, wf.applyOpts[0].Force)
}

func TestHandler_ApplyInvalidBody(t *testing.T) {
	wf := &fakeWorkflows{}
	app := newTestApp(NewHandler(wf, &fakeWorkspaces{}, nil, logger.Discard()))

	status, resp := doRequest(t, app, fiber.MethodPost, routes.ApplyURL(), `{"force":`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, InvalidInputSlug, resp.Slug)
	assert.Empty(t, wf.applyOpts)
}

func TestHandler_WorkflowFailures(t *testing.T) {
	tests := []struct {
		name       string
		result     *orchestrator.Result
		wantStatus int
		wantSlug   Slug
		wantData   bool
	}{
		{
			name:       "busy",
			result:     &orchestrator.Result{State: orchestrator.StateFailed, Err: orchestrator.ErrBusy},
			wantStatus: fiber.StatusConflict,
			wantSlug:   ConflictSlug,
		},
		{
			name: "failed",
			result: &orchestrator.Result{
				State:    orchestrator.StateFailed,
				FailedAt: orchestrator.StateWaitingReady,
				Err:      errors.New("failed to configure system"),
			},
			wantStatus: fiber.StatusInternalServerError,
			wantSlug:   ErrorSlug,
			wantData:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := &fakeWorkflows{destroyResult: tt.result}
			app := newTestApp(NewHandler(wf, &fakeWorkspaces{}, nil, logger.Discard()))

			status, resp := doRequest(t, app, fiber.MethodPost, routes.DestroyURL(), "")

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantSlug, resp.Slug)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.wantData, resp.Data != nil)
		})
	}
}

func TestHandler_ListWorkspaces(t *testing.T) {
	ws := &fakeWorkspaces{list: []workspace.Workspace{{Name: "vm-1", Dir: "/clients/vm-1"}}}
	app := newTestApp(NewHandler(&fakeWorkflows{}, ws, nil, logger.Discard()))

	status, resp := doRequest(t, app, fiber.MethodGet, routes.ListWorkspacesURL(), "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, resp.Data, 1)

	ws.err = errors.New("permission denied")
	status, resp = doRequest(t, app, fiber.MethodGet, routes.ListWorkspacesURL(), "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, ServerErrorSlug, resp.Slug)
}

func TestHandler_ListRuns(t *testing.T) {
	runs := &fakeRuns{runs: []models.Run{{Action: models.ActionApply, State: "Done"}}}
	app := newTestApp(NewHandler(&fakeWorkflows{}, &fakeWorkspaces{}, runs, logger.Discard()))

	status, resp := doRequest(t, app, fiber.MethodGet, routes.APIPrefix+"/runs?limit=5&offset=2&action=destroy", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, resp.Data, 1)
	require.NotNil(t, runs.opts)
	assert.Equal(t, 5, runs.opts.Limit)
	assert.Equal(t, 2, runs.opts.Offset)
	assert.Equal(t, models.ActionDestroy, runs.opts.Action)
}

func TestHandler_ListRunsInvalidInput(t *testing.T) {
	app := newTestApp(NewHandler(&fakeWorkflows{}, &fakeWorkspaces{}, &fakeRuns{}, logger.Discard()))

	for _, query := range []string{"?limit=0", "?offset=-1", "?action=reboot"} {
		t.Run(query, func(t *testing.T) {
			status, resp := doRequest(t, app, fiber.MethodGet, routes.APIPrefix+"/runs"+query, "")
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, InvalidInputSlug, resp.Slug)
		})
	}
}

func TestHandler_ListRunsWithoutHistory(t *testing.T) {
	app := newTestApp(NewHandler(&fakeWorkflows{}, &fakeWorkspaces{}, nil, logger.Discard()))

	status, resp := doRequest(t, app, fiber.MethodGet, routes.ListRunsURL(0), "")

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, ErrorSlug, resp.Slug)
}
