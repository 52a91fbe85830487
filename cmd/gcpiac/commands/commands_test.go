package commands

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/gcpiac/internal/api/v1/handlers"
	"github.com/celestiaorg/gcpiac/internal/app"
	"github.com/celestiaorg/gcpiac/internal/config"
	"github.com/celestiaorg/gcpiac/internal/constants"
	"github.com/celestiaorg/gcpiac/internal/display"
	"github.com/celestiaorg/gcpiac/internal/keygen"
	"github.com/celestiaorg/gcpiac/internal/logger"
	"github.com/celestiaorg/gcpiac/internal/orchestrator"
	"github.com/celestiaorg/gcpiac/internal/workspace"
)

// runCLI executes the command line with args and returns what it displayed
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// testRoot returns an empty environment root and isolates the test from the caller's
// environment variables
func testRoot(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		constants.EnvConfigFile, constants.EnvRoot, constants.EnvEngine, constants.EnvServer,
		constants.EnvTerraformBinary, constants.EnvDBDSN,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(constants.EnvDBDriver, config.DriverNone)
	t.Setenv(logger.EnvLogLevel, "error")
	return t.TempDir()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func serviceAccountFile(t *testing.T, project string) string {
	t.Helper()
	kp, err := keygen.GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     project,
		"private_key_id": "abc123",
		"private_key":    string(kp.PrivateKey),
		"client_email":   "deployer@" + project + ".iam.gserviceaccount.com",
		"token_uri":      "https://oauth2.googleapis.com/token",
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sa.json")
	writeFile(t, path, string(data))
	return path
}

func TestApplyTest_MissingInputs(t *testing.T) {
	root := testRoot(t)

	out, err := runCLI(t, "--root", root, "apply", "--test")

	assert.ErrorIs(t, err, ErrReported)
	assert.Contains(t, out, "service account not found")
	assert.Contains(t, out, "playbook not found")
}

func TestApplyTest_Ready(t *testing.T) {
	root := testRoot(t)
	cfg := config.Default()
	cfg.Root = root
	paths := cfg.Paths()
	writeFile(t, paths.Credentials, "{}")
	writeFile(t, paths.VarsFile, `project_id="my-project"`)
	writeFile(t, paths.PrivateKey, "key")
	writeFile(t, paths.Playbook, "- hosts: all\n")

	out, err := runCLI(t, "--root", root, "run", "-t")

	require.NoError(t, err)
	assert.Contains(t, out, "playbook found at "+paths.Playbook)
	assert.Contains(t, out, "Apply would run terraform")
	assert.Equal(t, 1, strings.Count(out, "Apply would run terraform"))
}

func TestInit_RecordsHistory(t *testing.T) {
	trueBin, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true is not available")
	}
	root := testRoot(t)
	t.Setenv(constants.EnvDBDriver, config.DriverSQLite)
	t.Setenv(constants.EnvTerraformBinary, trueBin)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "terraform"), 0750))

	sa := serviceAccountFile(t, "my-project")
	_, err = runCLI(t, "--root", root, "init", "-s", sa)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Root = root
	paths := cfg.Paths()
	assert.FileExists(t, paths.Credentials)
	assert.FileExists(t, paths.PrivateKey)
	assert.FileExists(t, paths.PublicKey())
	vars, err := os.ReadFile(paths.VarsFile)
	require.NoError(t, err)
	assert.Contains(t, string(vars), `project_id="my-project"`)

	// Existing files are kept on a second run
	out, err := runCLI(t, "--root", root, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Service account file already exists")
	assert.Contains(t, out, "SSH key already exists")

	out, err = runCLI(t, "--root", root, "history", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "init")
	assert.Contains(t, out, "Done")
}

func TestInit_MissingServiceAccount(t *testing.T) {
	root := testRoot(t)

	_, err := runCLI(t, "--root", root, "init")

	assert.ErrorIs(t, err, ErrReported)
}

func TestDestroy_PlanFailure(t *testing.T) {
	falseBin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false is not available")
	}
	root := testRoot(t)
	t.Setenv(constants.EnvTerraformBinary, falseBin)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "terraform"), 0750))

	out, err := runCLI(t, "--root", root, "destroy")

	assert.ErrorIs(t, err, ErrReported)
	assert.Contains(t, out, "plan error")
}

func TestWorkspaces(t *testing.T) {
	root := testRoot(t)

	out, err := runCLI(t, "--root", root, "workspaces")
	require.NoError(t, err)
	assert.Contains(t, out, "No workspaces")

	cfg := config.Default()
	cfg.Root = root
	manager, err := workspace.NewManager(cfg.Paths().ClientsDir, workspace.InventoryOptions{}, logger.Discard())
	require.NoError(t, err)
	_, err = manager.Create("vm-1", "10.0.0.5")
	require.NoError(t, err)

	out, err = runCLI(t, "--root", root, "workspaces")
	require.NoError(t, err)
	assert.Contains(t, out, "vm-1")
	assert.Contains(t, out, "10.0.0.5")
}

func TestHistory_Disabled(t *testing.T) {
	root := testRoot(t)

	_, err := runCLI(t, "--root", root, "history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run history is disabled")
}

type staticWorkspaces []workspace.Workspace

func (s staticWorkspaces) List() ([]workspace.Workspace, error) { return s, nil }

func TestWorkspaces_Remote(t *testing.T) {
	root := testRoot(t)
	log := logger.Discard()
	fiberApp := app.NewApp(app.Options{
		Handler: handlers.NewHandler(nil, staticWorkspaces{{Name: "remote-vm"}}, nil, log),
		Log:     log,
	})
	server := httptest.NewServer(adaptor.FiberApp(fiberApp))
	defer server.Close()

	out, err := runCLI(t, "--root", root, "--server", server.URL, "workspaces")

	require.NoError(t, err)
	assert.Contains(t, out, "remote-vm")
}

func TestRemoteRejectsLocalOnlyCommands(t *testing.T) {
	root := testRoot(t)
	t.Setenv(constants.EnvServer, "http://localhost:1")

	_, err := runCLI(t, "--root", root, "init")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrReported)

	_, err = runCLI(t, "--root", root, "apply", "--test")
	assert.Error(t, err)
}

func TestInvalidConfiguration(t *testing.T) {
	root := testRoot(t)

	_, err := runCLI(t, "--root", root, "--engine", "ansible", "apply")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReported)
	assert.Contains(t, err.Error(), "unknown engine")
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	c := &cli{display: display.New(&out, false)}

	require.NoError(t, c.report(&orchestrator.Result{State: orchestrator.StateDone, Summary: []string{"Removed workspace for instance vm-1"}}))
	assert.NotContains(t, out.String(), "Removed workspace for instance vm-1", "the orchestrator already showed the summary")

	err := c.report(&orchestrator.Result{Action: orchestrator.ActionApply, State: orchestrator.StateFailed, FailedAt: orchestrator.StateWaitingReady})
	assert.ErrorIs(t, err, ErrReported)
	assert.Contains(t, err.Error(), "WaitingReady")
}
