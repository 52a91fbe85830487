package provisioning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVars(t *testing.T) {
	assert.Equal(t, "project_id=\"my-project\"\n", string(RenderVars("my-project")))
	assert.Equal(t, "project_id=\"a\\\"b\"\n", string(RenderVars(`a"b`)))
}

func TestParseVars(t *testing.T) {
	data := []byte(`
# comment
// other comment
project_id = "my-project"
region="us-central1"
count = 3
`)
	vars, err := ParseVars(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"project_id": "my-project",
		"region":     "us-central1",
		"count":      "3",
	}, vars)

	_, err = ParseVars([]byte("project_id\n"))
	assert.Error(t, err)
}

func TestParseVars_SkipsNonScalars(t *testing.T) {
	data := []byte(`
project_id = "my-project"
enabled    = true
zones      = ["us-central1-a", "us-central1-b"]
labels     = { team = "infra" }
network    = null
`)
	vars, err := ParseVars(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"project_id": "my-project", "enabled": "true"}, vars)
}

func TestParseVars_RejectsReferences(t *testing.T) {
	_, err := ParseVars([]byte(`project_id = var.other` + "\n"))
	assert.Error(t, err)
}

func TestRenderVars_RoundTrips(t *testing.T) {
	for _, project := range []string{"my-project", `a"b`, "a${b}", `back\slash`} {
		vars, err := ParseVars(RenderVars(project))
		require.NoError(t, err, project)
		assert.Equal(t, project, vars[VarProjectID])
	}
}

func TestReadProjectID(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "env.tfvars")
	require.NoError(t, os.WriteFile(path, RenderVars("my-project"), 0600))
	project, err := ReadProjectID(path)
	require.NoError(t, err)
	assert.Equal(t, "my-project", project)

	empty := filepath.Join(dir, "empty.tfvars")
	require.NoError(t, os.WriteFile(empty, []byte("region = \"x\"\n"), 0600))
	_, err = ReadProjectID(empty)
	assert.ErrorContains(t, err, "project_id is not set")

	_, err = ReadProjectID(filepath.Join(dir, "missing.tfvars"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
