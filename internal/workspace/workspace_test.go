package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/gcpiac/internal/logger"
)

func newManager(t *testing.T, opts InventoryOptions) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "clients"), opts, logger.Discard())
	require.NoError(t, err)
	return m
}

func TestCreate(t *testing.T) {
	m := newManager(t, InventoryOptions{})

	ws, err := m.Create("vm-1", "10.0.0.5")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(m.Root(), "vm-1"), ws.Dir)
	assert.DirExists(t, ws.ArtifactDir)

	content, err := os.ReadFile(ws.InventoryPath)
	require.NoError(t, err)
	assert.Equal(t, "[all]\nvm-1 ansible_host=10.0.0.5\n", string(content))

	info, err := os.Stat(ws.InventoryPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCreate_TwiceOverwrites(t *testing.T) {
	m := newManager(t, InventoryOptions{})

	_, err := m.Create("vm-1", "10.0.0.5")
	require.NoError(t, err)
	ws, err := m.Create("vm-1", "10.0.0.9")
	require.NoError(t, err)

	content, err := os.ReadFile(ws.InventoryPath)
	require.NoError(t, err)
	assert.Equal(t, "[all]\nvm-1 ansible_host=10.0.0.9\n", string(content))
}

func TestCreate_KeyedLayout(t *testing.T) {
	m := newManager(t, InventoryOptions{Layout: LayoutKeyed, User: "ansible", KeyPath: "/keys/.ansible_rsa"})

	ws, err := m.Create("vm-1", "10.0.0.5")
	require.NoError(t, err)

	content, err := os.ReadFile(ws.InventoryPath)
	require.NoError(t, err)
	assert.Equal(t, "[all]\n10.0.0.5 ansible_user=ansible ansible_ssh_private_key_file=/keys/.ansible_rsa\n", string(content))
	assert.Equal(t, "10.0.0.5", ws.Host())
}

func TestCreate_CustomTemplate(t *testing.T) {
	tmplPath := filepath.Join(t.TempDir(), "inventory.tmpl")
	require.NoError(t, os.WriteFile(tmplPath, []byte("[web]\n{{ .Name | upper }} ansible_host={{ .IP }}\n"), 0600))
	m := newManager(t, InventoryOptions{TemplateFile: tmplPath})

	ws, err := m.Create("vm-1", "10.0.0.5")
	require.NoError(t, err)

	content, err := os.ReadFile(ws.InventoryPath)
	require.NoError(t, err)
	assert.Equal(t, "[web]\nVM-1 ansible_host=10.0.0.5\n", string(content))
}

func TestCreate_WriteFailure(t *testing.T) {
	m := newManager(t, InventoryOptions{})
	ws := m.workspace("vm-1")
	require.NoError(t, os.MkdirAll(ws.InventoryPath, 0750), "a directory in place of the inventory makes the write fail")

	_, err := m.Create("vm-1", "10.0.0.5")
	assert.Error(t, err)
}

func TestCreate_InvalidNames(t *testing.T) {
	m := newManager(t, InventoryOptions{})
	for _, name := range []string{"", " ", ".", "..", "a/b", `a\b`} {
		_, err := m.Create(name, "10.0.0.5")
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestNewManager_UnknownLayout(t *testing.T) {
	_, err := NewManager(t.TempDir(), InventoryOptions{Layout: "yaml"}, logger.Discard())
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	m := newManager(t, InventoryOptions{})
	ws, err := m.Create("vm-1", "10.0.0.5")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(ws.ArtifactDir, "rc"), []byte("0"), 0600))

	require.NoError(t, m.Remove("vm-1"))
	assert.NoDirExists(t, ws.Dir)
}

func TestRemove_MissingIsNoop(t *testing.T) {
	m := newManager(t, InventoryOptions{})
	assert.NoError(t, m.Remove("never-created"))
	assert.NoError(t, m.Remove("never-created"))
}

func TestList(t *testing.T) {
	m := newManager(t, InventoryOptions{})

	list, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, list, "missing root lists nothing")

	_, err = m.Create("vm-b", "10.0.0.6")
	require.NoError(t, err)
	_, err = m.Create("vm-a", "10.0.0.5")
	require.NoError(t, err)

	list, err = m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "vm-a", list[0].Name)
	assert.Equal(t, "10.0.0.5", list[0].Host())
	assert.Equal(t, "vm-b", list[1].Name)
}
