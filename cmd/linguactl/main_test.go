package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/linguastore"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-bucket-pages", "1"}, args...), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func decode[T any](t *testing.T, r result) T {
	t.Helper()
	require.Equal(t, exitOK, r.code, r.stderr)
	var v T
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &v))
	return v
}

func TestRun_ContentCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "learn.db")

	c0 := decode[linguastore.Content](t, runCLI(t, "-db", db, "add-content", "-text", "hola", "-scent", "citrus"))
	c1 := decode[linguastore.Content](t, runCLI(t, "-db", db, "add-content", "-text", "adios", "-image", "img"))
	assert.Equal(t, uint64(0), c0.ID)
	assert.Equal(t, uint64(1), c1.ID)

	got := decode[linguastore.Content](t, runCLI(t, "-db", db, "get-content", "0"))
	assert.Equal(t, c0, got)

	hits := decode[[]linguastore.Content](t, runCLI(t, "-db", db, "search-text", "hola"))
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(0), hits[0].ID)

	scents := decode[[]linguastore.Content](t, runCLI(t, "-db", db, "filter-scent", "pine"))
	assert.Empty(t, scents)

	updated := decode[linguastore.Content](t, runCLI(t, "-db", db, "update-content", "1", "-text", "hasta luego"))
	assert.Equal(t, "hasta luego", updated.Text)
	assert.NotNil(t, updated.UpdatedAt)

	sorted := decode[[]linguastore.Content](t, runCLI(t, "-db", db, "sort-created"))
	assert.Len(t, sorted, 2)

	decode[linguastore.Content](t, runCLI(t, "-db", db, "delete-content", "0"))

	r := runCLI(t, "-db", db, "get-content", "0")
	assert.Equal(t, exitNotFound, r.code)
	assert.Contains(t, r.stderr, "Language learning content with id=0 not found")

	all := decode[[]linguastore.Content](t, runCLI(t, "-db", db, "list-content"))
	require.Len(t, all, 1)
	assert.Equal(t, uint64(1), all[0].ID)
}

func TestRun_GroupCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "learn.db")

	g := decode[linguastore.StudyGroup](t, runCLI(t, "-db", db, "create-group", "-name", "A1", "-members", "alice"))
	assert.Equal(t, []string{"alice"}, g.Members)

	g = decode[linguastore.StudyGroup](t, runCLI(t, "-db", db, "update-group", "0", "-name", "A1", "-members", "alice, bob"))
	assert.Equal(t, uint64(0), g.ID)
	assert.Equal(t, []string{"alice", "bob"}, g.Members)

	groups := decode[[]linguastore.StudyGroup](t, runCLI(t, "-db", db, "list-groups"))
	assert.Equal(t, []linguastore.StudyGroup{g}, groups)

	decode[linguastore.StudyGroup](t, runCLI(t, "-db", db, "delete-group", "0"))
	assert.Equal(t, exitNotFound, runCLI(t, "-db", db, "get-group", "0").code)

	st := decode[linguastore.Stats](t, runCLI(t, "-db", db, "stats"))
	assert.Equal(t, uint64(1), st.NextID)
	assert.Equal(t, uint64(0), st.StudyGroups)
}

func TestRun_BackupRestore(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "learn.db")
	target := "file://" + filepath.ToSlash(filepath.Join(dir, "backups"))

	decode[linguastore.Content](t, runCLI(t, "-db", db, "add-content", "-text", "hola"))

	info := decode[linguastore.BackupInfo](t, runCLI(t, "-db", db, "backup", target, "b1"))
	assert.Equal(t, "b1", info.Name)

	infos := decode[[]linguastore.BackupInfo](t, runCLI(t, "list-backups", target))
	require.Len(t, infos, 1)
	assert.Equal(t, info.ID, infos[0].ID)

	restored := filepath.Join(dir, "restored.db")
	decode[linguastore.BackupInfo](t, runCLI(t, "-db", restored, "restore", target, "b1"))

	got := decode[linguastore.Content](t, runCLI(t, "-db", restored, "get-content", "0"))
	assert.Equal(t, "hola", got.Text)

	r := runCLI(t, "-db", restored, "restore", target, "b1")
	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "already exists")
}

func TestRun_Usage(t *testing.T) {
	db := filepath.Join(t.TempDir(), "learn.db")

	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{"-db", db}},
		{"unknown command", []string{"-db", db, "explode"}},
		{"bad id", []string{"-db", db, "get-content", "abc"}},
		{"missing id", []string{"-db", db, "delete-group"}},
		{"extra args", []string{"-db", db, "list-content", "x"}},
		{"unknown codec", []string{"-db", db, "-codec", "xml", "stats"}},
		{"bad target", []string{"list-backups", "ftp://host/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, r.code)
			assert.Contains(t, r.stderr, "usage")
		})
	}
}

func TestRun_CodecMismatch(t *testing.T) {
	db := filepath.Join(t.TempDir(), "learn.db")

	decode[linguastore.Stats](t, runCLI(t, "-db", db, "stats"))

	r := runCLI(t, "-db", db, "-codec", "json", "stats")
	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "layout mismatch")
}
