package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	validateFile = ""

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"request_body"`)
	assert.Contains(t, out, `"$id"`)
}

func TestSchemaCommand_Validate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"method\":\"GET\"}\n"), 0644))

	out, stderr, err := execute(t, "schema", "--validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "1 of 1 records invalid")
	assert.Contains(t, stderr, "line 1:")
}

func TestRootCommand_RequiresInput(t *testing.T) {
	_, _, err := execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"input" not set`)
}

func TestRootCommand_MissingCapture(t *testing.T) {
	_, _, err := execute(t, "-i", filepath.Join(t.TempDir(), "missing.pcapng"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input capture")
}

func TestRootCommand_BadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.pcapng")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, _, err := execute(t, "-i", path, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format 'xml'")
}
