package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGo(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("package q\n\n"+body), 0o600))
}

func TestRunAcceptsMarkedStatements(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "const QGet = `--sql 267e228f-a468-413a-8ca5-370ceadf4c9a\nselect 1;\n`\n\nconst Trigger = \"delete\"\n")

	var stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{dir}, &stderr))
	assert.Empty(t, stderr.String())
}

func TestRunFlagsMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "const QBad = `\nupdate donations set status = 'Committed';\n`\n")

	var stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{dir}, &stderr))
	assert.Contains(t, stderr.String(), "QBad")
}

func TestRunFlagsDuplicateMarker(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "const QOne = `--sql 267e228f-a468-413a-8ca5-370ceadf4c9a\nselect 1;\n`\n")
	writeGo(t, dir, "b.go", "const QTwo = `--sql 267e228f-a468-413a-8ca5-370ceadf4c9a\nselect 2;\n`\n")

	var stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{dir}, &stderr))
	assert.Contains(t, stderr.String(), "marker already used by QOne")
}

func TestRunSkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a_test.go", "const QFixture = `select 1;`\n")

	assert.Equal(t, 0, run([]string{dir}, &bytes.Buffer{}))
}
