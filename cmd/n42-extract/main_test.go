package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const fixture = "../../internal/extract/testdata/report.xml"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func copyFixture(t *testing.T, dst string) {
	t.Helper()
	b, err := os.ReadFile(fixture)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, b, 0o644))
}

func TestBatch_DefaultWorkbook(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "reports")
	copyFixture(t, filepath.Join(dir, "a.xml"))
	copyFixture(t, filepath.Join(dir, "nested", "b.xml"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte("<n42"), 0o644))

	_, stderr, err := execute(t, "batch", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote 2 rows")

	f, err := excelize.OpenFile(filepath.Join(base, "n42_extract.xlsx"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "10.0000 ± 2.0000", rows[1][0])
	assert.Equal(t, "<MDA", rows[1][1])
}

func TestBatch_FailFastAndJSON(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, filepath.Join(dir, "a.xml"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.xml"), []byte("<n42"), 0o644))

	out := filepath.Join(t.TempDir(), "rows.json")
	_, _, err := execute(t, "batch", "--dir", dir, "--format", "json", "--out", out, "--fail-fast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.xml")
	assert.NoFileExists(t, out)

	stdout, _, err := execute(t, "batch", "--dir", dir, "--format", "json", "--out", "-", "--sigma", "6")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "<MDA", rows[0]["alpha_activity"], "10 < 6 x 2")
}

func TestBatch_HiddenDocumentsIncludedByDefault(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, filepath.Join(dir, "a.xml"))
	copyFixture(t, filepath.Join(dir, ".b.xml"))
	copyFixture(t, filepath.Join(dir, ".cache", "c.xml"))

	stdout, _, err := execute(t, "batch", "--dir", dir, "--format", "json", "--out", "-")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	assert.Len(t, rows, 3)

	stdout, _, err = execute(t, "batch", "--dir", dir, "--format", "json", "--out", "-", "--skip-hidden")
	require.NoError(t, err)
	rows = nil
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	assert.Len(t, rows, 1)
}

func TestBatch_Errors(t *testing.T) {
	_, _, err := execute(t, "batch")
	assert.Error(t, err, "--dir is required")

	_, _, err = execute(t, "batch", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no measurement documents found")

	_, _, err = execute(t, "batch", "--dir", t.TempDir(), "--sigma", "-1")
	assert.Error(t, err)

	_, _, err = execute(t, "batch", "--dir", t.TempDir(), "--out", "-")
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	stdout, _, err := execute(t, "file", fixture)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Alpha Activity (Bq)")
	assert.Contains(t, stdout, "25.5000 ± 1.2500")

	stdout, _, err = execute(t, "file", "--format", "json", fixture, fixture)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	assert.Len(t, rows, 2)

	_, _, err = execute(t, "file", "missing.xml")
	assert.Error(t, err)
}

func TestRecordAndListRuns(t *testing.T) {
	t.Setenv("N42_DB_URL", "file:"+filepath.Join(t.TempDir(), "history.db"))
	dir := t.TempDir()
	copyFixture(t, filepath.Join(dir, "a.xml"))

	_, _, err := execute(t, "batch", "--dir", dir, "--record", "--format", "json", "--out", filepath.Join(t.TempDir(), "x.json"))
	require.NoError(t, err)

	stdout, _, err := execute(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "COMPLETED")
	assert.Contains(t, stdout, dir)

	_, _, err = execute(t, "runs", "not-a-uuid")
	assert.Error(t, err)
}
