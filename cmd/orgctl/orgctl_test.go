package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/org-hierarchy/internal/config"
	"github.com/spec-kit/org-hierarchy/internal/repository/memstore"
	"github.com/spec-kit/org-hierarchy/internal/service"
)

func testEnv(t *testing.T) *env {
	t.Helper()
	cfg := &config.Config{Import: config.ImportConfig{MaxRows: 100}}
	return newEnv(cfg, zaptest.NewLogger(t), memstore.New(), func() {})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const orgCSV = "name,email,title,manager_email\n" +
	"Bob,bob@example.com,Engineer,alice@example.com\n" +
	"Alice,alice@example.com,CEO,\n"

func TestRunImportDryRunWritesNothing(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()
	var out bytes.Buffer

	err := runImport(ctx, e, importOptions{file: writeFile(t, "org.csv", orgCSV)}, &out)
	require.NoError(t, err)

	var result service.ImportResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.True(t, result.DryRun)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, result.PlannedOrder)
	assert.Empty(t, result.CreatedEmployeeIDs)

	out.Reset()
	require.NoError(t, runAuditList(ctx, e, service.AuditLogQuery{}, &out))
	assert.Contains(t, out.String(), `"total": 0`)
}

func TestRunImportApplyRecordsAudit(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()
	actor := "5d4c3b2a-1f0e-4d9c-8b7a-6f5e4d3c2b1a"
	var out bytes.Buffer

	err := runImport(ctx, e, importOptions{file: writeFile(t, "org.csv", orgCSV), apply: true, actor: actor}, &out)
	require.NoError(t, err)

	var result service.ImportResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 2, result.SuccessfulImports)
	assert.Len(t, result.CreatedEmployeeIDs, 2)

	out.Reset()
	require.NoError(t, runAuditList(ctx, e, service.AuditLogQuery{ChangedByUserID: actor, Order: "asc"}, &out))

	var page struct {
		Items []struct {
			EntityID   string `json:"entity_id"`
			ChangeType string `json:"change_type"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &page))
	require.Equal(t, 2, page.Total)
	assert.Equal(t, result.CreatedEmployeeIDs[0], page.Items[0].EntityID)
	assert.Equal(t, "CREATE", page.Items[0].ChangeType)
}

func TestRunImportRejectedRowsExitWithValidationCode(t *testing.T) {
	e := testEnv(t)
	csv := "name,email,manager_email\n" +
		"A,a@example.com,b@example.com\n" +
		"B,b@example.com,a@example.com\n"
	var out bytes.Buffer

	err := runImport(context.Background(), e, importOptions{file: writeFile(t, "cycle.csv", csv), apply: true}, &out)
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, out.String(), "circular manager chain")
}

func TestRunImportFileErrors(t *testing.T) {
	e := testEnv(t)

	err := runImport(context.Background(), e, importOptions{file: filepath.Join(t.TempDir(), "missing.csv")}, &bytes.Buffer{})
	assert.Equal(t, exitUsage, exitCode(err))

	err = runImport(context.Background(), e, importOptions{file: writeFile(t, "org.txt", orgCSV)}, &bytes.Buffer{})
	assert.Equal(t, exitValidation, exitCode(err))

	e.cfg.Import.MaxRows = 1
	err = runImport(context.Background(), e, importOptions{file: writeFile(t, "org.csv", orgCSV)}, &bytes.Buffer{})
	assert.Equal(t, exitValidation, exitCode(err))
}

func TestRunImportRejectsNonUUIDActor(t *testing.T) {
	e := testEnv(t)
	var out bytes.Buffer

	err := runImport(context.Background(), e, importOptions{file: writeFile(t, "org.csv", orgCSV), apply: true, actor: "cli-user"}, &out)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.ErrorContains(t, err, "not a UUID")
	assert.Empty(t, out.String())

	out.Reset()
	require.NoError(t, runAuditList(context.Background(), e, service.AuditLogQuery{}, &out))
	assert.Contains(t, out.String(), `"total": 0`)
}

func TestRunAuditListRejectsBadFilter(t *testing.T) {
	err := runAuditList(context.Background(), testEnv(t), service.AuditLogQuery{EntityType: "TICKET"}, &bytes.Buffer{})
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestTemplateCommandWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"template", "--out", path})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "name", rows[0][0])
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, exitDB, exitCode(withCode(exitDB, errors.New("down"))))
	assert.NoError(t, withCode(exitDB, nil))
}
