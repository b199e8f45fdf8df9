package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rfm-segments/internal/columns"
	"github.com/Veraticus/rfm-segments/internal/common"
	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/Veraticus/rfm-segments/internal/service"
	"github.com/Veraticus/rfm-segments/internal/sheets"
)

const branchCSV = `Customer ID,Order Date,Amount,Branch
C1,01/01/2024,100,Makati
C1,15/01/2024,50,Makati
C2,10/01/2024,20,Cebu
`

// testEnv is an isolated config file and database for one test.
type testEnv struct {
	t      *testing.T
	dir    string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	content := "user: tester\ndatabase:\n  path: " + filepath.Join(dir, "rfm.db") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o600))
	return &testEnv{t: t, dir: dir, config: cfg}
}

// writeFile creates a file in the test directory and returns its path.
func (e *testEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes the root command with stdin and returns what it printed.
func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	viper.Reset()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.config, "--env-file", ""}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	require.NoError(e.t, err)
	return out
}

// analyzeJSON runs analyze --json and decodes the document.
func (e *testEnv) analyzeJSON(args ...string) analyzeOutput {
	e.t.Helper()
	out := e.mustRun(append([]string{"analyze", "--json"}, args...)...)
	var doc analyzeOutput
	require.NoError(e.t, json.Unmarshal([]byte(out), &doc))
	return doc
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile("march.csv", branchCSV)

	doc := env.analyzeJSON(path)

	require.NotNil(t, doc.Result)
	assert.Equal(t, model.RowStats{Read: 3, Accepted: 3}, doc.Result.Stats)
	assert.Equal(t, 1, doc.Result.Snapshot.Count(model.SegmentLoyal))
	assert.Equal(t, 1, doc.Result.Snapshot.Count(model.SegmentNew))
	assert.Equal(t, model.SegmentLoyal, doc.Segment)
	require.Len(t, doc.Customers, 1)
	assert.Equal(t, "C1", doc.Customers[0].ID)
	assert.Nil(t, doc.Comparison.Historical)
	assert.Equal(t, 2, doc.Comparison.Current.TotalCustomers)
	assert.Empty(t, doc.SavedID)
}

func TestAnalyzeCommand_Stdin(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(branchCSV, "analyze", "--json", "-")
	require.NoError(t, err)

	var doc analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc.Result.Snapshot.Len())
}

func TestAnalyzeCommand_Location(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile("march.csv", branchCSV)

	doc := env.analyzeJSON("--location", "Cebu", path)

	assert.Equal(t, 2, doc.Result.Stats.FilteredOut)
	assert.Equal(t, 1, doc.Result.Snapshot.Len())
	assert.Equal(t, model.SegmentNew, doc.Segment)
}

func TestAnalyzeCommand_Text(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile("march.csv", branchCSV)

	out := env.mustRun("analyze", "--no-progress", "--save", path)

	assert.Contains(t, out, "RFM analysis of march.csv")
	assert.Contains(t, out, "Total Customers")
	assert.Contains(t, out, "Loyal Customers (1 shown)")
	assert.Contains(t, out, "Convert New Buyers")
	assert.Contains(t, out, "Saved to history as")
}

func TestAnalyzeCommand_SaveAndCompare(t *testing.T) {
	env := newTestEnv(t)
	first := env.writeFile("feb.csv", "customer,date,total\nC1,01/02/2024,100\n")
	second := env.writeFile("march.csv", branchCSV)

	saved := env.analyzeJSON("--save", first)
	require.NotEmpty(t, saved.SavedID)

	doc := env.analyzeJSON("--compare", "latest", second)

	require.NotNil(t, doc.Comparison.Historical)
	assert.Equal(t, 1, doc.Comparison.Historical.TotalCustomers)
	require.NotNil(t, doc.Comparison.TotalCustomersDelta)
	assert.InDelta(t, 100.0, *doc.Comparison.TotalCustomersDelta, 1e-9)
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	env := newTestEnv(t)
	good := env.writeFile("good.csv", branchCSV)
	bad := env.writeFile("bad.csv", "Name,Order Date\nalice,01/01/2024\n")

	tests := []struct {
		check func(t *testing.T, err error)
		name  string
		args  []string
	}{
		{
			name: "missing columns",
			args: []string{"analyze", bad},
			check: func(t *testing.T, err error) {
				t.Helper()
				var userErr *common.UserError
				require.ErrorAs(t, err, &userErr)
				assert.Equal(t, columns.MappingReason, userErr.UserMessage)
				assert.ErrorIs(t, err, common.ErrColumnMappingFailed)
			},
		},
		{
			name: "missing file",
			args: []string{"analyze", filepath.Join(env.dir, "nope.csv")},
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.ErrorIs(t, err, os.ErrNotExist)
			},
		},
		{
			name: "unknown comparison",
			args: []string{"analyze", "--compare", "missing-id", good},
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.ErrorIs(t, err, common.ErrNotFound)
			},
		},
		{
			name: "nothing to compare with",
			args: []string{"analyze", "--compare", "latest", good},
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.ErrorIs(t, err, common.ErrNotFound)
			},
		},
		{
			name: "unknown segment",
			args: []string{"analyze", "--segment", "Whales", good},
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.ErrorContains(t, err, "unknown segment")
			},
		},
		{
			name: "negative limit",
			args: []string{"analyze", "--limit", "0", good},
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.ErrorContains(t, err, "--limit must be positive")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run("", tt.args...)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLocationsCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("locations", env.writeFile("march.csv", branchCSV))
	assert.Contains(t, out, `branch column "Branch"`)
	assert.Contains(t, out, "  Cebu\n")
	assert.Contains(t, out, "  Makati\n")
	assert.Less(t, strings.Index(out, "Cebu"), strings.Index(out, "Makati"))

	out = env.mustRun("locations", env.writeFile("plain.csv", "customer,date,total\nC1,01/02/2024,100\n"))
	assert.Contains(t, out, "No location column found")
}

func TestSettingsCommands(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("settings", "show")
	assert.Contains(t, out, "Settings for tester")
	assert.Contains(t, out, "≤ 30 days")

	out = env.mustRun("settings", "set", "--champion-recency", "14")
	assert.Contains(t, out, "Settings updated")
	assert.Contains(t, out, "≤ 14 days")
	assert.Contains(t, out, "≥ 5 visits")

	_, err := env.run("", "settings", "set", "--at-risk-recency", "0")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, model.ErrInvalidSettings)

	_, err = env.run("", "settings", "set")
	assert.ErrorContains(t, err, "nothing to change")

	out = env.mustRun("settings", "show")
	assert.Contains(t, out, "≤ 14 days")
	assert.Contains(t, out, "> 90 days")

	out = env.mustRun("settings", "reset")
	assert.Contains(t, out, "≤ 30 days")
}

func TestSettingsApplyToAnalysis(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile("march.csv", branchCSV)

	env.mustRun("settings", "set", "--champion-frequency", "2")
	doc := env.analyzeJSON(path)

	assert.Equal(t, 1, doc.Result.Snapshot.Count(model.SegmentChampions))
	assert.Equal(t, 0, doc.Result.Snapshot.Count(model.SegmentLoyal))
}

func TestHistoryCommands(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile("march.csv", branchCSV)

	out := env.mustRun("history", "list")
	assert.Contains(t, out, "No saved analyses yet.")

	first := env.analyzeJSON("--save", path)
	env.analyzeJSON("--save", path)

	out = env.mustRun("history", "list")
	assert.Contains(t, out, "Analysis history for tester")
	assert.Contains(t, out, first.SavedID)
	assert.Contains(t, out, "march.csv")

	out = env.mustRun("history", "show", first.SavedID, "--segment", "New Customers")
	assert.Contains(t, out, "New Customers (1 shown)")
	assert.Contains(t, out, "C2")

	out, err := env.run("n\n", "history", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "History left unchanged.")

	out = env.mustRun("history", "clear", "--yes")
	assert.Contains(t, out, "Removed 2 saved analyses")

	_, err = env.run("", "history", "show", first.SavedID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestHistoryIsPerUser(t *testing.T) {
	env := newTestEnv(t)
	doc := env.analyzeJSON("--save", env.writeFile("march.csv", branchCSV))

	out := env.mustRun("--user", "someone-else", "history", "list")
	assert.Contains(t, out, "No saved analyses yet.")

	_, err := env.run("", "--user", "someone-else", "history", "show", doc.SavedID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCompareCommand(t *testing.T) {
	env := newTestEnv(t)
	older := env.analyzeJSON("--save", env.writeFile("feb.csv", "customer,date,total\nC1,01/02/2024,100\n"))
	env.analyzeJSON("--save", env.writeFile("march.csv", branchCSV))

	out := env.mustRun("compare", "latest", older.SavedID)
	assert.Contains(t, out, "march.csv")
	assert.Contains(t, out, "feb.csv")
	assert.Contains(t, out, "+100.0%")

	_, err := env.run("", "compare", "latest")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)
	doc := env.analyzeJSON("--save", env.writeFile("march.csv", branchCSV))

	mock := sheets.NewMockWriter()
	prev := newExporter
	newExporter = func(context.Context) (service.SnapshotExporter, error) { return mock, nil }
	t.Cleanup(func() { newExporter = prev })

	out := env.mustRun("export", doc.SavedID, "--title", "March")
	assert.Contains(t, out, "Exported "+doc.SavedID)

	calls := mock.GetWriteCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "March", calls[0].Title)
	assert.Equal(t, 2, calls[0].Snapshot.Len())

	env.mustRun("export", "latest")
	calls = mock.GetWriteCalls()
	require.Len(t, calls, 2)
	assert.True(t, strings.HasPrefix(calls[1].Title, "RFM Segments: march.csv"))

	mock.SetWriteError(errors.New("quota exceeded"))
	_, err := env.run("", "export", "latest")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestExportCommand_NotConfigured(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
	} {
		t.Setenv(key, "")
	}
	env := newTestEnv(t)
	doc := env.analyzeJSON("--save", env.writeFile("march.csv", branchCSV))

	_, err := env.run("", "export", doc.SavedID)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestMigrateCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("migrate", "--status")
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "Latest version:  2")
	assert.Contains(t, out, "Run 'rfm migrate' to upgrade.")

	out = env.mustRun("migrate")
	assert.Contains(t, out, "schema version 2")

	out = env.mustRun("migrate", "--status")
	assert.Contains(t, out, "Current version: 2")
	assert.NotContains(t, out, "to upgrade")
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("version")
	assert.Equal(t, "rfm version dev\n", out)
}

func TestDrillSegment(t *testing.T) {
	snap := model.NewSnapshot()
	snap.Segments[model.SegmentAtRisk] = model.Segment{
		Customers: []model.CustomerSummary{{ID: "A"}, {ID: "B"}},
	}

	tests := []struct {
		name    string
		flag    string
		want    model.SegmentName
		wantErr bool
	}{
		{name: "default is largest", want: model.SegmentAtRisk},
		{name: "explicit", flag: "Hibernating", want: model.SegmentHibernating},
		{name: "unknown", flag: "champions", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := drillSegment(tt.flag, snap)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyzeHelpNamesRecognizedHeaders(t *testing.T) {
	headers := []string{"Customer_ID", "InvoiceDate", "Total Amount"}
	for _, h := range headers {
		assert.Contains(t, analyzeCmd().Long, `"`+h+`"`)
	}

	m, err := columns.Detect(headers)
	require.NoError(t, err)
	assert.Equal(t, "Customer_ID", m.CustomerID)
	assert.Equal(t, "InvoiceDate", m.Date)
	assert.Equal(t, "Total Amount", m.Amount)
}
