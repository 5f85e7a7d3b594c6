package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/orgaudit/internal/metrics"
	"github.com/specialistvlad/orgaudit/internal/source"
	"github.com/specialistvlad/orgaudit/internal/testutil"
)

var scenarioReport = []string{
	"ORGANIZATIONAL ANALYSIS REPORT",
	"===========================",
	"",
	"1. UNDERPAID MANAGERS",
	"-------------------",
	"Martin Chekov (ID: 124) is underpaid by $15,000.00. Current salary: $45,000.00, required minimum: $60,000.00.",
	"",
	"2. OVERPAID MANAGERS",
	"------------------",
	"No overpaid managers found.",
	"",
	"3. EMPLOYEES WITH LONG REPORTING LINES",
	"-------------------------------------",
	"No employees with excessively long reporting lines found.",
	"",
	"END OF REPORT",
}

// gathered returns the value of the series name{label=value}, or of the
// unlabelled series when label is empty.
func gathered(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := label == ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					matched = true
				}
			}
			if !matched {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("series %s{%s=%q} not found", name, label, value)
	return 0
}

// memSource serves a roster from memory.
type memSource struct {
	data string
	err  error
}

func (m memSource) Open(context.Context) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(strings.NewReader(m.data)), nil
}

func (m memSource) Location() string { return "memory://roster" }

func TestAnalyze_Scenario(t *testing.T) {
	for _, workers := range []int{1, 4} {
		// --- Arrange ---
		a, _, _ := SetupAppTest(t, TestConfig("unused.csv", workers))

		// --- Act ---
		out, err := a.Analyze(context.Background(), testutil.Lines(testutil.ScenarioRoster))

		// --- Assert ---
		require.NoError(t, err)
		if diff := cmp.Diff(scenarioReport, out); diff != "" {
			t.Errorf("workers=%d report mismatch (-want +got):\n%s", workers, diff)
		}
		reg := a.Telemetry().Registry()
		assert.Equal(t, 5.0, gathered(t, reg, "orgaudit_records_total", "outcome", "accepted"))
		assert.Equal(t, 0.0, gathered(t, reg, "orgaudit_records_total", "outcome", "skipped"))
		assert.Equal(t, 5.0, gathered(t, reg, "orgaudit_employees", "", ""))
		assert.Equal(t, 1.0, gathered(t, reg, "orgaudit_findings_total", "section", "underpaid"))
	}
}

func TestAnalyze_HeaderOnly(t *testing.T) {
	a, _, _ := SetupAppTest(t, TestConfig("unused.csv", 2))

	out, err := a.Analyze(context.Background(), []string{testutil.Header})

	require.NoError(t, err)
	assert.Contains(t, out, "No underpaid managers found.")
	assert.Contains(t, out, "No overpaid managers found.")
	assert.Contains(t, out, "No employees with excessively long reporting lines found.")
	assert.Equal(t, 0.0, gathered(t, a.Telemetry().Registry(), "orgaudit_employees", "", ""))
}

func TestAnalyze_MalformedLineOnlyDropsItself(t *testing.T) {
	// --- Arrange ---
	a, _, logs := SetupAppTest(t, TestConfig("unused.csv", 2))
	lines := append(testutil.Lines(testutil.ScenarioRoster), "400,Broken")

	// --- Act ---
	out, err := a.Analyze(context.Background(), lines)

	// --- Assert ---
	require.NoError(t, err)
	if diff := cmp.Diff(scenarioReport, out); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, logs.String(), "Error parsing line: 400,Broken")
	assert.Contains(t, logs.String(), "Skipping invalid roster line.")
	assert.Equal(t, 1.0, gathered(t, a.Telemetry().Registry(), "orgaudit_records_total", "outcome", "skipped"))
}

func TestAnalyze_LongChain(t *testing.T) {
	a, _, _ := SetupAppTest(t, TestConfig("unused.csv", 3))

	out, err := a.Analyze(context.Background(), testutil.ChainRoster(7))

	require.NoError(t, err)
	assert.Contains(t, out,
		"First6 Last6 (ID: 6) has a reporting line that is too long by 1 managers. Current: 5 managers in chain.")
	assert.Contains(t, out,
		"First7 Last7 (ID: 7) has a reporting line that is too long by 2 managers. Current: 6 managers in chain.")
}

func TestAnalyze_CustomPolicy(t *testing.T) {
	cfg := TestConfig("unused.csv", 2)
	cfg.Policy = metrics.Policy{MinSalaryRatio: 1.0, MaxSalaryRatio: 1.1, MaxReportingDepth: 2}
	a, _, _ := SetupAppTest(t, cfg)

	out, err := a.Analyze(context.Background(), testutil.Lines(testutil.ScenarioRoster))

	require.NoError(t, err)
	assert.Contains(t, out,
		"Joe Doe (ID: 123) is overpaid by $9,400.00. Current salary: $60,000.00, maximum allowed: $50,600.00.")
	assert.Contains(t, out,
		"Brett Hardleaf (ID: 305) has a reporting line that is too long by 1 managers. Current: 3 managers in chain.")
}

func TestAnalyze_CycleFails(t *testing.T) {
	a, _, _ := SetupAppTest(t, TestConfig("unused.csv", 2))
	lines := []string{testutil.Header, "1,A,A,100,2", "2,B,B,100,1"}

	_, err := a.Analyze(context.Background(), lines)

	require.ErrorIs(t, err, metrics.ErrManagementCycle)
}

func TestAnalyze_Idempotent(t *testing.T) {
	a, _, _ := SetupAppTest(t, TestConfig("unused.csv", 4))
	lines := testutil.Lines(testutil.ScenarioRoster)

	first, err := a.Analyze(context.Background(), lines)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), lines)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_FromFile(t *testing.T) {
	// --- Arrange ---
	path := testutil.WriteFile(t, "employees.csv", testutil.ScenarioRoster)
	cfg := TestConfig(path, 2)
	cfg.MetricsFile = filepath.Join(t.TempDir(), "orgaudit.prom")
	a, out, logs := SetupAppTest(t, cfg)

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, strings.Join(scenarioReport, "\n")+"\n", out.String())
	assert.Contains(t, logs.String(), "run_id="+a.RunID())
	_, err = uuid.Parse(a.RunID())
	require.NoError(t, err)

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `orgaudit_records_total{outcome="accepted"} 5`)
	assert.Contains(t, string(prom), `orgaudit_phase_duration_seconds{phase="read"}`)
}

func TestRun_WithSource(t *testing.T) {
	a, out, _ := SetupAppTest(t, TestConfig("ignored.csv", 1), WithSource(memSource{data: testutil.ScenarioRoster}))

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, strings.Join(scenarioReport, "\n")+"\n", out.String())
}

func TestRun_MissingFile(t *testing.T) {
	a, out, _ := SetupAppTest(t, TestConfig(filepath.Join(t.TempDir(), "missing.csv"), 1))

	err := a.Run(context.Background())

	require.ErrorIs(t, err, source.ErrNotFound)
	assert.Empty(t, out.String())
}

func TestRun_SourceError(t *testing.T) {
	boom := errors.New("connection reset")
	a, _, _ := SetupAppTest(t, TestConfig("ignored.csv", 1), WithSource(memSource{err: boom}))

	require.ErrorIs(t, a.Run(context.Background()), boom)
}

func TestRun_JSONLogs(t *testing.T) {
	cfg := TestConfig("ignored.csv", 1)
	cfg.LogFormat = "json"
	logs := &testutil.SafeBuffer{}
	a := NewApp(io.Discard, logs, cfg, WithSource(memSource{data: testutil.ScenarioRoster}))

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, logs.String(), `"run_id":"`+a.RunID()+`"`)
}

func TestServerMux(t *testing.T) {
	a, _, _ := SetupAppTest(t, TestConfig("ignored.csv", 1))
	_, err := a.Analyze(context.Background(), testutil.Lines(testutil.ScenarioRoster))
	require.NoError(t, err)

	srv := httptest.NewServer(a.newServerMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "orgaudit_employees 5")
}

func TestStartServer(t *testing.T) {
	a, _, _ := SetupAppTest(t, TestConfig("ignored.csv", 1))

	stop, err := a.startServer(context.Background(), 0)
	require.NoError(t, err)
	stop()
}

func TestNewLogger(t *testing.T) {
	var buf testutil.SafeBuffer
	logger := newLogger("warn", "text", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
