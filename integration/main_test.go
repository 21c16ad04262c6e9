//go:build integration
// +build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/stage-engine/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")
var runsFlag = flag.Int("runs", 1, "Number of times to run each test suite (useful for testing non-deterministic behavior)")
var pcFlag = flag.String("pc", "", "Override the PC for all test cases (e.g., 'rook', 'vesper')")

func TestMain(m *testing.M) {
	fmt.Printf("Running Stage Engine Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

func apiBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func newRunner(mode runner.ErrorHandlingMode) *runner.Runner {
	r := runner.NewRunner(apiBaseURL())
	r.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 120)) * time.Second
	r.ErrorHandlingMode = mode
	r.PCOverride = *pcFlag
	r.Logger = func(format string, args ...interface{}) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

func TestIntegrationSuites(t *testing.T) {
	if *caseFlag != "" {
		t.Skip("Skipping bulk run (-case was given)")
	}
	testRunner := newRunner(runner.ErrorHandlingContinue)

	testFiles, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(testFiles) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	var jobs []runner.TestJob
	for _, file := range testFiles {
		expandedJobs, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expandedJobs...)
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var failed []string
	for i, job := range jobs {
		t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))
		result, err := testRunner.RunSuite(ctx, job.Suite)
		if err != nil && result.Error == nil {
			result.Error = err
		}
		t.Logf("Session ID: %s", result.SessionID)

		if result.Error != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", job.Name, result.Error))
			t.Errorf("[%d/%d] FAILED: Test suite '%s' failed: %v", i+1, len(jobs), job.Name, result.Error)
			continue
		}
		t.Logf("[%d/%d] PASSED: Test suite '%s' completed in %v", i+1, len(jobs), job.Name, result.Duration)
		logSteps(t, result)
	}

	t.Logf("\nIntegration Test Summary:")
	t.Logf("   Passed: %d", len(jobs)-len(failed))
	t.Logf("   Failed: %d", len(failed))
	if len(failed) > 0 {
		t.Fatalf("Integration tests failed:\n   - %s", strings.Join(failed, "\n   - "))
	}
}

// TestSingleSuite runs the suites named by -case, comma-separated.
func TestSingleSuite(t *testing.T) {
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}
	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}
	runs := *runsFlag
	if runs < 1 {
		t.Fatalf("Number of runs must be >= 1, got: %d", runs)
	}

	var suiteFiles []string
	for _, caseName := range strings.Split(*caseFlag, ",") {
		caseName = strings.TrimSpace(caseName)
		if caseName == "" {
			continue
		}
		if !strings.HasSuffix(caseName, ".json") {
			caseName += ".json"
		}
		suiteFiles = append(suiteFiles, filepath.Join("cases", caseName))
	}

	// Multi-run always continues so the statistics are complete.
	mode := runner.ErrorHandlingMode(*errFlag)
	if runs > 1 {
		mode = runner.ErrorHandlingContinue
	}
	testRunner := newRunner(mode)

	stats := make(map[string]*suiteStats)
	var names []string
	for run := 1; run <= runs; run++ {
		if runs > 1 {
			t.Logf("=== RUN %d/%d ===", run, runs)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		for _, suiteFile := range suiteFiles {
			jobs, err := runner.LoadTestSuiteWithExpansion(suiteFile, "cases")
			if err != nil {
				cancel()
				t.Fatalf("Failed to load test suite %s: %v", suiteFile, err)
			}
			for _, job := range jobs {
				s, ok := stats[job.Name]
				if !ok {
					s = &suiteStats{}
					stats[job.Name] = s
					names = append(names, job.Name)
				}
				result, err := testRunner.RunSuite(ctx, job.Suite)
				if err != nil && result.Error == nil {
					result.Error = err
				}
				if result.Error != nil {
					s.failures++
					t.Errorf("FAILED: Test suite '%s' (run %d): %v", job.Name, run, result.Error)
					if runs == 1 && *errFlag == "exit" {
						cancel()
						t.FailNow()
					}
				} else {
					s.passes++
					t.Logf("PASSED: Test suite '%s' completed in %v", job.Name, result.Duration)
				}
				logSteps(t, result)
			}
		}
		cancel()
	}

	if runs > 1 {
		t.Log(buildFinalReport(names, stats))
	}
}

type suiteStats struct {
	passes, failures int
}

func logSteps(t *testing.T, result runner.TestRunResult) {
	t.Helper()
	for _, stepResult := range result.Results {
		switch {
		case stepResult.IsReset:
			t.Logf("   ↻ %s (%v)", stepResult.StepName, stepResult.Duration)
		case stepResult.Success:
			t.Logf("   ✓ %s (%v)", stepResult.StepName, stepResult.Duration)
		default:
			t.Logf("   ✗ %s: %v", stepResult.StepName, stepResult.Error)
		}
	}
}

// buildFinalReport summarizes pass rates across runs and flags flaky suites
func buildFinalReport(names []string, stats map[string]*suiteStats) string {
	var sb strings.Builder
	sb.WriteString("\n=== FINAL MULTI-RUN STATISTICS ===\n")
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		total := s.passes + s.failures
		if total == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  %s: %d/%d passes (%.1f%%)\n", name, s.passes, total, float64(s.passes)/float64(total)*100)
		if s.passes > 0 && s.failures > 0 {
			sb.WriteString("    FLAKY: This suite both passed and failed across runs\n")
		}
	}
	return sb.String()
}

func discoverTestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func getIntEnv(name string, defaultValue int) int {
	val, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return defaultValue
	}
	return val
}
