package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("AIMS_LOG_PATH", "/tmp/aims-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/aims-env-log" {
		t.Errorf("got %q, want /tmp/aims-env-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("AIMS_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("default log dir is empty")
	}
}

func TestInitCreatesLogFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Info("hello from test")
	SummaryText("the meeting covered testing")
	Close()

	diag, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatalf("reading diagnostics_log.txt: %v", err)
	}
	if !strings.Contains(string(diag), "hello from test") {
		t.Error("diagnostics log missing info message")
	}

	summary, err := os.ReadFile(filepath.Join(tmp, "summary_log.txt"))
	if err != nil {
		t.Fatalf("reading summary_log.txt: %v", err)
	}
	if !strings.Contains(string(summary), "the meeting covered testing") {
		t.Error("summary log missing summary text")
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	setupLogDir(t)
	// Must not panic with no open files.
	Info("dropped")
	Warnf("dropped %d", 1)
	Errorf("dropped %d", 2)
	SummaryText("dropped")
	SessionStart("http://127.0.0.1:5000")
	SessionEnd(0)
}

func TestUploadMetricsWritesEntry(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	UploadMetrics(Metrics{
		AudioLengthS: 2.5,
		ArtifactKB:   80,
		TotalMs:      120,
	}, "microphone", "http://127.0.0.1:5000/upload", 200, true, "TLS 1.3")
	Close()

	diag, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"upload", "conn=reused", "status=200"} {
		if !strings.Contains(string(diag), want) {
			t.Errorf("diagnostics log missing %q:\n%s", want, diag)
		}
	}
}
