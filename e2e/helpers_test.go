package e2e_test

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"text/template"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	binaryPath     string
	binaryBuildErr error
	binaryOnce     sync.Once
	sharedTempDir  string
)

func TestMain(m *testing.M) {
	var err error
	sharedTempDir, err = os.MkdirTemp("", "bucketgate-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = os.RemoveAll(sharedTempDir)
	os.Exit(code)
}

// ServerConfig holds configuration for starting the bucketgate server.
type ServerConfig struct {
	Port        int
	MetricsPort int    // 0 disables the metrics listener
	DBType      string // sqlite, postgres
	DBDSN       string
	StoragePath string
	Secret      string
	CacheType   string // memory, none (default)
}

var configTemplate = template.Must(template.New("config").Parse(`server:
  port: {{.Port}}
  metrics_port: {{.MetricsPort}}
database:
  type: {{.DBType}}
  dsn: "{{.DBDSN}}"
  auto_migrate: true
storage:
  type: filesystem
  path: "{{.StoragePath}}"
auth:
  secret: "{{.Secret}}"
cache:
  type: {{if .CacheType}}{{.CacheType}}{{else}}none{{end}}
  ttl: 300
  memory:
    shards: 16
    hard_max_size_mb: 16
log:
  level: error
`))

// writeConfig renders cfg as a server config file and returns its path.
func writeConfig(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	f, err := os.Create(path)
	require.NoError(t, err, "create config file")
	defer f.Close()

	require.NoError(t, configTemplate.Execute(f, cfg), "render config file")
	return path
}

// buildBinary compiles cmd/bucketgate once per test run.
func buildBinary(t *testing.T) string {
	t.Helper()

	binaryOnce.Do(func() {
		binaryPath = filepath.Join(sharedTempDir, "bucketgate")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/bucketgate")
		cmd.Dir = projectRoot(t)
		if output, err := cmd.CombinedOutput(); err != nil {
			binaryBuildErr = fmt.Errorf("build binary: %w\nOutput: %s", err, output)
		}
	})

	if binaryBuildErr != nil {
		t.Fatalf("failed to build binary: %v", binaryBuildErr)
	}
	return binaryPath
}

// projectRoot walks up from the working directory to the go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startServer runs init and then serve with the given configuration.
// It returns the base URL and a cleanup function that stops the server.
func startServer(t *testing.T, cfg ServerConfig) (string, func()) {
	t.Helper()

	binary := buildBinary(t)
	configPath := writeConfig(t, cfg)

	output, err := exec.Command(binary, "init", "--config", configPath).CombinedOutput()
	require.NoError(t, err, "init database: %s", output)

	cmd := exec.Command(binary, "serve", "--config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start(), "start server")

	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	waitForServer(t, baseURL, 10*time.Second)

	return baseURL, func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
		}
	}
}

// waitForServer polls until any HTTP response arrives. The root is the
// empty key, so the expected answer is 404.
func waitForServer(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get(baseURL + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, timeout, 100*time.Millisecond, "server failed to start")
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "find open port")
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}
