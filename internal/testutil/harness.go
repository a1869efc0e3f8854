package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/buildshim/internal/app"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Dir is the temporary build graph root the fixtures were written to.
	Dir       string
	Output    string
	LogOutput string
	Result    *app.Result
	Err       error
}

// ReadFile returns the content of a file under the graph root.
func (r *HarnessResult) ReadFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Dir, name))
	require.NoError(t, err)
	return string(data)
}

// Option adjusts the app configuration of a harness run.
type Option func(cfg *app.Config)

// WriteFixtures writes files, keyed by slash-separated relative path, into a
// fresh temporary directory and returns it.
func WriteFixtures(t *testing.T, files map[string]string) string {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", ".tmp-integration-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	for name, content := range files {
		filePath := filepath.Join(tmpDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}
	return tmpDir
}

// RunIntegrationTest writes the fixtures and runs the app over them once.
func RunIntegrationTest(t *testing.T, files map[string]string, opts ...Option) *HarnessResult {
	t.Helper()
	return RunInDir(context.Background(), t, WriteFixtures(t, files), opts...)
}

// RunInDir runs the app over an existing graph root. Running twice over the
// same directory observes the first run's write-back.
func RunInDir(ctx context.Context, t *testing.T, dir string, opts ...Option) *HarnessResult {
	t.Helper()

	cfg := app.Config{GraphPath: dir, LogFormat: "text"}
	for _, opt := range opts {
		opt(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	testApp, outBuffer, logBuffer := app.SetupAppTest(t, appConfig)
	res, runErr := testApp.Run(ctx)

	return &HarnessResult{
		Dir:       dir,
		Output:    outBuffer.String(),
		LogOutput: logBuffer.String(),
		Result:    res,
		Err:       runErr,
	}
}

// DryRun runs without writing back.
func DryRun() Option {
	return func(cfg *app.Config) { cfg.DryRun = true }
}

// WithReport writes the YAML report to path, or to the output when path is "-".
func WithReport(path string) Option {
	return func(cfg *app.Config) { cfg.ReportPath = path }
}

// WithMetrics writes the metrics textfile to path.
func WithMetrics(path string) Option {
	return func(cfg *app.Config) { cfg.MetricsPath = path }
}

// WithPluginVersion overrides the toolchain plugin version.
func WithPluginVersion(v string) Option {
	return func(cfg *app.Config) { cfg.PluginVersion = v }
}

// WithOrgPrefix overrides the toolchain organization prefix.
func WithOrgPrefix(p string) Option {
	return func(cfg *app.Config) { cfg.OrgPrefix = p }
}
