//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// cliResult holds the outcome of one CLI invocation.
type cliResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runCLI executes the bloom CLI with the given arguments.
func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	return execCLI(t, "", nil, args...)
}

// runCLIInHome executes the bloom CLI with HOME pointed at dir, so config
// and keystore state never touch the caller's real home directory.
func runCLIInHome(t *testing.T, dir, stdin string, args ...string) cliResult {
	t.Helper()
	env := append(os.Environ(), "HOME="+dir, "USERPROFILE="+dir)
	return execCLI(t, stdin, env, args...)
}

func execCLI(t *testing.T, stdin string, env []string, args ...string) cliResult {
	t.Helper()

	if cliBinary == "" {
		t.Fatal("CLI binary not built; TestMain may not have run")
	}

	cmd := exec.Command(cliBinary, args...)
	if stdin != "" {
		cmd.Stdin = bytes.NewBufferString(stdin)
	}
	if env != nil {
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			t.Fatalf("failed to run CLI: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}

	return cliResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
}

// writeConfig writes a config file into dir's .bloom directory, where the
// CLI looks for it when HOME is dir.
func writeConfig(t *testing.T, dir, content string) {
	t.Helper()

	cfgDir := filepath.Join(dir, ".bloom")
	if err := os.MkdirAll(cfgDir, 0700); err != nil {
		t.Fatalf("failed to create config directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

// isCI reports whether the test is running in a CI environment.
func isCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// skipIfNoToken gates tests that call the live generation services. In CI a
// missing token fails loudly unless BLOOM_SKIP_LIVE is set; locally the test
// skips.
func skipIfNoToken(t *testing.T) {
	t.Helper()
	if os.Getenv("BLOOM_API_TOKEN") != "" {
		return
	}
	if isCI() && os.Getenv("BLOOM_SKIP_LIVE") == "" {
		t.Fatal("BLOOM_API_TOKEN not set (CI environment detected; set BLOOM_SKIP_LIVE=1 to skip)")
	}
	t.Skip("BLOOM_API_TOKEN not set")
}
