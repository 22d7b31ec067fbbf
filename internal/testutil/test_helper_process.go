// Package testutil provides test utilities and helpers for relcut tests:
// a helper-process stand-in for external commands and throwaway git
// repositories.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// HelperProcessConfig configures the behavior of TestHelperProcess.
type HelperProcessConfig struct {
	// ExitCode is the exit code to return (default 0).
	ExitCode int `json:"exit_code"`
	// Stdout is the content to write to stdout.
	Stdout string `json:"stdout"`
	// Stderr is the content to write to stderr.
	Stderr string `json:"stderr"`
	// WriteFile, if set, is created (relative to the working directory)
	// with WriteContent before exiting.
	WriteFile    string `json:"write_file"`
	WriteContent string `json:"write_content"`
}

// HelperProcessEnvVars contains the environment variable names used by TestHelperProcess.
const (
	// EnvWantHelperProcess signals that the test binary should run as a helper process.
	EnvWantHelperProcess = "GO_WANT_HELPER_PROCESS"
	// EnvHelperProcessConfig contains JSON-encoded HelperProcessConfig.
	EnvHelperProcessConfig = "GO_HELPER_PROCESS_CONFIG"
	// EnvHelperProcessArgsFile names a file the helper writes its arguments to.
	EnvHelperProcessArgsFile = "GO_HELPER_PROCESS_ARGS_FILE"
)

// TestHelperProcess is a function to be called from a test function to
// implement the helper process pattern. When invoked with
// GO_WANT_HELPER_PROCESS=1, it behaves as a mock subprocess and exits
// without returning.
//
// Usage in test file:
//
//	func TestHelperProcess(t *testing.T) {
//	    testutil.TestHelperProcess(t)
//	}
func TestHelperProcess(t *testing.T) {
	if os.Getenv(EnvWantHelperProcess) != "1" {
		return
	}

	config := parseHelperConfig()
	recordArgs()
	runHelperProcess(config)
	// runHelperProcess calls os.Exit, so this line is never reached
}

// HelperCommand arms the helper process through the environment and
// returns the program and leading arguments that invoke it. Append the
// arguments the real command would receive after them. The environment is
// restored when the test ends, so callers cannot use t.Parallel.
func HelperCommand(t *testing.T, testName string, config HelperProcessConfig) (string, []string, string) {
	t.Helper()

	testBinary, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to get test binary path: %v", err)
	}

	configJSON, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("encoding helper config: %v", err)
	}
	argsFile := filepath.Join(t.TempDir(), "args.json")

	t.Setenv(EnvWantHelperProcess, "1")
	t.Setenv(EnvHelperProcessConfig, string(configJSON))
	t.Setenv(EnvHelperProcessArgsFile, argsFile)

	return testBinary, []string{"-test.run=^" + testName + "$", "--"}, argsFile
}

// ReadHelperArgs returns the arguments the helper process received after "--".
func ReadHelperArgs(t *testing.T, argsFile string) []string {
	t.Helper()

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("reading helper args: %v", err)
	}
	var args []string
	if err := json.Unmarshal(data, &args); err != nil {
		t.Fatalf("parsing helper args: %v", err)
	}
	return args
}

// parseHelperConfig parses HelperProcessConfig from environment variable.
func parseHelperConfig() HelperProcessConfig {
	config := HelperProcessConfig{}
	configJSON := os.Getenv(EnvHelperProcessConfig)
	if configJSON != "" {
		// Ignore parse errors; use defaults on failure
		_ = json.Unmarshal([]byte(configJSON), &config)
	}
	return config
}

// recordArgs writes the arguments after "--" to the args file, if configured.
func recordArgs() {
	path := os.Getenv(EnvHelperProcessArgsFile)
	if path == "" {
		return
	}
	args := []string{}
	for i, a := range os.Args {
		if a == "--" {
			args = append(args, os.Args[i+1:]...)
			break
		}
	}
	data, _ := json.Marshal(args)
	_ = os.WriteFile(path, data, 0o644)
}

// runHelperProcess executes the helper process behavior and always exits.
func runHelperProcess(config HelperProcessConfig) {
	if config.WriteFile != "" {
		if err := os.WriteFile(config.WriteFile, []byte(config.WriteContent), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "helper: %v\n", err)
			os.Exit(2)
		}
	}
	if config.Stdout != "" {
		fmt.Fprint(os.Stdout, config.Stdout)
	}
	if config.Stderr != "" {
		fmt.Fprint(os.Stderr, config.Stderr)
	}

	// Always exit with configured code (defaults to 0)
	os.Exit(config.ExitCode)
}
