// Local Manager implementation.
//
// Information Hiding:
// - On-disk configuration format and location (YAML via viper)
// - Process supervision details (pid file, log redirection)

package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/viper"
)

// Configuration keys the managed server understands. SetConfig rejects
// anything else.
var knownKeys = map[string]bool{
	"server_binary":     true,
	"model":             true,
	"model_dir":         true,
	"host":              true,
	"port":              true,
	"context_size":      true,
	"gpu_layers":        true,
	"threads":           true,
	"log_level":         true,
	"openai_api_key":    true,
	"anthropic_api_key": true,
	"gemini_api_key":    true,
}

// Keys whose values must parse as positive integers.
var integerKeys = map[string]bool{
	"port":         true,
	"context_size": true,
	"gpu_layers":   true,
	"threads":      true,
}

// LocalManager manages a server process on this machine.
type LocalManager struct {
	v       *viper.Viper
	dir     string
	pidFile string
	logFile string
}

// NewLocalManager creates a manager rooted at dir, creating the
// directory and an empty config file on first use.
func NewLocalManager(dir string) (*LocalManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("server")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read server config: %w", err)
		}
		if err := v.SafeWriteConfigAs(filepath.Join(dir, "server.yaml")); err != nil {
			return nil, fmt.Errorf("initialize server config: %w", err)
		}
	}

	return &LocalManager{
		v:       v,
		dir:     dir,
		pidFile: filepath.Join(dir, "server.pid"),
		logFile: filepath.Join(dir, "server.log"),
	}, nil
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "minder"), nil
}

// GetConfig returns the value for a key, or ErrKeyNotFound.
func (m *LocalManager) GetConfig(key string) (string, error) {
	if !m.v.IsSet(key) {
		return "", fmt.Errorf("%q: %w", key, ErrKeyNotFound)
	}
	return m.v.GetString(key), nil
}

// SetConfig validates and persists a key/value pair.
func (m *LocalManager) SetConfig(key, value string) error {
	if !knownKeys[key] {
		return fmt.Errorf("unknown config key %q", key)
	}
	if integerKeys[key] {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("config key %q requires a non-negative integer, got %q", key, value)
		}
	}
	m.v.Set(key, value)
	if err := m.v.WriteConfigAs(filepath.Join(m.dir, "server.yaml")); err != nil {
		return fmt.Errorf("write server config: %w", err)
	}
	return nil
}

// ListConfig returns a copy of the full configuration mapping.
func (m *LocalManager) ListConfig() map[string]string {
	result := make(map[string]string)
	for _, key := range m.v.AllKeys() {
		result[key] = m.v.GetString(key)
	}
	return result
}

// IsRunning reports whether the managed process is alive.
func (m *LocalManager) IsRunning() bool {
	pid := m.GetPid()
	if pid == 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// GetPid returns the recorded process id, or 0.
func (m *LocalManager) GetPid() int {
	data, err := os.ReadFile(m.pidFile)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

// Start launches the configured server binary, redirecting its output
// to the log file and recording the pid.
func (m *LocalManager) Start(ctx context.Context, opts StartOptions) error {
	if m.IsRunning() {
		return fmt.Errorf("server already running with pid %d", m.GetPid())
	}

	binary := m.v.GetString("server_binary")
	if binary == "" {
		return fmt.Errorf("server_binary is not configured")
	}
	model := opts.Model
	if model == "" {
		model = m.v.GetString("model")
	}
	if model == "" {
		return fmt.Errorf("no model configured; set the model config key or pass one explicitly")
	}

	logFile, err := os.OpenFile(m.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	args := []string{
		"--model", model,
		"--host", m.v.GetString("host"),
		"--port", m.v.GetString("port"),
	}
	if ctxSize := m.v.GetString("context_size"); ctxSize != "" {
		args = append(args, "--ctx-size", ctxSize)
	}
	if layers := m.v.GetString("gpu_layers"); layers != "" {
		args = append(args, "--n-gpu-layers", layers)
	}

	// Deliberately not CommandContext: the server outlives the request
	// that started it.
	cmd := exec.Command(binary, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	pid := cmd.Process.Pid
	if err := os.WriteFile(m.pidFile, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("record server pid: %w", err)
	}

	// Reap the child when it exits so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()

	return nil
}

// Stop terminates the managed process and clears the pid file.
func (m *LocalManager) Stop() error {
	pid := m.GetPid()
	if pid == 0 || !m.IsRunning() {
		return fmt.Errorf("server is not running")
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find server process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	_ = os.Remove(m.pidFile)
	return nil
}

// ReadLogs returns up to lineCount trailing lines from the log file.
func (m *LocalManager) ReadLogs(lineCount int) (string, error) {
	data, err := os.ReadFile(m.logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read logs: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lineCount > 0 && len(lines) > lineCount {
		lines = lines[len(lines)-lineCount:]
	}
	return strings.Join(lines, "\n"), nil
}

// BaseURL returns the chat-completions address of the managed server.
func (m *LocalManager) BaseURL() string {
	return fmt.Sprintf("http://%s:%s/v1", m.v.GetString("host"), m.v.GetString("port"))
}

// Verify LocalManager implements Manager
var _ Manager = (*LocalManager)(nil)
