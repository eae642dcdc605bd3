// Remediation hints.
//
// Failures are reported to the model and the operator together with a
// short, platform-aware suggestion derived by pattern-matching the
// underlying error message.

package tools

import (
	"runtime"
	"strings"
)

// RemediationHint returns a one-line suggestion for a failure message,
// or the empty string when nothing useful can be said.
func RemediationHint(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "permission denied"), strings.Contains(lower, "operation not permitted"):
		if runtime.GOOS == "windows" {
			return "Run the command from an elevated prompt, or check the file's security properties."
		}
		return "Check file ownership and mode; `chmod +x` the server binary if it is not executable."
	case strings.Contains(lower, "address already in use"), strings.Contains(lower, "bind:"):
		return "Another process holds the configured port. Stop it or change the port config key."
	case strings.Contains(lower, "no such file"), strings.Contains(lower, "not found") && strings.Contains(lower, "file"):
		return "Verify the configured path exists; check server_binary and model."
	case strings.Contains(lower, "executable file not found"):
		return "The server binary is not on PATH; set server_binary to an absolute path."
	case strings.Contains(lower, "connection refused"):
		return "The server is not listening. Start it, or re-run detection to pick a reachable backend."
	case strings.Contains(lower, "unauthorized"), strings.Contains(lower, "401"), strings.Contains(lower, "invalid api key"):
		return "The API credential was rejected. Update the vendor's API key environment variable."
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return "The backend did not answer in time. Check that it is running and not overloaded."
	default:
		return ""
	}
}
