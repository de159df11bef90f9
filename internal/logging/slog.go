package logging

import (
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyContext   = "context"
	KeyNamespace = "namespace"
	KeyKind      = "kind"
	KeyName      = "name"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyHost      = "host"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ipv4Regex matches IPv4 addresses for sanitization.
var ipv4Regex = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// Setup installs a text handler on stderr as the default logger and returns
// it. Debug enables verbose dispatch logging.
func Setup(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Context returns a slog attribute for the cluster context name.
func Context(name string) slog.Attr {
	return slog.String(KeyContext, name)
}

// Namespace returns a slog attribute for the namespace.
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// Kind returns a slog attribute for the resource kind.
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// Name returns a slog attribute for the resource name.
func Name(name string) slog.Attr {
	return slog.String(KeyName, name)
}

// Duration returns a slog attribute for an elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Status returns a slog attribute for the outcome status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Host returns a slog attribute for an API server endpoint with IP addresses
// redacted, so logs do not leak network topology.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, SanitizeHost(host))
}

// SanitizeHost redacts IP addresses from a host or URL while keeping
// hostnames intact.
//
// Examples:
//   - "https://192.168.1.100:6443" -> "https://<redacted-ip>:6443"
//   - "https://api.example.com:6443" -> unchanged
func SanitizeHost(host string) string {
	if host == "" {
		return "<empty>"
	}
	if strings.Contains(host, "://") {
		parts := strings.SplitN(host, "://", 2)
		return parts[0] + "://" + ipv4Regex.ReplaceAllString(parts[1], "<redacted-ip>")
	}
	return ipv4Regex.ReplaceAllString(host, "<redacted-ip>")
}
