// Package logging provides slog setup and shared log attribute helpers so
// that every component names its attributes consistently.
//
// The handler always writes to stderr: the stdio transport owns stdout, and
// any stray log line there would corrupt the tool-call framing.
package logging
