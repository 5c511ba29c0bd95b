// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and typed failures, and
// OSCommandRunner runs git, gitleaks, curl, and git-filter-repo through
// os/exec so the checks that depend on them stay testable.
package execshell
