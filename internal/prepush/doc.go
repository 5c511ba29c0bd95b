// Package prepush runs the pre-push hygiene checks against a git working tree.
//
// A run first confirms the target directory is inside a work tree and then
// executes the remote, branch, conflicts, ignore-file, secrets, and large-files
// checks in that order. Every check yields a CheckResult. Only failed checks
// count towards the aggregate exit status; a degraded secret scan is reported
// as a warning.
package prepush
