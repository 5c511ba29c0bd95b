// Package gitrepo wraps the git probes pushguard needs.
//
// RepositoryManager answers repository, remote, branch, conflict and worktree
// questions by running git through execshell, and ParseRemoteURL validates the
// remote addresses handed to clean-history.
package gitrepo
