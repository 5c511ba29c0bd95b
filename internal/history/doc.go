// Package history strips large blobs and unwanted paths from a repository's history with
// git-filter-repo and force-pushes the rewritten history to a new remote.
package history
