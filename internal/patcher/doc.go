// Package patcher sets a single field in a YAML or JSON file of a remote git
// repository and publishes the change as a commit on an existing branch.
//
// Each invocation works in its own workspace directory which is removed when
// the run finishes. Git operations are delegated to a GitBackend: either the
// git executable (gitrepo) or the go-git based embedded backend.
package patcher
