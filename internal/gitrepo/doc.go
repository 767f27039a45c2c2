// Package gitrepo drives the git binary for the clone, commit, and push cycle of a patch.
//
// RepositoryManager issues each git invocation through an execshell executor,
// scoping author identity to the commit process and embedding http(s)
// credentials in the clone URL. The option types and remote URL helpers are
// shared with the go-git backend in the embedded subpackage.
package gitrepo
