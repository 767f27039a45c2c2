package patcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/google/uuid"
)

const (
	workspaceDirectoryPrefixConstant      = "fieldpatch-"
	repositoryDirectoryNameConstant       = "repository"
	workspaceDirectoryPermissionsConstant = 0o700
	workspaceCreateErrorTemplateConstant  = "unable to create workspace in %s: %w"
	workspaceRemoveErrorTemplateConstant  = "unable to remove workspace %s: %w"
	workspaceJoinErrorTemplateConstant    = "unable to resolve %s inside the clone: %w"
	workspaceRemovedErrorMessageConstant  = "workspace already removed"
)

// ErrWorkspaceRemoved indicates a workspace was used after Remove.
var ErrWorkspaceRemoved = errors.New(workspaceRemovedErrorMessageConstant)

// Workspace is the directory owned by a single invocation.
type Workspace struct {
	path    string
	removed bool
}

// CreateWorkspace creates <root>/fieldpatch-<identifier>. The directory must not exist yet.
// An empty root selects the system temporary directory and an empty identifier a random UUID.
func CreateWorkspace(root string, identifier string) (*Workspace, error) {
	resolvedRoot := strings.TrimSpace(root)
	if len(resolvedRoot) == 0 {
		resolvedRoot = os.TempDir()
	}
	resolvedIdentifier := strings.TrimSpace(identifier)
	if len(resolvedIdentifier) == 0 {
		resolvedIdentifier = uuid.NewString()
	}

	if mkdirError := os.MkdirAll(resolvedRoot, workspaceDirectoryPermissionsConstant); mkdirError != nil {
		return nil, fmt.Errorf(workspaceCreateErrorTemplateConstant, resolvedRoot, mkdirError)
	}

	workspacePath, joinError := securejoin.SecureJoin(resolvedRoot, workspaceDirectoryPrefixConstant+resolvedIdentifier)
	if joinError != nil {
		return nil, fmt.Errorf(workspaceCreateErrorTemplateConstant, resolvedRoot, joinError)
	}
	if mkdirError := os.Mkdir(workspacePath, workspaceDirectoryPermissionsConstant); mkdirError != nil {
		return nil, fmt.Errorf(workspaceCreateErrorTemplateConstant, resolvedRoot, mkdirError)
	}
	return &Workspace{path: workspacePath}, nil
}

// Path returns the workspace directory.
func (workspace *Workspace) Path() string {
	return workspace.path
}

// RepositoryPath returns the clone destination inside the workspace. It does not exist until cloned.
func (workspace *Workspace) RepositoryPath() string {
	return filepath.Join(workspace.path, repositoryDirectoryNameConstant)
}

// ResolveFile joins a repository-relative path onto the clone without following symlinks out of it.
func (workspace *Workspace) ResolveFile(relativePath string) (string, error) {
	if workspace.removed {
		return "", ErrWorkspaceRemoved
	}
	resolvedPath, joinError := securejoin.SecureJoin(workspace.RepositoryPath(), filepath.FromSlash(relativePath))
	if joinError != nil {
		return "", fmt.Errorf(workspaceJoinErrorTemplateConstant, relativePath, joinError)
	}
	return resolvedPath, nil
}

// Remove deletes the workspace and everything in it. Removing twice is a no-op.
func (workspace *Workspace) Remove() error {
	if workspace.removed {
		return nil
	}
	if removeError := os.RemoveAll(workspace.path); removeError != nil {
		return fmt.Errorf(workspaceRemoveErrorTemplateConstant, workspace.path, removeError)
	}
	workspace.removed = true
	return nil
}
