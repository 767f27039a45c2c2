package embedded

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"github.com/temirov/fieldpatch/internal/execshell"
	"github.com/temirov/fieldpatch/internal/gitrepo"
)

const (
	detachedHeadNameConstant            = "HEAD"
	pushRefSpecTemplateConstant         = "%s:%s"
	cloneLogMessageConstant             = "Cloning repository"
	commitLogMessageConstant            = "Created commit"
	pushLogMessageConstant              = "Pushed branch"
	pushUpToDateLogMessageConstant      = "Remote branch already up to date"
	repositoryFieldNameConstant         = "repository"
	branchFieldNameConstant             = "branch"
	destinationFieldNameConstant        = "destination"
	remoteFieldNameConstant             = "remote"
	revisionFieldNameConstant           = "revision"
	openRepositoryErrorTemplateConstant = "unable to open repository %s: %w"
	worktreeErrorTemplateConstant       = "unable to access worktree of %s: %w"
)

// RepositoryManager drives a local clone in process with go-git.
type RepositoryManager struct {
	logger *zap.Logger
	clock  func() time.Time
}

// NewRepositoryManager constructs a RepositoryManager. A nil logger disables logging.
func NewRepositoryManager(logger *zap.Logger) *RepositoryManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepositoryManager{logger: logger, clock: time.Now}
}

// CloneBranch clones a single branch directly into DestinationPath.
func (manager *RepositoryManager) CloneBranch(executionContext context.Context, options gitrepo.CloneOptions) error {
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	remoteURL := strings.TrimSpace(options.RepositoryURL)
	manager.logger.Debug(cloneLogMessageConstant,
		zap.String(repositoryFieldNameConstant, execshell.RedactURL(remoteURL)),
		zap.String(branchFieldNameConstant, options.Branch),
		zap.String(destinationFieldNameConstant, options.DestinationPath),
	)

	_, cloneError := git.PlainCloneContext(executionContext, options.DestinationPath, false, &git.CloneOptions{
		URL:           remoteURL,
		Auth:          authenticationFor(remoteURL, options.Credentials),
		RemoteName:    gitrepo.DefaultRemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(strings.TrimSpace(options.Branch)),
		SingleBranch:  true,
		Depth:         options.Depth,
	})
	return cloneError
}

// CurrentBranch returns the short name of the checked-out branch, or HEAD when detached.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	if validationError := gitrepo.ValidateRepositoryPath(repositoryPath); validationError != nil {
		return "", validationError
	}

	repository, openError := openRepository(repositoryPath)
	if openError != nil {
		return "", openError
	}
	headReference, headError := repository.Head()
	if headError != nil {
		return "", headError
	}
	if !headReference.Name().IsBranch() {
		return detachedHeadNameConstant, nil
	}
	return headReference.Name().Short(), nil
}

// StagePath adds a single repository-relative path to the index.
func (manager *RepositoryManager) StagePath(executionContext context.Context, repositoryPath string, relativePath string) error {
	if validationError := gitrepo.ValidatePathArguments(repositoryPath, relativePath); validationError != nil {
		return validationError
	}

	worktree, worktreeError := openWorktree(repositoryPath)
	if worktreeError != nil {
		return worktreeError
	}
	_, addError := worktree.Add(filepath.ToSlash(relativePath))
	return addError
}

// HasStagedChanges reports whether the index entry for the path differs from HEAD.
func (manager *RepositoryManager) HasStagedChanges(executionContext context.Context, repositoryPath string, relativePath string) (bool, error) {
	if validationError := gitrepo.ValidatePathArguments(repositoryPath, relativePath); validationError != nil {
		return false, validationError
	}

	worktree, worktreeError := openWorktree(repositoryPath)
	if worktreeError != nil {
		return false, worktreeError
	}
	status, statusError := worktree.Status()
	if statusError != nil {
		return false, statusError
	}

	fileStatus, present := status[filepath.ToSlash(relativePath)]
	if !present {
		return false, nil
	}
	return fileStatus.Staging != git.Unmodified && fileStatus.Staging != git.Untracked, nil
}

// Commit records the index as a new commit authored and committed by the supplied identity.
func (manager *RepositoryManager) Commit(executionContext context.Context, options gitrepo.CommitOptions) error {
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	worktree, worktreeError := openWorktree(options.RepositoryPath)
	if worktreeError != nil {
		return worktreeError
	}

	signature := &object.Signature{Name: options.AuthorName, Email: options.AuthorEmail, When: manager.clock()}
	commitHash, commitError := worktree.Commit(options.Message, &git.CommitOptions{Author: signature, Committer: signature})
	if commitError != nil {
		return commitError
	}
	manager.logger.Debug(commitLogMessageConstant, zap.String(revisionFieldNameConstant, commitHash.String()))
	return nil
}

// PushBranch pushes the local branch to refs/heads/<Branch> on the remote. An up-to-date remote is not an error.
func (manager *RepositoryManager) PushBranch(executionContext context.Context, options gitrepo.PushOptions) error {
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	repository, openError := openRepository(options.RepositoryPath)
	if openError != nil {
		return openError
	}

	remoteName := options.ResolvedRemoteName()
	remote, remoteError := repository.Remote(remoteName)
	if remoteError != nil {
		return remoteError
	}
	var remoteURL string
	if urls := remote.Config().URLs; len(urls) > 0 {
		remoteURL = urls[0]
	}

	branchReference := plumbing.NewBranchReferenceName(strings.TrimSpace(options.Branch))
	pushError := repository.PushContext(executionContext, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf(pushRefSpecTemplateConstant, branchReference, branchReference))},
		Auth:       authenticationFor(remoteURL, options.Credentials),
	})
	if errors.Is(pushError, git.NoErrAlreadyUpToDate) {
		manager.logger.Debug(pushUpToDateLogMessageConstant, zap.String(remoteFieldNameConstant, remoteName), zap.String(branchFieldNameConstant, options.Branch))
		return nil
	}
	if pushError != nil {
		return pushError
	}
	manager.logger.Debug(pushLogMessageConstant, zap.String(remoteFieldNameConstant, remoteName), zap.String(branchFieldNameConstant, options.Branch))
	return nil
}

// HeadRevision returns the full object name of HEAD.
func (manager *RepositoryManager) HeadRevision(executionContext context.Context, repositoryPath string) (string, error) {
	if validationError := gitrepo.ValidateRepositoryPath(repositoryPath); validationError != nil {
		return "", validationError
	}

	repository, openError := openRepository(repositoryPath)
	if openError != nil {
		return "", openError
	}
	headReference, headError := repository.Head()
	if headError != nil {
		return "", headError
	}
	return headReference.Hash().String(), nil
}

func openRepository(repositoryPath string) (*git.Repository, error) {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return nil, fmt.Errorf(openRepositoryErrorTemplateConstant, repositoryPath, openError)
	}
	return repository, nil
}

func openWorktree(repositoryPath string) (*git.Worktree, error) {
	repository, openError := openRepository(repositoryPath)
	if openError != nil {
		return nil, openError
	}
	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return nil, fmt.Errorf(worktreeErrorTemplateConstant, repositoryPath, worktreeError)
	}
	return worktree, nil
}

// authenticationFor returns basic auth for http(s) remotes with credentials and nil otherwise.
func authenticationFor(remoteURL string, credentials gitrepo.BasicCredentials) transport.AuthMethod {
	if credentials.IsZero() || !gitrepo.IsHTTPRemote(remoteURL) {
		return nil
	}
	return &http.BasicAuth{Username: credentials.Username, Password: credentials.Password}
}
