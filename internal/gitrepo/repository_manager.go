package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/temirov/fieldpatch/internal/execshell"
)

const (
	gitCloneSubcommandConstant              = "clone"
	gitBranchFlagConstant                   = "--branch"
	gitSingleBranchFlagConstant             = "--single-branch"
	gitDepthFlagConstant                    = "--depth"
	gitArgumentTerminatorConstant           = "--"
	gitRevParseSubcommandConstant           = "rev-parse"
	gitAbbrevRefFlagConstant                = "--abbrev-ref"
	gitHeadReferenceConstant                = "HEAD"
	gitAddSubcommandConstant                = "add"
	gitDiffSubcommandConstant               = "diff"
	gitCachedFlagConstant                   = "--cached"
	gitQuietFlagConstant                    = "--quiet"
	gitCommitSubcommandConstant             = "commit"
	gitMessageFlagConstant                  = "--message"
	gitPushSubcommandConstant               = "push"
	gitPushRefspecTemplateConstant          = "HEAD:refs/heads/%s"
	gitTerminalPromptEnvironmentKeyConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant  = "0"
	gitAuthorNameEnvironmentKeyConstant     = "GIT_AUTHOR_NAME"
	gitAuthorEmailEnvironmentKeyConstant    = "GIT_AUTHOR_EMAIL"
	gitCommitterNameEnvironmentKeyConstant  = "GIT_COMMITTER_NAME"
	gitCommitterEmailEnvironmentKeyConstant = "GIT_COMMITTER_EMAIL"
	stagedChangesExitCodeConstant           = 1
	revisionHashLengthSHA1Constant          = 40
	revisionHashLengthSHA256Constant        = 64
)

// GitExecutor exposes the ability to run git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager drives a local clone through the git binary.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CloneBranch clones a single branch directly into DestinationPath.
// Credentials are embedded into http(s) remote URLs; prompting is disabled so missing credentials fail fast.
func (manager *RepositoryManager) CloneBranch(executionContext context.Context, options CloneOptions) error {
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	remoteURL, authenticationError := AuthenticatedURL(options.RepositoryURL, options.Credentials)
	if authenticationError != nil {
		return authenticationError
	}

	arguments := []string{gitCloneSubcommandConstant, gitBranchFlagConstant, strings.TrimSpace(options.Branch), gitSingleBranchFlagConstant}
	if options.Depth > 0 {
		arguments = append(arguments, gitDepthFlagConstant, strconv.Itoa(options.Depth))
	}
	arguments = append(arguments, gitArgumentTerminatorConstant, remoteURL, options.DestinationPath)

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		EnvironmentVariables: nonInteractiveEnvironment(),
	})
	return executionError
}

// CurrentBranch returns the name of the checked-out branch.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	if validationError := ValidateRepositoryPath(repositoryPath); validationError != nil {
		return "", validationError
	}

	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// StagePath adds a single repository-relative path to the index.
func (manager *RepositoryManager) StagePath(executionContext context.Context, repositoryPath string, relativePath string) error {
	if validationError := ValidatePathArguments(repositoryPath, relativePath); validationError != nil {
		return validationError
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, gitArgumentTerminatorConstant, filepath.ToSlash(relativePath)},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// HasStagedChanges reports whether the index differs from HEAD for the given path.
func (manager *RepositoryManager) HasStagedChanges(executionContext context.Context, repositoryPath string, relativePath string) (bool, error) {
	if validationError := ValidatePathArguments(repositoryPath, relativePath); validationError != nil {
		return false, validationError
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitDiffSubcommandConstant, gitCachedFlagConstant, gitQuietFlagConstant, gitArgumentTerminatorConstant, filepath.ToSlash(relativePath)},
		WorkingDirectory: repositoryPath,
	})
	if executionError == nil {
		return false, nil
	}

	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) && failedError.Result.ExitCode == stagedChangesExitCodeConstant {
		return true, nil
	}
	return false, executionError
}

// Commit records the index as a new commit. The identity is passed through the
// environment of this one process so no git configuration is written.
func (manager *RepositoryManager) Commit(executionContext context.Context, options CommitOptions) error {
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCommitSubcommandConstant, gitMessageFlagConstant, options.Message},
		WorkingDirectory: options.RepositoryPath,
		EnvironmentVariables: map[string]string{
			gitAuthorNameEnvironmentKeyConstant:     options.AuthorName,
			gitAuthorEmailEnvironmentKeyConstant:    options.AuthorEmail,
			gitCommitterNameEnvironmentKeyConstant:  options.AuthorName,
			gitCommitterEmailEnvironmentKeyConstant: options.AuthorEmail,
		},
	})
	return executionError
}

// PushBranch pushes HEAD to refs/heads/<Branch> on the remote.
// Credentials are not consulted: the remote recorded by CloneBranch already carries them.
func (manager *RepositoryManager) PushBranch(executionContext context.Context, options PushOptions) error {
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitPushSubcommandConstant, options.ResolvedRemoteName(), fmt.Sprintf(gitPushRefspecTemplateConstant, strings.TrimSpace(options.Branch))},
		WorkingDirectory:     options.RepositoryPath,
		EnvironmentVariables: nonInteractiveEnvironment(),
	})
	return executionError
}

// HeadRevision returns the full object name of HEAD.
func (manager *RepositoryManager) HeadRevision(executionContext context.Context, repositoryPath string) (string, error) {
	if validationError := ValidateRepositoryPath(repositoryPath); validationError != nil {
		return "", validationError
	}

	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}

	revision := strings.TrimSpace(result.StandardOutput)
	if len(revision) != revisionHashLengthSHA1Constant && len(revision) != revisionHashLengthSHA256Constant {
		return "", fmt.Errorf(unexpectedRevisionOutputTemplateConstant, revision)
	}
	return revision, nil
}

func nonInteractiveEnvironment() map[string]string {
	return map[string]string{gitTerminalPromptEnvironmentKeyConstant: gitTerminalPromptDisabledValueConstant}
}
