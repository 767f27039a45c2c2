package patcher

import (
	"context"
	"errors"
	"io/fs"

	"go.uber.org/zap"

	"github.com/temirov/fieldpatch/internal/document"
	"github.com/temirov/fieldpatch/internal/gitrepo"
	"github.com/temirov/fieldpatch/internal/utils"
)

const (
	missingFileMessageConstant         = "does not exist in the repository"
	workspaceCreatedLogMessageConstant = "Workspace created"
	workspaceKeptLogMessageConstant    = "Workspace kept"
	workspaceCleanupLogMessageConstant = "Unable to remove workspace"
	repositoryClonedLogMessageConstant = "Repository cloned"
	fieldUpdatedLogMessageConstant     = "Field updated"
	fieldUnchangedLogMessageConstant   = "Field already holds the requested value"
	noStagedChangesLogMessageConstant  = "No staged changes; skipping commit"
	commitCreatedLogMessageConstant    = "Commit created"
	branchPushedLogMessageConstant     = "Branch pushed"
	repositoryFieldNameConstant        = "repository"
	branchLogFieldNameConstant         = "branch"
	fileLogFieldNameConstant           = "file"
	queryPathLogFieldNameConstant      = "query_path"
	workspaceFieldNameConstant         = "workspace"
	previousValueFieldNameConstant     = "previous_value"
	commitHashFieldNameConstant        = "commit"
	runIdentifierFieldNameConstant     = "run_id"
)

// GitBackend performs the repository operations of a patch.
type GitBackend interface {
	CloneBranch(executionContext context.Context, options gitrepo.CloneOptions) error
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	StagePath(executionContext context.Context, repositoryPath string, relativePath string) error
	HasStagedChanges(executionContext context.Context, repositoryPath string, relativePath string) (bool, error)
	Commit(executionContext context.Context, options gitrepo.CommitOptions) error
	PushBranch(executionContext context.Context, options gitrepo.PushOptions) error
	HeadRevision(executionContext context.Context, repositoryPath string) (string, error)
}

// ServiceDependencies describes the collaborators of Service.
type ServiceDependencies struct {
	Logger      *zap.Logger
	GitBackend  GitBackend
	Credentials gitrepo.BasicCredentials
	// WorkspaceRoot holds per-invocation directories; empty selects the system temporary directory.
	WorkspaceRoot string
	// KeepWorkspace leaves the clone on disk after Apply returns.
	KeepWorkspace bool
}

// Service clones a repository, rewrites one field, commits, and pushes.
type Service struct {
	logger          *zap.Logger
	backend         GitBackend
	credentials     gitrepo.BasicCredentials
	workspaceRoot   string
	keepWorkspace   bool
	contextAccessor utils.CommandContextAccessor
}

// NewService constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitBackend == nil {
		return nil, ErrGitBackendNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger:          logger,
		backend:         dependencies.GitBackend,
		credentials:     dependencies.Credentials,
		workspaceRoot:   dependencies.WorkspaceRoot,
		keepWorkspace:   dependencies.KeepWorkspace,
		contextAccessor: utils.NewCommandContextAccessor(),
	}, nil
}

// Apply runs the patch. A value that is already in place is a successful no-op: nothing is committed
// and CommitHash is the cloned HEAD. Nothing is retried and a local commit is not rolled back when the push fails.
func (service *Service) Apply(executionContext context.Context, request PatchRequest) (PatchResult, error) {
	prepared, prepareError := request.prepare()
	if prepareError != nil {
		return PatchResult{}, prepareError
	}

	runIdentifier, _ := service.contextAccessor.RunIdentifier(executionContext)
	workspace, workspaceError := CreateWorkspace(service.workspaceRoot, runIdentifier)
	if workspaceError != nil {
		return PatchResult{}, workspaceError
	}
	logger := service.logger.With(
		zap.String(repositoryFieldNameConstant, gitrepo.DescribeRepository(prepared.RepositoryURL)),
		zap.String(branchLogFieldNameConstant, prepared.Branch),
		zap.String(runIdentifierFieldNameConstant, runIdentifier),
	)
	logger.Debug(workspaceCreatedLogMessageConstant, zap.String(workspaceFieldNameConstant, workspace.Path()))
	defer service.releaseWorkspace(logger, workspace)

	repositoryPath := workspace.RepositoryPath()
	cloneError := service.backend.CloneBranch(executionContext, gitrepo.CloneOptions{
		RepositoryURL:   prepared.RepositoryURL,
		Branch:          prepared.Branch,
		DestinationPath: repositoryPath,
		Depth:           prepared.Depth,
		Credentials:     service.credentials,
	})
	if cloneError != nil {
		return PatchResult{}, newRepoAccessError(OperationClone, prepared.RepositoryURL, cloneError)
	}

	checkedOutBranch, branchError := service.backend.CurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		return PatchResult{}, newRepoAccessError(OperationCurrentBranch, prepared.RepositoryURL, branchError)
	}
	if checkedOutBranch != prepared.Branch {
		return PatchResult{}, BranchMismatchError{Requested: prepared.Branch, Actual: checkedOutBranch}
	}

	priorRevision, priorRevisionError := service.backend.HeadRevision(executionContext, repositoryPath)
	if priorRevisionError != nil {
		return PatchResult{}, newRepoAccessError(OperationHeadRevision, prepared.RepositoryURL, priorRevisionError)
	}
	logger.Debug(repositoryClonedLogMessageConstant, zap.String(commitHashFieldNameConstant, priorRevision))

	edit, editError := service.editFile(workspace, prepared)
	if editError != nil {
		return PatchResult{}, editError
	}
	fieldLogger := logger.With(
		zap.String(fileLogFieldNameConstant, prepared.FilePath),
		zap.String(queryPathLogFieldNameConstant, prepared.queryPath.String()),
		zap.String(previousValueFieldNameConstant, edit.PreviousValue),
	)
	if edit.Changed {
		fieldLogger.Info(fieldUpdatedLogMessageConstant)
	} else {
		fieldLogger.Info(fieldUnchangedLogMessageConstant)
	}

	if stageError := service.backend.StagePath(executionContext, repositoryPath, prepared.FilePath); stageError != nil {
		return PatchResult{}, newRepoAccessError(OperationStage, prepared.RepositoryURL, stageError)
	}
	hasStagedChanges, stagedError := service.backend.HasStagedChanges(executionContext, repositoryPath, prepared.FilePath)
	if stagedError != nil {
		return PatchResult{}, newRepoAccessError(OperationStagedChanges, prepared.RepositoryURL, stagedError)
	}

	if hasStagedChanges {
		commitError := service.backend.Commit(executionContext, gitrepo.CommitOptions{
			RepositoryPath: repositoryPath,
			Message:        prepared.CommitMessage,
			AuthorName:     prepared.AuthorName,
			AuthorEmail:    prepared.AuthorEmail,
		})
		if commitError != nil {
			return PatchResult{}, newRepoAccessError(OperationCommit, prepared.RepositoryURL, commitError)
		}
	} else {
		logger.Info(noStagedChangesLogMessageConstant)
	}

	headRevision, headError := service.backend.HeadRevision(executionContext, repositoryPath)
	if headError != nil {
		return PatchResult{}, newRepoAccessError(OperationHeadRevision, prepared.RepositoryURL, headError)
	}
	if hasStagedChanges {
		logger.Info(commitCreatedLogMessageConstant, zap.String(commitHashFieldNameConstant, headRevision))
	}

	pushError := service.backend.PushBranch(executionContext, gitrepo.PushOptions{
		RepositoryPath: repositoryPath,
		Branch:         prepared.Branch,
		Credentials:    service.credentials,
	})
	if pushError != nil {
		return PatchResult{}, newRepoAccessError(OperationPush, prepared.RepositoryURL, pushError)
	}
	logger.Info(branchPushedLogMessageConstant, zap.String(commitHashFieldNameConstant, headRevision))

	return PatchResult{
		CommitHash:    headRevision,
		Committed:     hasStagedChanges,
		Pushed:        true,
		PreviousValue: edit.PreviousValue,
	}, nil
}

func (service *Service) editFile(workspace *Workspace, prepared preparedRequest) (document.Edit, error) {
	targetPath, resolveError := workspace.ResolveFile(prepared.FilePath)
	if resolveError != nil {
		return document.Edit{}, InvalidRequestError{FieldName: filePathFieldNameConstant, Message: nonLocalFilePathMessageConstant, Cause: resolveError}
	}

	edit, editError := document.SetFileValue(targetPath, prepared.format, prepared.queryPath, prepared.NewValue)
	if errors.Is(editError, fs.ErrNotExist) {
		return document.Edit{}, InvalidRequestError{FieldName: filePathFieldNameConstant, Message: missingFileMessageConstant, Cause: editError}
	}
	return edit, editError
}

func (service *Service) releaseWorkspace(logger *zap.Logger, workspace *Workspace) {
	if service.keepWorkspace {
		logger.Info(workspaceKeptLogMessageConstant, zap.String(workspaceFieldNameConstant, workspace.Path()))
		return
	}
	if removeError := workspace.Remove(); removeError != nil {
		logger.Warn(workspaceCleanupLogMessageConstant, zap.String(workspaceFieldNameConstant, workspace.Path()), zap.Error(removeError))
	}
}
