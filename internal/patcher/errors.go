package patcher

import (
	"errors"
	"fmt"

	"github.com/temirov/fieldpatch/internal/execshell"
)

const (
	gitBackendMissingMessageConstant    = "git backend not configured"
	repoAccessErrorTemplateConstant     = "%s failed for %s: %v"
	commitIdentityErrorTemplateConstant = "commit identity incomplete: %s is required"
	branchMismatchErrorTemplateConstant = "checked out branch %q does not match requested branch %q"
	invalidRequestErrorTemplateConstant = "%s: %s"
	invalidRequestCauseTemplateConstant = "%s: %s: %v"
)

// ErrGitBackendNotConfigured indicates the service was created without a git backend.
var ErrGitBackendNotConfigured = errors.New(gitBackendMissingMessageConstant)

// Repository operations reported by RepoAccessError.
const (
	OperationClone         = "clone"
	OperationCurrentBranch = "branch inspection"
	OperationStage         = "stage"
	OperationStagedChanges = "staged diff"
	OperationCommit        = "commit"
	OperationPush          = "push"
	OperationHeadRevision  = "HEAD resolution"
)

// RepoAccessError reports a failed git operation. Repository never carries credentials.
type RepoAccessError struct {
	Operation  string
	Repository string
	Cause      error
}

func newRepoAccessError(operation string, repositoryURL string, cause error) RepoAccessError {
	return RepoAccessError{Operation: operation, Repository: execshell.RedactText(repositoryURL), Cause: cause}
}

// Error describes the failed operation.
func (accessError RepoAccessError) Error() string {
	return fmt.Sprintf(repoAccessErrorTemplateConstant, accessError.Operation, accessError.Repository, accessError.Cause)
}

// Unwrap exposes the underlying cause.
func (accessError RepoAccessError) Unwrap() error {
	return accessError.Cause
}

// CommitIdentityError reports a missing author name or email.
type CommitIdentityError struct {
	Field string
}

// Error describes the missing identity field.
func (identityError CommitIdentityError) Error() string {
	return fmt.Sprintf(commitIdentityErrorTemplateConstant, identityError.Field)
}

// BranchMismatchError reports a clone whose checked-out branch is not the requested one.
type BranchMismatchError struct {
	Requested string
	Actual    string
}

// Error describes the mismatch.
func (mismatchError BranchMismatchError) Error() string {
	return fmt.Sprintf(branchMismatchErrorTemplateConstant, mismatchError.Actual, mismatchError.Requested)
}

// InvalidRequestError reports a missing or malformed request field.
type InvalidRequestError struct {
	FieldName string
	Message   string
	Cause     error
}

// Error describes the invalid field.
func (requestError InvalidRequestError) Error() string {
	if requestError.Cause != nil {
		return fmt.Sprintf(invalidRequestCauseTemplateConstant, requestError.FieldName, requestError.Message, requestError.Cause)
	}
	return fmt.Sprintf(invalidRequestErrorTemplateConstant, requestError.FieldName, requestError.Message)
}

// Unwrap exposes the underlying cause, if any.
func (requestError InvalidRequestError) Unwrap() error {
	return requestError.Cause
}
