package gitrepo

import (
	"errors"
	"fmt"
)

const (
	requiredValueMessageConstant             = "value required"
	negativeDepthMessageConstant             = "must not be negative"
	gitExecutorNotConfiguredMessageConstant  = "git executor not configured"
	invalidInputErrorTemplateConstant        = "%s: %s"
	unexpectedRevisionOutputTemplateConstant = "unexpected revision output %q"
	repositoryURLFieldNameConstant           = "repository_url"
	branchFieldNameConstant                  = "branch"
	destinationPathFieldNameConstant         = "destination_path"
	depthFieldNameConstant                   = "depth"
	repositoryPathFieldNameConstant          = "repository_path"
	relativePathFieldNameConstant            = "relative_path"
	commitMessageFieldNameConstant           = "commit_message"
	authorNameFieldNameConstant              = "author_name"
	authorEmailFieldNameConstant             = "author_email"
)

// ErrGitExecutorNotConfigured indicates the repository manager was created without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// InvalidInputError reports a missing or malformed operation argument.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}
