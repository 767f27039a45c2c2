package patcher

import (
	"path/filepath"
	"strings"

	"github.com/temirov/fieldpatch/internal/document"
)

const (
	requiredValueMessageConstant    = "value required"
	nonLocalFilePathMessageConstant = "must be a relative path inside the repository"
	invalidQueryPathMessageConstant = "invalid query path"
	negativeDepthMessageConstant    = "must be zero or positive"
	repositoryURLFieldNameConstant  = "repo_url"
	branchFieldNameConstant         = "branch"
	filePathFieldNameConstant       = "file"
	queryPathFieldNameConstant      = "query_path"
	commitMessageFieldNameConstant  = "commit_message"
	authorNameFieldNameConstant     = "git_name"
	authorEmailFieldNameConstant    = "git_email"
	depthFieldNameConstant          = "depth"
	backendFieldNameConstant        = "backend"
)

// PatchRequest describes a single field update. Branch must already exist on the remote.
type PatchRequest struct {
	RepositoryURL string
	Branch        string
	FilePath      string
	QueryPath     string
	NewValue      string
	AuthorName    string
	AuthorEmail   string
	CommitMessage string
	// Format overrides extension based detection when set.
	Format string
	// Depth limits the clone history; zero clones everything.
	Depth int
}

// PatchResult reports the outcome of Apply.
type PatchResult struct {
	// CommitHash is HEAD after the operation, the prior HEAD when nothing was committed.
	CommitHash    string
	Committed     bool
	Pushed        bool
	PreviousValue string
}

// preparedRequest holds the parsed parts of a validated request.
type preparedRequest struct {
	PatchRequest
	queryPath document.QueryPath
	format    document.Format
}

// prepare validates the request. Identity problems are reported before any other field.
func (request PatchRequest) prepare() (preparedRequest, error) {
	if len(strings.TrimSpace(request.AuthorName)) == 0 {
		return preparedRequest{}, CommitIdentityError{Field: authorNameFieldNameConstant}
	}
	if len(strings.TrimSpace(request.AuthorEmail)) == 0 {
		return preparedRequest{}, CommitIdentityError{Field: authorEmailFieldNameConstant}
	}

	requiredFields := []struct {
		name  string
		value string
	}{
		{name: repositoryURLFieldNameConstant, value: request.RepositoryURL},
		{name: branchFieldNameConstant, value: request.Branch},
		{name: filePathFieldNameConstant, value: request.FilePath},
		{name: queryPathFieldNameConstant, value: request.QueryPath},
		{name: commitMessageFieldNameConstant, value: request.CommitMessage},
	}
	for _, requiredField := range requiredFields {
		if len(strings.TrimSpace(requiredField.value)) == 0 {
			return preparedRequest{}, InvalidRequestError{FieldName: requiredField.name, Message: requiredValueMessageConstant}
		}
	}

	if request.Depth < 0 {
		return preparedRequest{}, InvalidRequestError{FieldName: depthFieldNameConstant, Message: negativeDepthMessageConstant}
	}
	if !filepath.IsLocal(filepath.FromSlash(strings.TrimSpace(request.FilePath))) {
		return preparedRequest{}, InvalidRequestError{FieldName: filePathFieldNameConstant, Message: nonLocalFilePathMessageConstant}
	}

	queryPath, queryError := document.ParseQueryPath(request.QueryPath)
	if queryError != nil {
		return preparedRequest{}, InvalidRequestError{FieldName: queryPathFieldNameConstant, Message: invalidQueryPathMessageConstant, Cause: queryError}
	}

	format, formatError := document.DetectFormat(request.FilePath, request.Format)
	if formatError != nil {
		return preparedRequest{}, formatError
	}

	normalized := request
	normalized.RepositoryURL = strings.TrimSpace(request.RepositoryURL)
	normalized.Branch = strings.TrimSpace(request.Branch)
	normalized.FilePath = filepath.ToSlash(filepath.Clean(filepath.FromSlash(strings.TrimSpace(request.FilePath))))
	normalized.AuthorName = strings.TrimSpace(request.AuthorName)
	normalized.AuthorEmail = strings.TrimSpace(request.AuthorEmail)
	return preparedRequest{PatchRequest: normalized, queryPath: queryPath, format: format}, nil
}
