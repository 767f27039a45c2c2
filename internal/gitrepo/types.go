package gitrepo

import "strings"

const (
	defaultRemoteNameConstant = "origin"
)

// DefaultRemoteName is the remote created by a clone.
const DefaultRemoteName = defaultRemoteNameConstant

// BasicCredentials carries the username and secret used for http(s) remotes.
type BasicCredentials struct {
	Username string
	Password string
}

// IsZero reports whether no secret is available.
func (credentials BasicCredentials) IsZero() bool {
	return len(strings.TrimSpace(credentials.Password)) == 0
}

// CloneOptions describes a single-branch clone.
type CloneOptions struct {
	RepositoryURL   string
	Branch          string
	DestinationPath string
	// Depth limits history; zero requests the full history.
	Depth       int
	Credentials BasicCredentials
}

// CommitOptions describes a commit whose author and committer identity apply to that commit only.
type CommitOptions struct {
	RepositoryPath string
	Message        string
	AuthorName     string
	AuthorEmail    string
}

// PushOptions describes pushing HEAD to a branch on a remote.
type PushOptions struct {
	RepositoryPath string
	RemoteName     string
	Branch         string
	Credentials    BasicCredentials
}

// Validate reports the first missing or malformed clone argument.
func (options CloneOptions) Validate() error {
	if len(strings.TrimSpace(options.RepositoryURL)) == 0 {
		return InvalidInputError{FieldName: repositoryURLFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.Branch)) == 0 {
		return InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.DestinationPath)) == 0 {
		return InvalidInputError{FieldName: destinationPathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if options.Depth < 0 {
		return InvalidInputError{FieldName: depthFieldNameConstant, Message: negativeDepthMessageConstant}
	}
	return nil
}

// Validate reports the first missing commit argument.
func (options CommitOptions) Validate() error {
	if validationError := ValidateRepositoryPath(options.RepositoryPath); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(options.Message)) == 0 {
		return InvalidInputError{FieldName: commitMessageFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.AuthorName)) == 0 {
		return InvalidInputError{FieldName: authorNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.AuthorEmail)) == 0 {
		return InvalidInputError{FieldName: authorEmailFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

// Validate reports the first missing push argument.
func (options PushOptions) Validate() error {
	if validationError := ValidateRepositoryPath(options.RepositoryPath); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(options.Branch)) == 0 {
		return InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

// ResolvedRemoteName returns RemoteName or DefaultRemoteName when unset.
func (options PushOptions) ResolvedRemoteName() string {
	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		return DefaultRemoteName
	}
	return remoteName
}

// ValidateRepositoryPath rejects an empty repository path.
func ValidateRepositoryPath(repositoryPath string) error {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return InvalidInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

// ValidatePathArguments rejects an empty repository path or repository-relative path.
func ValidatePathArguments(repositoryPath string, relativePath string) error {
	if validationError := ValidateRepositoryPath(repositoryPath); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(relativePath)) == 0 {
		return InvalidInputError{FieldName: relativePathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}
