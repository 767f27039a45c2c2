package gitrepo

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/temirov/fieldpatch/internal/execshell"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	sshUserDelimiterConstant            = "@"
	sshPathDelimiterConstant            = ":"
	httpsProtocolPrefixConstant         = "https://"
	httpProtocolPrefixConstant          = "http://"
	httpSchemeConstant                  = "http"
	httpsSchemeConstant                 = "https"
	gitUserPrefixConstant               = "git@"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	repositoryLabelTemplateConstant     = "%s/%s"
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
	RemoteProtocolHTTP  RemoteProtocol = RemoteProtocol("http")
)

// RemoteURL represents a structured git remote URL.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// Label renders the remote as owner/repository.
func (remote RemoteURL) Label() string {
	return fmt.Sprintf(repositoryLabelTemplateConstant, remote.Owner, remote.Repository)
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, execshell.RedactURL(parseError.Input), parseError.Message)
}

// ParseRemoteURL converts a textual remote URL into a structured representation.
// User information embedded in http(s) remotes is discarded.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		return parseSSHRemote(strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, gitUserPrefixConstant):
		return parseSSHRemote(trimmedRemote)
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant):
		return parseHTTPRemote(RemoteProtocolHTTPS, strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant):
		return parseHTTPRemote(RemoteProtocolHTTP, strings.TrimPrefix(trimmedRemote, httpProtocolPrefixConstant))
	}

	return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
}

// DescribeRepository returns owner/repository for recognised remotes and the redacted remote otherwise.
func DescribeRepository(remote string) string {
	parsedRemote, parseError := ParseRemoteURL(remote)
	if parseError != nil {
		return execshell.RedactURL(strings.TrimSpace(remote))
	}
	return parsedRemote.Label()
}

// IsHTTPRemote reports whether the remote is addressed over http or https.
func IsHTTPRemote(remote string) bool {
	parsedURL, parseError := url.Parse(strings.TrimSpace(remote))
	if parseError != nil {
		return false
	}
	scheme := strings.ToLower(parsedURL.Scheme)
	return scheme == httpSchemeConstant || scheme == httpsSchemeConstant
}

// AuthenticatedURL embeds the credentials into an http(s) remote.
// Other remotes, and empty credentials, leave the remote unchanged.
func AuthenticatedURL(remote string, credentials BasicCredentials) (string, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if credentials.IsZero() || !IsHTTPRemote(trimmedRemote) {
		return trimmedRemote, nil
	}

	parsedURL, parseError := url.Parse(trimmedRemote)
	if parseError != nil {
		return "", RemoteURLParseError{Input: trimmedRemote, Message: invalidRemoteURLMessageConstant}
	}
	parsedURL.User = url.UserPassword(credentials.Username, credentials.Password)
	return parsedURL.String(), nil
}

func parseSSHRemote(remote string) (RemoteURL, error) {
	userSplitIndex := strings.Index(remote, sshUserDelimiterConstant)
	if userSplitIndex == -1 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	hostAndPath := remote[userSplitIndex+1:]
	pathSplitIndex := strings.Index(hostAndPath, sshPathDelimiterConstant)
	var host string
	var path string
	if pathSplitIndex == -1 {
		slashIndex := strings.Index(hostAndPath, pathSeparatorConstant)
		if slashIndex == -1 {
			return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
		}
		host = hostAndPath[:slashIndex]
		path = hostAndPath[slashIndex+1:]
	} else {
		host = hostAndPath[:pathSplitIndex]
		path = hostAndPath[pathSplitIndex+1:]
	}
	owner, repository, parseError := splitOwnerAndRepository(path)
	if parseError != nil {
		return RemoteURL{}, parseError
	}
	return RemoteURL{Protocol: RemoteProtocolSSH, Host: host, Owner: owner, Repository: repository}, nil
}

func parseHTTPRemote(protocol RemoteProtocol, remote string) (RemoteURL, error) {
	if userSplitIndex := strings.Index(remote, sshUserDelimiterConstant); userSplitIndex != -1 {
		slashIndex := strings.Index(remote, pathSeparatorConstant)
		if slashIndex == -1 || userSplitIndex < slashIndex {
			remote = remote[userSplitIndex+1:]
		}
	}
	pathComponents := strings.Split(strings.TrimSuffix(remote, pathSeparatorConstant), pathSeparatorConstant)
	if len(pathComponents) < 3 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	host := pathComponents[0]
	owner := strings.Join(pathComponents[1:len(pathComponents)-1], pathSeparatorConstant)
	repository, parseError := normalizeRepositoryName(pathComponents[len(pathComponents)-1])
	if parseError != nil {
		return RemoteURL{}, parseError
	}
	return RemoteURL{Protocol: protocol, Host: host, Owner: owner, Repository: repository}, nil
}

func splitOwnerAndRepository(path string) (string, string, error) {
	segments := strings.Split(strings.TrimPrefix(path, pathSeparatorConstant), pathSeparatorConstant)
	if len(segments) < 2 {
		return "", "", RemoteURLParseError{Input: path, Message: invalidRemoteURLMessageConstant}
	}
	repository, parseError := normalizeRepositoryName(segments[len(segments)-1])
	if parseError != nil {
		return "", "", parseError
	}
	return strings.Join(segments[:len(segments)-1], pathSeparatorConstant), repository, nil
}

func normalizeRepositoryName(repository string) (string, error) {
	trimmed := strings.TrimSuffix(repository, gitSuffixConstant)
	if len(trimmed) == 0 {
		return "", RemoteURLParseError{Input: repository, Message: invalidRemoteURLMessageConstant}
	}
	return trimmed, nil
}
