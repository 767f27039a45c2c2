package credentials

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"

	"github.com/temirov/fieldpatch/internal/gitrepo"
)

// Environment variable names consulted for git credentials.
const (
	EnvGitUsername    = "GIT_USERNAME"
	EnvGitPassword    = "GIT_PASSWORD"
	EnvGitToken       = "GIT_TOKEN"
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

const (
	tokenUsernameConstant                      = "x-access-token"
	environmentProcessingErrorTemplateConstant = "unable to read credentials from environment: %w"
)

// Credentials captures the secrets available to an invocation.
type Credentials struct {
	Username       string `env:"GIT_USERNAME"`
	Password       string `env:"GIT_PASSWORD"`
	Token          string `env:"GIT_TOKEN"`
	GitHubCLIToken string `env:"GH_TOKEN"`
	GitHubToken    string `env:"GITHUB_TOKEN"`
	GitHubAPIToken string `env:"GITHUB_API_TOKEN"`
}

// FromEnvironment reads credentials from the process environment.
func FromEnvironment(executionContext context.Context) (Credentials, error) {
	var loaded Credentials
	if processError := envconfig.Process(executionContext, &loaded); processError != nil {
		return Credentials{}, fmt.Errorf(environmentProcessingErrorTemplateConstant, processError)
	}
	return loaded, nil
}

// FromMap reads credentials from the provided environment map instead of the process environment.
func FromMap(executionContext context.Context, environment map[string]string) (Credentials, error) {
	var loaded Credentials
	processError := envconfig.ProcessWith(executionContext, &envconfig.Config{
		Target:   &loaded,
		Lookuper: envconfig.MapLookuper(environment),
	})
	if processError != nil {
		return Credentials{}, fmt.Errorf(environmentProcessingErrorTemplateConstant, processError)
	}
	return loaded, nil
}

// BasicAuth resolves the username and secret used for http(s) remotes.
// An explicit password wins over GIT_TOKEN, which wins over the GitHub tokens
// in GH_TOKEN, GITHUB_TOKEN, GITHUB_API_TOKEN order. Tokens without a username
// authenticate as x-access-token.
func (credentials Credentials) BasicAuth() gitrepo.BasicCredentials {
	username := strings.TrimSpace(credentials.Username)

	if password := strings.TrimSpace(credentials.Password); len(password) > 0 {
		return gitrepo.BasicCredentials{Username: username, Password: password}
	}

	token, tokenAvailable := credentials.resolveToken()
	if !tokenAvailable {
		return gitrepo.BasicCredentials{}
	}
	if len(username) == 0 {
		username = tokenUsernameConstant
	}
	return gitrepo.BasicCredentials{Username: username, Password: token}
}

func (credentials Credentials) resolveToken() (string, bool) {
	for _, candidate := range []string{credentials.Token, credentials.GitHubCLIToken, credentials.GitHubToken, credentials.GitHubAPIToken} {
		trimmedCandidate := strings.TrimSpace(candidate)
		if len(trimmedCandidate) > 0 {
			return trimmedCandidate, true
		}
	}
	return "", false
}
