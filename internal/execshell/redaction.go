package execshell

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	redactedCredentialPlaceholderConstant = "***"
	urlSchemeSeparatorConstant            = "://"
)

var embeddedCredentialPattern = regexp.MustCompile(`(?i)(https?://)([^/@\s]+)@`)

// RedactURL removes any password or token embedded in the user information of a URL.
// Values that are not URLs are returned unchanged.
func RedactURL(rawURL string) string {
	if !strings.Contains(rawURL, urlSchemeSeparatorConstant) {
		return rawURL
	}
	parsedURL, parseError := url.Parse(rawURL)
	if parseError != nil || parsedURL.User == nil {
		return rawURL
	}
	if _, hasPassword := parsedURL.User.Password(); !hasPassword {
		return rawURL
	}
	parsedURL.User = url.UserPassword(parsedURL.User.Username(), redactedCredentialPlaceholderConstant)
	return strings.Replace(parsedURL.String(), url.QueryEscape(redactedCredentialPlaceholderConstant), redactedCredentialPlaceholderConstant, 1)
}

// RedactArguments returns a copy of the arguments with embedded URL credentials removed.
func RedactArguments(arguments []string) []string {
	redacted := make([]string, len(arguments))
	for argumentIndex, argument := range arguments {
		redacted[argumentIndex] = RedactURL(argument)
	}
	return redacted
}

// RedactText removes credentials from http(s) URLs appearing anywhere in free-form output such as stderr.
func RedactText(text string) string {
	return embeddedCredentialPattern.ReplaceAllString(text, "${1}"+redactedCredentialPlaceholderConstant+"@")
}
