package patcher_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fieldpatch/internal/gitrepo"
	"github.com/temirov/fieldpatch/internal/gitrepo/embedded"
	"github.com/temirov/fieldpatch/internal/patcher"
)

func TestParseBackendKind(testInstance *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expected      patcher.BackendKind
		expectedError bool
	}{
		{name: "empty_defaults_to_cli", input: "", expected: patcher.BackendCLI},
		{name: "cli", input: "cli", expected: patcher.BackendCLI},
		{name: "embedded_mixed_case", input: " Embedded ", expected: patcher.BackendEmbedded},
		{name: "unknown", input: "libgit2", expectedError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			kind, parseError := patcher.ParseBackendKind(testCase.input)
			if testCase.expectedError {
				var requestError patcher.InvalidRequestError
				require.True(testInstance, errors.As(parseError, &requestError))
				require.Equal(testInstance, "backend", requestError.FieldName)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, kind)
		})
	}
}

func TestDefaultBackendResolver(testInstance *testing.T) {
	resolver := patcher.DefaultBackendResolver{}

	cliBackend, cliError := resolver.Resolve(nil, patcher.BackendCLI)
	require.NoError(testInstance, cliError)
	require.IsType(testInstance, &gitrepo.RepositoryManager{}, cliBackend)

	embeddedBackend, embeddedError := resolver.Resolve(nil, patcher.BackendEmbedded)
	require.NoError(testInstance, embeddedError)
	require.IsType(testInstance, &embedded.RepositoryManager{}, embeddedBackend)

	_, unknownError := resolver.Resolve(nil, patcher.BackendKind("svn"))
	require.Error(testInstance, unknownError)
}
