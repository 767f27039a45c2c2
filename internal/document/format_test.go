package document_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fieldpatch/internal/document"
)

func TestDetectFormat(testInstance *testing.T) {
	testCases := []struct {
		name           string
		filePath       string
		override       string
		expectedFormat document.Format
		expectFailure  bool
	}{
		{name: "yaml_extension", filePath: "deploy/values.yaml", expectedFormat: document.FormatYAML},
		{name: "yml_extension", filePath: "deploy/values.YML", expectedFormat: document.FormatYAML},
		{name: "json_extension", filePath: "package.json", expectedFormat: document.FormatJSON},
		{name: "override_wins", filePath: "package.json", override: "yaml", expectedFormat: document.FormatYAML},
		{name: "override_alias", filePath: "Chartfile", override: " YML ", expectedFormat: document.FormatYAML},
		{name: "override_json", filePath: "settings.conf", override: "JSON", expectedFormat: document.FormatJSON},
		{name: "missing_extension", filePath: "Chartfile", expectFailure: true},
		{name: "unknown_extension", filePath: "config.toml", expectFailure: true},
		{name: "unknown_override", filePath: "values.yaml", override: "toml", expectFailure: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			detectedFormat, detectionError := document.DetectFormat(testCase.filePath, testCase.override)
			if testCase.expectFailure {
				var formatError document.FormatError
				require.True(testInstance, errors.As(detectionError, &formatError))
				return
			}
			require.NoError(testInstance, detectionError)
			require.Equal(testInstance, testCase.expectedFormat, detectedFormat)
		})
	}
}

func TestFormatErrorMessage(testInstance *testing.T) {
	cause := errors.New("boom")
	require.Equal(testInstance, "unable to process unknown document: boom", document.FormatError{Cause: cause}.Error())
	require.Equal(testInstance, "unable to process json document: boom", document.FormatError{Format: document.FormatJSON, Cause: cause}.Error())
	require.ErrorIs(testInstance, document.FormatError{Cause: cause}, cause)
}
