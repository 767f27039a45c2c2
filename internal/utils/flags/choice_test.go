package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "cli",
			choices:        []string{"cli", "embedded"},
			description:    "Git implementation",
			expectedOutput: "`<CLI|embedded>` Git implementation",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "json",
			choices:        []string{"yaml", "json"},
			description:    "Document format",
			expectedOutput: "`<yaml|JSON>` Document format",
		},
		{
			name:           "NoDefault",
			defaultChoice:  "",
			choices:        []string{"yaml", "json"},
			description:    "Document format",
			expectedOutput: "`<yaml|json>` Document format",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "cli",
			choices:        []string{"cli", "embedded"},
			expectedOutput: "`<CLI|embedded>`",
		},
		{
			name:           "DuplicatesAndBlanksDropped",
			defaultChoice:  "embedded",
			choices:        []string{" embedded ", "Embedded", "", "cli"},
			description:    "Git implementation",
			expectedOutput: "`<EMBEDDED|cli>` Git implementation",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedOutput, FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}
