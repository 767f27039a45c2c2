package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a structured text syntax.
type Format string

// Supported formats.
const (
	FormatYAML Format = Format("yaml")
	FormatJSON Format = Format("json")
)

const (
	yamlExtensionConstant                     = ".yaml"
	ymlExtensionConstant                      = ".yml"
	jsonExtensionConstant                     = ".json"
	unsupportedExtensionTemplateConstant      = "unsupported file extension %q"
	unsupportedFormatOverrideTemplateConstant = "unsupported format %q"
	missingExtensionMessageConstant           = "file has no extension; set the format explicitly"
)

var extensionFormats = map[string]Format{
	yamlExtensionConstant: FormatYAML,
	ymlExtensionConstant:  FormatYAML,
	jsonExtensionConstant: FormatJSON,
}

// DetectFormat returns the override when set, otherwise the format implied by the file extension.
func DetectFormat(filePath string, override string) (Format, error) {
	trimmedOverride := strings.ToLower(strings.TrimSpace(override))
	if len(trimmedOverride) > 0 {
		switch Format(trimmedOverride) {
		case FormatYAML, FormatJSON:
			return Format(trimmedOverride), nil
		case Format("yml"):
			return FormatYAML, nil
		default:
			return "", FormatError{Format: Format(trimmedOverride), Cause: fmt.Errorf(unsupportedFormatOverrideTemplateConstant, override)}
		}
	}

	extension := strings.ToLower(filepath.Ext(filePath))
	if len(extension) == 0 {
		return "", FormatError{Cause: errors.New(missingExtensionMessageConstant)}
	}
	detectedFormat, known := extensionFormats[extension]
	if !known {
		return "", FormatError{Cause: fmt.Errorf(unsupportedExtensionTemplateConstant, extension)}
	}
	return detectedFormat, nil
}
