package document

import (
	"fmt"
	"os"
)

const (
	unsupportedFormatTemplateConstant = "unsupported format %q"
)

// Edit is the outcome of setting a value.
type Edit struct {
	Content       []byte
	PreviousValue string
	// Changed is false when the target already held the value as a string; Content is then the input.
	Changed bool
}

// Editor sets a single string value addressed by a query path.
type Editor interface {
	Set(content []byte, path QueryPath, value string) (Edit, error)
}

// NewEditor returns the editor for the given format.
func NewEditor(format Format) (Editor, error) {
	switch format {
	case FormatYAML:
		return yamlEditor{}, nil
	case FormatJSON:
		return jsonEditor{}, nil
	default:
		return nil, FormatError{Format: format, Cause: fmt.Errorf(unsupportedFormatTemplateConstant, format)}
	}
}

// SetFileValue edits the file in place, keeping its permissions. The file is written only when the value changed.
func SetFileValue(filePath string, format Format, path QueryPath, value string) (Edit, error) {
	editor, editorError := NewEditor(format)
	if editorError != nil {
		return Edit{}, editorError
	}

	fileInfo, statError := os.Stat(filePath)
	if statError != nil {
		return Edit{}, statError
	}
	content, readError := os.ReadFile(filePath)
	if readError != nil {
		return Edit{}, readError
	}

	edit, setError := editor.Set(content, path, value)
	if setError != nil {
		return Edit{}, setError
	}
	if !edit.Changed {
		return edit, nil
	}

	if writeError := os.WriteFile(filePath, edit.Content, fileInfo.Mode().Perm()); writeError != nil {
		return Edit{}, writeError
	}
	return edit, nil
}
