package document

import (
	"fmt"
	"strings"
)

const (
	pathNotFoundErrorTemplateConstant = "path %s not found: segment %s does not resolve"
	formatErrorTemplateConstant       = "unable to process %s document: %v"
	querySyntaxErrorTemplateConstant  = "invalid query path %q at offset %d: %s"
	unknownFormatLabelConstant        = "unknown"
)

// PathNotFoundError reports a query path that does not resolve in any document.
type PathNotFoundError struct {
	Path    string
	Segment string
}

// Error describes the unresolved segment.
func (notFoundError PathNotFoundError) Error() string {
	return fmt.Sprintf(pathNotFoundErrorTemplateConstant, notFoundError.Path, notFoundError.Segment)
}

// FormatError reports a document that could not be parsed or rendered, or an unsupported format.
type FormatError struct {
	Format Format
	Cause  error
}

// Error describes the format failure.
func (formatError FormatError) Error() string {
	formatLabel := strings.TrimSpace(string(formatError.Format))
	if len(formatLabel) == 0 {
		formatLabel = unknownFormatLabelConstant
	}
	return fmt.Sprintf(formatErrorTemplateConstant, formatLabel, formatError.Cause)
}

// Unwrap exposes the underlying cause.
func (formatError FormatError) Unwrap() error {
	return formatError.Cause
}

// QuerySyntaxError reports a malformed query path expression.
type QuerySyntaxError struct {
	Expression string
	Offset     int
	Message    string
}

// Error describes the syntax problem.
func (syntaxError QuerySyntaxError) Error() string {
	return fmt.Sprintf(querySyntaxErrorTemplateConstant, syntaxError.Expression, syntaxError.Offset, syntaxError.Message)
}
