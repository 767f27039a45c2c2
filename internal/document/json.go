package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

const (
	invalidJSONMessageConstant  = "content is not valid JSON"
	jsonValueSeparatorsConstant = " \t\r\n:,"
)

var errInvalidJSON = errors.New(invalidJSONMessageConstant)

type jsonEditor struct{}

type jsonFrame struct {
	object      bool
	awaitingKey bool
	key         string
	index       int
}

type jsonLocation struct {
	start         int
	end           int
	previousValue string
	isString      bool
}

// Set replaces the bytes of the addressed value with a JSON string literal, leaving all other bytes untouched.
func (editor jsonEditor) Set(content []byte, path QueryPath, value string) (Edit, error) {
	if !json.Valid(content) {
		return Edit{}, FormatError{Format: FormatJSON, Cause: errInvalidJSON}
	}

	location, deepestResolved, locateError := locateJSONValue(content, path)
	if locateError != nil {
		return Edit{}, FormatError{Format: FormatJSON, Cause: locateError}
	}
	if location == nil {
		return Edit{}, PathNotFoundError{Path: path.String(), Segment: path.Segments[deepestResolved].String()}
	}

	if location.isString && location.previousValue == value {
		return Edit{Content: content, PreviousValue: location.previousValue, Changed: false}, nil
	}

	replacement, encodeError := encodeJSONString(value)
	if encodeError != nil {
		return Edit{}, FormatError{Format: FormatJSON, Cause: encodeError}
	}

	updated := make([]byte, 0, len(content)-(location.end-location.start)+len(replacement))
	updated = append(updated, content[:location.start]...)
	updated = append(updated, replacement...)
	updated = append(updated, content[location.end:]...)
	return Edit{Content: updated, PreviousValue: location.previousValue, Changed: true}, nil
}

// locateJSONValue streams tokens while tracking the path of each value. It returns the byte
// range of the addressed value, or nil together with the number of leading segments that matched.
func locateJSONValue(content []byte, path QueryPath) (*jsonLocation, int, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()

	var stack []jsonFrame
	deepestResolved := 0

	for {
		offsetBefore := int(decoder.InputOffset())
		token, tokenError := decoder.Token()
		if errors.Is(tokenError, io.EOF) {
			return nil, deepestResolved, nil
		}
		if tokenError != nil {
			return nil, deepestResolved, tokenError
		}

		if len(stack) > 0 && stack[len(stack)-1].object && stack[len(stack)-1].awaitingKey {
			if delimiter, isDelimiter := token.(json.Delim); isDelimiter && delimiter == '}' {
				stack = completeJSONValue(stack[:len(stack)-1])
				continue
			}
			key, _ := token.(string)
			stack[len(stack)-1].key = key
			stack[len(stack)-1].awaitingKey = false
			continue
		}

		if delimiter, isDelimiter := token.(json.Delim); isDelimiter && delimiter == ']' {
			stack = completeJSONValue(stack[:len(stack)-1])
			continue
		}

		matched := matchedJSONSegments(stack, path)
		if matched > deepestResolved {
			deepestResolved = matched
		}

		if matched == len(path.Segments) && len(stack) == len(path.Segments) {
			start := skipJSONSeparators(content, offsetBefore)
			location := &jsonLocation{start: start}
			switch typedToken := token.(type) {
			case json.Delim:
				if skipError := skipJSONComposite(decoder); skipError != nil {
					return nil, deepestResolved, skipError
				}
			case string:
				location.previousValue = typedToken
				location.isString = true
			default:
				location.previousValue = string(bytes.TrimSpace(content[start:int(decoder.InputOffset())]))
			}
			location.end = int(decoder.InputOffset())
			return location, deepestResolved, nil
		}

		switch token {
		case json.Delim('{'):
			stack = append(stack, jsonFrame{object: true, awaitingKey: true})
		case json.Delim('['):
			stack = append(stack, jsonFrame{})
		default:
			stack = completeJSONValue(stack)
		}
	}
}

// completeJSONValue advances the innermost container past a finished value.
func completeJSONValue(stack []jsonFrame) []jsonFrame {
	if len(stack) == 0 {
		return stack
	}
	top := &stack[len(stack)-1]
	if top.object {
		top.awaitingKey = true
	} else {
		top.index++
	}
	return stack
}

// matchedJSONSegments counts how many leading path segments agree with the current container stack.
func matchedJSONSegments(stack []jsonFrame, path QueryPath) int {
	matched := 0
	for frameIndex, frame := range stack {
		if frameIndex >= len(path.Segments) {
			break
		}
		segment := path.Segments[frameIndex]
		switch {
		case frame.object && segment.Kind == SegmentKey && frame.key == segment.Key:
		case !frame.object && segment.Kind == SegmentIndex && frame.index == segment.Index:
		default:
			return matched
		}
		matched++
	}
	return matched
}

func skipJSONComposite(decoder *json.Decoder) error {
	depth := 1
	for depth > 0 {
		token, tokenError := decoder.Token()
		if tokenError != nil {
			return tokenError
		}
		switch token {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
	return nil
}

func skipJSONSeparators(content []byte, offset int) int {
	for offset < len(content) && bytes.IndexByte([]byte(jsonValueSeparatorsConstant), content[offset]) != -1 {
		offset++
	}
	return offset
}

func encodeJSONString(value string) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if encodeError := encoder.Encode(value); encodeError != nil {
		return nil, encodeError
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}
