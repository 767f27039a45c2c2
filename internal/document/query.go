package document

import (
	"strconv"
	"strings"
)

const (
	querySeparatorCharacter            = '.'
	queryOpenBracketCharacter          = '['
	queryCloseBracketCharacter         = ']'
	queryQuoteCharacter                = '"'
	queryEscapeCharacter               = '\\'
	emptyQueryMessageConstant          = "path is empty"
	emptySegmentMessageConstant        = "empty segment"
	unterminatedQuoteMessageConstant   = "unterminated quoted key"
	unterminatedBracketMessageConstant = "unterminated bracket"
	invalidIndexMessageConstant        = "index must be a non-negative integer"
	unexpectedCharacterMessageConstant = "unexpected character"
	bareKeyForbiddenCharactersConstant = ".[]\""
)

// SegmentKind distinguishes mapping keys from sequence indexes.
type SegmentKind int

// Segment kinds.
const (
	SegmentKey SegmentKind = iota
	SegmentIndex
)

// Segment is one step of a query path.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

// String renders the segment the way it would appear in a path.
func (segment Segment) String() string {
	if segment.Kind == SegmentIndex {
		return "[" + strconv.Itoa(segment.Index) + "]"
	}
	if len(segment.Key) == 0 || strings.ContainsAny(segment.Key, bareKeyForbiddenCharactersConstant) || strings.TrimSpace(segment.Key) != segment.Key {
		return "[" + strconv.Quote(segment.Key) + "]"
	}
	return segment.Key
}

// QueryPath addresses a single node inside a structured document.
type QueryPath struct {
	expression string
	Segments   []Segment
}

// String returns the expression the path was parsed from.
func (path QueryPath) String() string {
	return path.expression
}

// ParseQueryPath parses expressions such as `.app.version`, `image.tag`,
// `.containers[0].image` and `.annotations["example.com/owner"]`.
// The leading dot is optional.
func ParseQueryPath(expression string) (QueryPath, error) {
	trimmedExpression := strings.TrimSpace(expression)
	parser := queryParser{expression: trimmedExpression}

	if len(trimmedExpression) == 0 || trimmedExpression == string(querySeparatorCharacter) {
		return QueryPath{}, parser.syntaxError(0, emptyQueryMessageConstant)
	}

	segments, parseError := parser.parse()
	if parseError != nil {
		return QueryPath{}, parseError
	}
	return QueryPath{expression: trimmedExpression, Segments: segments}, nil
}

type queryParser struct {
	expression string
	position   int
}

func (parser *queryParser) parse() ([]Segment, error) {
	var segments []Segment

	if parser.peek() == querySeparatorCharacter {
		parser.position++
	}
	firstSegment, firstError := parser.parseElement()
	if firstError != nil {
		return nil, firstError
	}
	segments = append(segments, firstSegment)

	for parser.position < len(parser.expression) {
		switch parser.peek() {
		case querySeparatorCharacter:
			parser.position++
			segment, segmentError := parser.parseElement()
			if segmentError != nil {
				return nil, segmentError
			}
			segments = append(segments, segment)
		case queryOpenBracketCharacter:
			segment, segmentError := parser.parseBracket()
			if segmentError != nil {
				return nil, segmentError
			}
			segments = append(segments, segment)
		default:
			return nil, parser.syntaxError(parser.position, unexpectedCharacterMessageConstant)
		}
	}
	return segments, nil
}

// parseElement reads the segment following a separator: a bare key, a quoted key, or a bracket.
func (parser *queryParser) parseElement() (Segment, error) {
	switch parser.peek() {
	case queryOpenBracketCharacter:
		return parser.parseBracket()
	case queryQuoteCharacter:
		key, keyError := parser.parseQuoted()
		if keyError != nil {
			return Segment{}, keyError
		}
		return Segment{Kind: SegmentKey, Key: key}, nil
	}

	start := parser.position
	for parser.position < len(parser.expression) && !strings.ContainsRune(bareKeyForbiddenCharactersConstant, rune(parser.expression[parser.position])) {
		parser.position++
	}
	if parser.position == start {
		return Segment{}, parser.syntaxError(start, emptySegmentMessageConstant)
	}
	return Segment{Kind: SegmentKey, Key: parser.expression[start:parser.position]}, nil
}

func (parser *queryParser) parseBracket() (Segment, error) {
	openingPosition := parser.position
	parser.position++

	var segment Segment
	if parser.peek() == queryQuoteCharacter {
		key, keyError := parser.parseQuoted()
		if keyError != nil {
			return Segment{}, keyError
		}
		segment = Segment{Kind: SegmentKey, Key: key}
	} else {
		closingOffset := strings.IndexByte(parser.expression[parser.position:], queryCloseBracketCharacter)
		if closingOffset == -1 {
			return Segment{}, parser.syntaxError(openingPosition, unterminatedBracketMessageConstant)
		}
		indexText := strings.TrimSpace(parser.expression[parser.position : parser.position+closingOffset])
		index, conversionError := strconv.Atoi(indexText)
		if conversionError != nil || index < 0 || strings.HasPrefix(indexText, "+") {
			return Segment{}, parser.syntaxError(parser.position, invalidIndexMessageConstant)
		}
		parser.position += closingOffset
		segment = Segment{Kind: SegmentIndex, Index: index}
	}

	if parser.peek() != queryCloseBracketCharacter {
		return Segment{}, parser.syntaxError(openingPosition, unterminatedBracketMessageConstant)
	}
	parser.position++
	return segment, nil
}

// parseQuoted reads a double-quoted key; backslash escapes the next character.
func (parser *queryParser) parseQuoted() (string, error) {
	openingPosition := parser.position
	parser.position++

	var builder strings.Builder
	for parser.position < len(parser.expression) {
		character := parser.expression[parser.position]
		switch character {
		case queryEscapeCharacter:
			if parser.position+1 >= len(parser.expression) {
				return "", parser.syntaxError(openingPosition, unterminatedQuoteMessageConstant)
			}
			builder.WriteByte(parser.expression[parser.position+1])
			parser.position += 2
		case queryQuoteCharacter:
			parser.position++
			return builder.String(), nil
		default:
			builder.WriteByte(character)
			parser.position++
		}
	}
	return "", parser.syntaxError(openingPosition, unterminatedQuoteMessageConstant)
}

func (parser *queryParser) peek() byte {
	if parser.position >= len(parser.expression) {
		return 0
	}
	return parser.expression[parser.position]
}

func (parser *queryParser) syntaxError(offset int, message string) QuerySyntaxError {
	return QuerySyntaxError{Expression: parser.expression, Offset: offset, Message: message}
}
