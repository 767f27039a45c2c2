package document

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	yamlStringTagConstant       = "!!str"
	yamlDefaultIndentConstant   = 2
	yamlFlowIndicatorsConstant  = ",[]{}#"
	yamlAnchorIndicatorConstant = '&'
	yamlTagIndicatorConstant    = '!'
	yamlMergeKeyConstant        = "<<"
)

type yamlEditor struct{}

type yamlTarget struct {
	slot     *yaml.Node
	resolved *yaml.Node
}

type yamlSplice struct {
	start       int
	end         int
	replacement []byte
}

// Set rewrites the addressed node in every document where the path resolves.
func (editor yamlEditor) Set(content []byte, path QueryPath, value string) (Edit, error) {
	documents, decodeError := decodeYAMLDocuments(content)
	if decodeError != nil {
		return Edit{}, FormatError{Format: FormatYAML, Cause: decodeError}
	}
	if len(documents) == 0 {
		return Edit{}, PathNotFoundError{Path: path.String(), Segment: path.Segments[0].String()}
	}

	var targets []yamlTarget
	deepestResolved := 0
	for _, documentNode := range documents {
		target, resolvedDepth, found := resolveYAMLPath(documentNode, path)
		if resolvedDepth > deepestResolved {
			deepestResolved = resolvedDepth
		}
		if found {
			targets = append(targets, target)
		}
	}
	if len(targets) == 0 {
		return Edit{}, PathNotFoundError{Path: path.String(), Segment: path.Segments[deepestResolved].String()}
	}

	previousValue := scalarValue(targets[0].resolved)
	changedTargets := make([]yamlTarget, 0, len(targets))
	for _, target := range targets {
		if !isStringScalar(target.resolved, value) {
			changedTargets = append(changedTargets, target)
		}
	}
	if len(changedTargets) == 0 {
		return Edit{Content: content, PreviousValue: previousValue, Changed: false}, nil
	}

	splices := make([]yamlSplice, 0, len(changedTargets))
	for _, target := range changedTargets {
		splice, spliceable := planYAMLSplice(content, target.slot, value)
		if !spliceable {
			return editor.reencode(content, documents, changedTargets, value, previousValue)
		}
		splices = append(splices, splice)
	}

	return Edit{Content: applySplices(content, splices), PreviousValue: previousValue, Changed: true}, nil
}

// reencode replaces every target node and renders the whole stream again.
func (editor yamlEditor) reencode(content []byte, documents []*yaml.Node, targets []yamlTarget, value string, previousValue string) (Edit, error) {
	for _, target := range targets {
		replacement := &yaml.Node{
			Kind:        yaml.ScalarNode,
			Tag:         yamlStringTagConstant,
			Value:       value,
			Style:       quotingStyle(target.slot),
			Anchor:      anchorOf(target.slot),
			HeadComment: target.slot.HeadComment,
			LineComment: target.slot.LineComment,
			FootComment: target.slot.FootComment,
		}
		*target.slot = *replacement
	}

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(detectYAMLIndent(content))
	for _, documentNode := range documents {
		if encodeError := encoder.Encode(documentNode); encodeError != nil {
			return Edit{}, FormatError{Format: FormatYAML, Cause: encodeError}
		}
	}
	if closeError := encoder.Close(); closeError != nil {
		return Edit{}, FormatError{Format: FormatYAML, Cause: closeError}
	}
	return Edit{Content: buffer.Bytes(), PreviousValue: previousValue, Changed: true}, nil
}

func decodeYAMLDocuments(content []byte) ([]*yaml.Node, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	var documents []*yaml.Node
	for {
		documentNode := &yaml.Node{}
		decodeError := decoder.Decode(documentNode)
		if errors.Is(decodeError, io.EOF) {
			return documents, nil
		}
		if decodeError != nil {
			return nil, decodeError
		}
		documents = append(documents, documentNode)
	}
}

// resolveYAMLPath walks the path from a document node. It returns the slot holding
// the final node, the number of segments that resolved, and whether all of them did.
// Aliases are followed for every container on the way; the final slot may itself be an alias.
func resolveYAMLPath(documentNode *yaml.Node, path QueryPath) (yamlTarget, int, bool) {
	current := documentNode
	if current.Kind == yaml.DocumentNode {
		if len(current.Content) == 0 {
			return yamlTarget{}, 0, false
		}
		current = current.Content[0]
	}

	for segmentIndex, segment := range path.Segments {
		container := followAlias(current)
		var next *yaml.Node
		switch segment.Kind {
		case SegmentKey:
			next = lookupMappingValue(container, segment.Key)
		case SegmentIndex:
			if container.Kind == yaml.SequenceNode && segment.Index < len(container.Content) {
				next = container.Content[segment.Index]
			}
		}
		if next == nil {
			return yamlTarget{}, segmentIndex, false
		}
		current = next
	}
	return yamlTarget{slot: current, resolved: followAlias(current)}, len(path.Segments), true
}

// lookupMappingValue finds a key in a mapping, consulting merge keys when it is not present directly.
func lookupMappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for pairIndex := 0; pairIndex+1 < len(mapping.Content); pairIndex += 2 {
		keyNode := followAlias(mapping.Content[pairIndex])
		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key && keyNode.Tag != "!!merge" {
			return mapping.Content[pairIndex+1]
		}
	}
	for pairIndex := 0; pairIndex+1 < len(mapping.Content); pairIndex += 2 {
		keyNode := mapping.Content[pairIndex]
		if keyNode.Kind != yaml.ScalarNode || keyNode.Value != yamlMergeKeyConstant {
			continue
		}
		merged := followAlias(mapping.Content[pairIndex+1])
		sources := []*yaml.Node{merged}
		if merged.Kind == yaml.SequenceNode {
			sources = merged.Content
		}
		for _, source := range sources {
			if found := lookupMappingValue(followAlias(source), key); found != nil {
				return found
			}
		}
	}
	return nil
}

func followAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isStringScalar(node *yaml.Node, value string) bool {
	return node != nil && node.Kind == yaml.ScalarNode && node.ShortTag() == yamlStringTagConstant && node.Value == value
}

func scalarValue(node *yaml.Node) string {
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

// anchorOf keeps the anchor of an anchored node so aliases to it stay valid.
func anchorOf(node *yaml.Node) string {
	if node.Kind == yaml.AliasNode {
		return ""
	}
	return node.Anchor
}

// quotingStyle keeps single or double quoting from the replaced scalar; everything else starts plain.
func quotingStyle(node *yaml.Node) yaml.Style {
	if node.Kind != yaml.ScalarNode {
		return 0
	}
	return node.Style & (yaml.SingleQuotedStyle | yaml.DoubleQuotedStyle)
}

// planYAMLSplice locates the source bytes of a single-line scalar and renders its replacement.
func planYAMLSplice(content []byte, slot *yaml.Node, value string) (yamlSplice, bool) {
	if slot.Kind != yaml.ScalarNode || slot.Style&(yaml.LiteralStyle|yaml.FoldedStyle|yaml.TaggedStyle) != 0 {
		return yamlSplice{}, false
	}

	start, located := byteOffset(content, slot.Line, slot.Column)
	if !located || start >= len(content) {
		return yamlSplice{}, false
	}
	if content[start] == yamlAnchorIndicatorConstant || content[start] == yamlTagIndicatorConstant {
		return yamlSplice{}, false
	}

	end, measured := scalarTokenEnd(content, start, slot)
	if !measured {
		return yamlSplice{}, false
	}

	replacement, rendered := renderYAMLScalar(value, quotingStyle(slot))
	if !rendered {
		return yamlSplice{}, false
	}
	return yamlSplice{start: start, end: end, replacement: replacement}, true
}

// byteOffset converts a 1-based line and rune column into a byte offset.
func byteOffset(content []byte, line int, column int) (int, bool) {
	if line < 1 || column < 1 {
		return 0, false
	}
	offset := 0
	for currentLine := 1; currentLine < line; currentLine++ {
		newlineIndex := bytes.IndexByte(content[offset:], '\n')
		if newlineIndex == -1 {
			return 0, false
		}
		offset += newlineIndex + 1
	}
	for currentColumn := 1; currentColumn < column; currentColumn++ {
		if offset >= len(content) || content[offset] == '\n' {
			return 0, false
		}
		_, runeWidth := utf8.DecodeRune(content[offset:])
		offset += runeWidth
	}
	return offset, true
}

// scalarTokenEnd returns the offset just past the scalar token starting at start,
// refusing tokens that continue onto another line.
func scalarTokenEnd(content []byte, start int, slot *yaml.Node) (int, bool) {
	switch {
	case slot.Style&yaml.DoubleQuotedStyle != 0:
		for offset := start + 1; offset < len(content); offset++ {
			switch content[offset] {
			case '\\':
				offset++
			case '"':
				return offset + 1, true
			case '\n':
				return 0, false
			}
		}
		return 0, false
	case slot.Style&yaml.SingleQuotedStyle != 0:
		for offset := start + 1; offset < len(content); offset++ {
			switch content[offset] {
			case '\'':
				if offset+1 < len(content) && content[offset+1] == '\'' {
					offset++
					continue
				}
				return offset + 1, true
			case '\n':
				return 0, false
			}
		}
		return 0, false
	default:
		if len(slot.Value) == 0 || !bytes.HasPrefix(content[start:], []byte(slot.Value)) {
			return 0, false
		}
		return start + len(slot.Value), true
	}
}

// renderYAMLScalar renders value as a string scalar token that fits on one line.
// Plain style is kept only when the value still reads back as a string.
func renderYAMLScalar(value string, style yaml.Style) ([]byte, bool) {
	token, renderError := marshalScalar(value, style)
	if renderError != nil {
		return nil, false
	}
	if style == 0 && !isQuoted(token) && (strings.ContainsAny(string(token), yamlFlowIndicatorsConstant) || isLegacyNonString(value)) {
		token, renderError = marshalScalar(value, yaml.DoubleQuotedStyle)
		if renderError != nil {
			return nil, false
		}
	}
	if bytes.ContainsAny(token, "\r\n") || len(token) == 0 {
		return nil, false
	}
	return token, true
}

func marshalScalar(value string, style yaml.Style) ([]byte, error) {
	rendered, marshalError := yaml.Marshal(&yaml.Node{Kind: yaml.ScalarNode, Tag: yamlStringTagConstant, Value: value, Style: style})
	if marshalError != nil {
		return nil, marshalError
	}
	return bytes.TrimSuffix(rendered, []byte("\n")), nil
}

// isLegacyNonString reports plain values that YAML 1.1 readers resolve to booleans.
func isLegacyNonString(value string) bool {
	switch strings.ToLower(value) {
	case "y", "yes", "n", "no", "on", "off":
		return true
	default:
		return false
	}
}

func isQuoted(token []byte) bool {
	return len(token) >= 2 && (token[0] == '"' || token[0] == '\'')
}

func applySplices(content []byte, splices []yamlSplice) []byte {
	sort.Slice(splices, func(leftIndex int, rightIndex int) bool {
		return splices[leftIndex].start > splices[rightIndex].start
	})
	updated := append([]byte{}, content...)
	for _, splice := range splices {
		tail := append([]byte{}, updated[splice.end:]...)
		updated = append(append(updated[:splice.start], splice.replacement...), tail...)
	}
	return updated
}

// detectYAMLIndent returns the smallest indentation used by a nested line, defaulting to two spaces.
func detectYAMLIndent(content []byte) int {
	smallestIndent := 0
	for _, line := range strings.Split(string(content), "\n") {
		trimmedLine := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmedLine)
		if indent == 0 || len(strings.TrimSpace(trimmedLine)) == 0 || strings.HasPrefix(trimmedLine, "#") {
			continue
		}
		if smallestIndent == 0 || indent < smallestIndent {
			smallestIndent = indent
		}
	}
	if smallestIndent < yamlDefaultIndentConstant {
		return yamlDefaultIndentConstant
	}
	return smallestIndent
}
