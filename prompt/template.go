package prompt

import (
	"strings"

	"github.com/promptwire/promptwire/core"
)

// FieldTag selects how a bound value is converted into content parts.
type FieldTag string

// The closed set of field tags. TagText is the default when a placeholder
// carries no tag.
const (
	TagText   FieldTag = ""
	TagImage  FieldTag = "image"
	TagImages FieldTag = "images"
	TagAudio  FieldTag = "audio"
	TagAudios FieldTag = "audios"
	TagList   FieldTag = "list"
	TagLists  FieldTag = "lists"
)

var validTags = map[FieldTag]struct{}{
	TagText: {}, TagImage: {}, TagImages: {},
	TagAudio: {}, TagAudios: {}, TagList: {}, TagLists: {},
}

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenField
)

// token is one literal run or one {field:tag} placeholder.
type token struct {
	kind  tokenKind
	text  string // literal text, tokenLiteral only
	field string
	tag   FieldTag
}

type segmentKind int

const (
	segmentMessage segmentKind = iota
	segmentSplice
)

// segment is one role-delimited region of the template.
type segment struct {
	kind   segmentKind
	role   core.Role
	field  string  // splice field, segmentSplice only
	tokens []token // segmentMessage only
}

// Template is an immutable parsed prompt template. Safe for concurrent use.
type Template struct {
	source   string // dedented, trimmed template text
	flat     []token
	segments []segment
}

// Source returns the normalized template text.
func (t *Template) Source() string { return t.source }

// FieldNames returns the distinct field names referenced by the template,
// in first-appearance order.
func (t *Template) FieldNames() []string {
	seen := map[string]struct{}{}
	var names []string
	for _, tok := range t.flat {
		if tok.kind != tokenField {
			continue
		}
		if _, ok := seen[tok.field]; ok {
			continue
		}
		seen[tok.field] = struct{}{}
		names = append(names, tok.field)
	}
	for _, seg := range t.segments {
		if seg.kind != segmentSplice {
			continue
		}
		if _, ok := seen[seg.field]; !ok {
			seen[seg.field] = struct{}{}
			names = append(names, seg.field)
		}
	}
	return names
}

type roleMarker struct {
	prefix string
	role   core.Role
	splice bool
}

var roleMarkers = []roleMarker{
	{prefix: "SYSTEM:", role: core.RoleSystem},
	{prefix: "USER:", role: core.RoleUser},
	{prefix: "ASSISTANT:", role: core.RoleAssistant},
	{prefix: "MESSAGES:", splice: true},
}

// Parse parses a template string into role-delimited token segments.
// Common indentation and surrounding blank lines are stripped first, so
// indented docstring-style literals parse the same as flat strings.
// Parsing the same input always yields a structurally equal Template.
func Parse(template string) (*Template, error) {
	source := normalize(template)

	tmpl := &Template{source: source}

	// Flat scan with role markers kept as literals. Render uses this, and
	// it surfaces brace errors for the whole template up front.
	flat, err := scanTokens(source)
	if err != nil {
		return nil, err
	}
	tmpl.flat = flat

	type rawSegment struct {
		marker roleMarker
		marked bool
		lines  []string
	}

	segs := []rawSegment{{marker: roleMarker{role: core.RoleUser}}}
	for _, line := range strings.Split(source, "\n") {
		if m, rest, ok := markerAt(line); ok {
			segs = append(segs, rawSegment{marker: m, marked: true, lines: []string{rest}})
			continue
		}
		if err := checkMidLineMarker(line); err != nil {
			return nil, err
		}
		segs[len(segs)-1].lines = append(segs[len(segs)-1].lines, line)
	}

	for _, raw := range segs {
		body := strings.TrimSpace(strings.Join(raw.lines, "\n"))
		if err := checkMidLineMarkerRest(raw.lines); err != nil {
			return nil, err
		}
		if body == "" {
			continue
		}
		tokens, err := scanTokens(body)
		if err != nil {
			return nil, err
		}
		if raw.marker.splice {
			seg, err := spliceSegment(tokens)
			if err != nil {
				return nil, err
			}
			tmpl.segments = append(tmpl.segments, seg)
			continue
		}
		tmpl.segments = append(tmpl.segments, segment{
			kind:   segmentMessage,
			role:   raw.marker.role,
			tokens: tokens,
		})
	}

	return tmpl, nil
}

// normalize strips uniform leading indentation and surrounding blank lines.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")

	indent := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		n := len(line) - len(trimmed)
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent > 0 {
		for i, line := range lines {
			if len(line) >= indent {
				lines[i] = line[indent:]
			} else {
				lines[i] = strings.TrimLeft(line, " \t")
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// markerAt reports whether the line begins with a role marker and returns
// the remainder of the line after it.
func markerAt(line string) (roleMarker, string, bool) {
	for _, m := range roleMarkers {
		if strings.HasPrefix(line, m.prefix) {
			return m, strings.TrimPrefix(strings.TrimPrefix(line, m.prefix), " "), true
		}
	}
	return roleMarker{}, "", false
}

// checkMidLineMarker rejects role markers that appear after the start of a
// line; markers only delimit segments at line boundaries.
func checkMidLineMarker(line string) error {
	for _, m := range roleMarkers {
		if idx := strings.Index(line, m.prefix); idx > 0 {
			return &TemplateError{Message: "role marker " + m.prefix + " must start a line"}
		}
	}
	return nil
}

// checkMidLineMarkerRest applies the mid-line check to the text following a
// marker on its own line (the first entry of a raw segment).
func checkMidLineMarkerRest(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	for _, m := range roleMarkers {
		if strings.Contains(lines[0], m.prefix) {
			return &TemplateError{Message: "role marker " + m.prefix + " must start a line"}
		}
	}
	return nil
}

// spliceSegment validates that a MESSAGES segment holds exactly one plain
// field and nothing else.
func spliceSegment(tokens []token) (segment, error) {
	var field string
	for _, tok := range tokens {
		switch tok.kind {
		case tokenLiteral:
			if strings.TrimSpace(tok.text) != "" {
				return segment{}, &TemplateError{Message: "MESSAGES segment must not contain literal text"}
			}
		case tokenField:
			if field != "" {
				return segment{}, &TemplateError{Message: "MESSAGES segment must contain exactly one field"}
			}
			if tok.tag != TagText {
				return segment{}, &TemplateError{Message: "MESSAGES field must not carry a tag"}
			}
			field = tok.field
		}
	}
	if field == "" {
		return segment{}, &TemplateError{Message: "MESSAGES segment must contain exactly one field"}
	}
	return segment{kind: segmentSplice, field: field}, nil
}

// scanTokens tokenizes literal text and {field:tag} references in a single
// left-to-right pass. {{ and }} escape literal braces; nesting is not
// supported.
func scanTokens(s string) ([]token, error) {
	var tokens []token
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{kind: tokenLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		switch s[i] {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, &TemplateError{Message: "unbalanced '{'"}
			}
			body := s[i+1 : i+1+end]
			if strings.ContainsRune(body, '{') {
				return nil, &TemplateError{Message: "nested '{' in field reference"}
			}
			tok, err := fieldToken(body)
			if err != nil {
				return nil, err
			}
			flush()
			tokens = append(tokens, tok)
			i += end + 2
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, &TemplateError{Message: "unbalanced '}'"}
		default:
			lit.WriteByte(s[i])
			i++
		}
	}
	flush()
	return tokens, nil
}

// fieldToken parses the body of a {...} reference into a field token.
func fieldToken(body string) (token, error) {
	name, tag := body, TagText
	if j := strings.IndexByte(body, ':'); j >= 0 {
		name, tag = body[:j], FieldTag(body[j+1:])
	}
	if !validFieldName(name) {
		return token{}, &TemplateError{Message: "malformed field reference {" + body + "}"}
	}
	if _, ok := validTags[tag]; !ok {
		return token{}, &TemplateError{Message: "unknown field tag :" + string(tag)}
	}
	return token{kind: tokenField, field: name, tag: tag}, nil
}

func validFieldName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
