package prompt

import (
	"bytes"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/promptwire/promptwire/core"
)

// Messages binds argument values into the template and returns the ordered
// normalized messages. Computed fields win over args on key collision.
// Binding is pure: any error is returned before a request could be built.
func (t *Template) Messages(args, computed map[string]any) ([]core.Message, error) {
	merged := make(map[string]any, len(args)+len(computed))
	for k, v := range args {
		merged[k] = v
	}
	for k, v := range computed {
		merged[k] = v
	}

	var messages []core.Message
	for _, seg := range t.segments {
		if seg.kind == segmentSplice {
			spliced, err := spliceMessages(seg.field, merged)
			if err != nil {
				return nil, err
			}
			messages = append(messages, spliced...)
			continue
		}
		msg, err := assembleSegment(seg, merged)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Render substitutes field values into the whole normalized template and
// returns the flat text, role marker lines included. Media and list tags
// render as their stringified values. For templates with only text fields
// this is exactly naive placeholder substitution.
func (t *Template) Render(args map[string]any) (string, error) {
	var sb strings.Builder
	for _, tok := range t.flat {
		if tok.kind == tokenLiteral {
			sb.WriteString(tok.text)
			continue
		}
		v, ok := args[tok.field]
		if !ok {
			return "", &MissingArgumentError{Field: tok.field}
		}
		sb.WriteString(stringify(v))
	}
	return sb.String(), nil
}

// spliceMessages resolves a MESSAGES field to a []core.Message. A nil or
// empty history splices zero messages.
func spliceMessages(field string, merged map[string]any) ([]core.Message, error) {
	v, ok := merged[field]
	if !ok {
		return nil, &MissingArgumentError{Field: field}
	}
	if v == nil {
		return nil, nil
	}
	history, ok := v.([]core.Message)
	if !ok {
		return nil, &TemplateError{Message: fmt.Sprintf("MESSAGES field %q must be bound to []core.Message, got %T", field, v)}
	}
	return history, nil
}

// assembleSegment converts one parsed segment into a message. Adjacent text
// coalesces into a single part; non-text values introduce part boundaries.
func assembleSegment(seg segment, merged map[string]any) (core.Message, error) {
	var parts []core.Part
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, core.TextPart{Text: text.String()})
			text.Reset()
		}
	}

	for _, tok := range seg.tokens {
		if tok.kind == tokenLiteral {
			text.WriteString(tok.text)
			continue
		}
		v, ok := merged[tok.field]
		if !ok {
			return core.Message{}, &MissingArgumentError{Field: tok.field}
		}
		switch tok.tag {
		case TagText:
			text.WriteString(stringify(v))
		case TagImage, TagAudio:
			part, err := mediaPart(tok, v)
			if err != nil {
				return core.Message{}, err
			}
			flush()
			parts = append(parts, part)
		case TagImages, TagAudios:
			values, err := sequenceValues(tok.field, v)
			if err != nil {
				return core.Message{}, err
			}
			flush()
			for _, item := range values {
				part, err := mediaPart(tok, item)
				if err != nil {
					return core.Message{}, err
				}
				parts = append(parts, part)
			}
		case TagList, TagLists:
			values, err := sequenceValues(tok.field, v)
			if err != nil {
				return core.Message{}, err
			}
			flush()
			for _, item := range values {
				parts = append(parts, core.TextPart{Text: stringify(item)})
			}
		}
	}
	flush()

	if len(parts) == 0 {
		parts = []core.Part{core.TextPart{}}
	}
	return core.Message{Role: seg.role, Parts: parts}, nil
}

// stringify renders a bound value as text. Nil renders empty rather than
// "<nil>" so optional fields can be left unset.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// sequenceValues unpacks a multi-value field into its elements.
func sequenceValues(field string, v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, &TemplateError{Message: fmt.Sprintf("field %q must be bound to a sequence, got %T", field, v)}
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

// mediaPart converts a bound value into an image or audio part. Pre-built
// parts pass through with their declared MIME type; raw bytes are sniffed.
func mediaPart(tok token, v any) (core.Part, error) {
	switch val := v.(type) {
	case core.ImagePart:
		if tok.tag != TagImage && tok.tag != TagImages {
			return nil, &UnsupportedMediaError{Field: tok.field, Detected: val.MIMEType}
		}
		return val, nil
	case core.AudioPart:
		if tok.tag != TagAudio && tok.tag != TagAudios {
			return nil, &UnsupportedMediaError{Field: tok.field, Detected: val.MIMEType}
		}
		return val, nil
	case []byte:
		return sniffedPart(tok, val)
	default:
		return nil, &UnsupportedMediaError{Field: tok.field}
	}
}

func sniffedPart(tok token, data []byte) (core.Part, error) {
	if tok.tag == TagImage || tok.tag == TagImages {
		mt := http.DetectContentType(data)
		if !strings.HasPrefix(mt, "image/") {
			return nil, &UnsupportedMediaError{Field: tok.field, Detected: mt}
		}
		return core.ImagePart{Data: data, MIMEType: mt}, nil
	}
	mt, ok := sniffAudio(data)
	if !ok {
		return nil, &UnsupportedMediaError{Field: tok.field, Detected: http.DetectContentType(data)}
	}
	return core.AudioPart{Data: data, MIMEType: mt}, nil
}

// sniffAudio detects common audio container types. The stdlib sniffer
// covers wave, aiff, mpeg and ogg; flac needs its own magic check.
func sniffAudio(data []byte) (string, bool) {
	if bytes.HasPrefix(data, []byte("fLaC")) {
		return "audio/flac", true
	}
	mt := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(mt, "audio/"):
		return mt, true
	case mt == "application/ogg":
		return "audio/ogg", true
	}
	return "", false
}
