package prompt

import "fmt"

// TemplateError reports a structurally invalid template (unbalanced braces,
// unknown field tag, misplaced role marker, malformed MESSAGES segment).
type TemplateError struct {
	Message string
}

// Error implements the error interface for TemplateError.
func (e *TemplateError) Error() string {
	return "prompt: invalid template: " + e.Message
}

// MissingArgumentError reports a template field with no bound value at
// assembly time.
type MissingArgumentError struct {
	Field string
}

// Error implements the error interface for MissingArgumentError.
func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("prompt: no value bound for template field %q", e.Field)
}

// UnsupportedMediaError reports binary content whose type could not be
// detected or is not acceptable for the field's tag.
type UnsupportedMediaError struct {
	Field    string // Template field name
	Detected string // Sniffed MIME type, empty when undetectable
}

// Error implements the error interface for UnsupportedMediaError.
func (e *UnsupportedMediaError) Error() string {
	if e.Detected != "" {
		return fmt.Sprintf("prompt: field %q: unsupported media type %s", e.Field, e.Detected)
	}
	return fmt.Sprintf("prompt: field %q: undetectable media type", e.Field)
}
