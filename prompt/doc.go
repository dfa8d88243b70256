// Package prompt implements role-segmented prompt templates and their
// binding into normalized messages.
//
// A template is a plain string with optional role marker lines (SYSTEM:,
// USER:, ASSISTANT:, MESSAGES:) delimiting segments and {field} /
// {field:tag} placeholders inside them. Text before the first marker
// belongs to an implicit user segment. Supported tags: text (default),
// image, images, audio, audios, list, lists. A MESSAGES: segment holds a
// single field that splices a prior []core.Message into the conversation
// in place.
//
// Parsing and binding are pure and perform no I/O, so every template error
// surfaces before a request is ever built.
package prompt
