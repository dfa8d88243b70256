// Package core provides the normalized message model shared by every layer
// of promptwire. It defines:
//
//   - Roles (system, user, assistant, tool)
//   - Messages (role + ordered heterogeneous parts)
//   - Content parts (text, image, audio, tool call, tool result)
//
// Parts form a closed set via an unexported marker method so downstream
// switches stay exhaustive. Conversation history is a caller-owned
// []Message; the library produces messages for the caller to append and
// never mutates a history it was handed.
package core
