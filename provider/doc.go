// Package provider defines the adapter contract between promptwire's
// normalized request/response model and concrete LLM provider SDKs.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool declaration and tool-call extraction across vendors
//   - Keep request/response shapes minimal and transport independent
//   - Pass provider transport/auth errors through unchanged
//
// Providers (e.g. OpenAI, Anthropic, Groq) implement the Adapter interface
// from this package so higher layers remain decoupled from vendor SDKs.
// The closed set of adapters replaces any structural inference over native
// response objects: each adapter maps its vendor's schema explicitly.
package provider
