// Package llm provides the language model fallback used when the fast-path
// classifier abstains. It supports OpenAI and Anthropic providers, with retry
// logic, request pacing, PII redaction and response caching.
package llm
