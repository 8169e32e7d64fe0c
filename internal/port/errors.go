package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrEmptyQuery          = errors.New("query must not be empty")
	ErrInvalidTopK         = errors.New("top_k out of range")
	ErrSessionNotFound     = errors.New("chat session not found")
	ErrModelNotConfigured  = errors.New("model not configured")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrMalformedCitation   = errors.New("malformed citation")
	ErrKnowledgeBaseOff    = errors.New("knowledge base not configured")
)
