package port

import (
	"context"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
)

// AIProvider abstracts the embedding and text generation backend.
type AIProvider interface {
	// ModelName returns the default generation model.
	ModelName() string

	// Embed converts text into a fixed-length vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Generate sends a single-turn prompt and returns the generated text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest is a single-turn generation call. An empty ModelID uses
// the provider default.
type GenerateRequest struct {
	ModelID   string
	Prompt    string
	MaxTokens int
}

// KnowledgeBase performs retrieval-augmented generation over a managed
// knowledge base.
type KnowledgeBase interface {
	RetrieveAndGenerate(ctx context.Context, req RAGRequest) (*RAGResponse, error)
}

// RAGRequest is a retrieve-and-generate call.
type RAGRequest struct {
	Question       string
	ModelARN       string
	PromptTemplate string
	MaxTokens      int
}

// RAGResponse is the generated answer plus the citations exactly as the
// knowledge base returned them.
type RAGResponse struct {
	Text      string
	Citations []domain.CitationGroup
	SessionID string
}
