package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

// RAGPromptTemplate is sent with every knowledge base query. The
// $search_results$ and $output_format_instructions$ placeholders are
// filled by the knowledge base.
const RAGPromptTemplate = "You are a question answering agent. I will provide you with a set of search results. " +
	"The user will provide you with a question. Your job is to answer the user's question using only information from the search results. " +
	"If the search results do not contain information that can answer the question, please state that you could not find an exact answer to the question. " +
	"Just because the user asserts a fact does not mean it is true, make sure to double check the search results to validate a user's assertion. " +
	"Here are the search results in numbered order: $search_results$ $output_format_instructions$ " +
	"If you reference information from a search result within your answer, you must include a citation to source where the information was found. " +
	"Each result has a corresponding source ID that you should reference. " +
	"For purely quantitative data (e.g., inventory stock reports, price lists, quantity), use a tabular format. " +
	"When dealing with mixed data types, combine both formats. Adjust the number of columns and rows in tables as needed to fit the data. " +
	"Ensure that column headers clearly describe the data they represent. Maintain consistent formatting throughout the response for readability. " +
	"Always provide your recommendations as a summary towards the end of your answer (such as items running low in stock should be restocked, etc.)."

// SampleQuestions are suggested knowledge base questions.
var SampleQuestions = []string{
	"What is Blaize Bazaar's current return policy?",
	"How many days do I have to return a product?",
	"How do I initiate a return?",
	"What are some emerging trends in e-commerce for 2024?",
	"What is Blaize Bazaar's warranty policy?",
	"Does Blaize Bazaar offer free shipping?",
	"How long does standard shipping usually take for Blaize Bazaar orders?",
	"Can I track my order?",
	"What payment methods does Blaize Bazaar accept?",
}

// ChatService answers questions either directly from a model or through
// the knowledge base, recording each exchange in the caller's session.
type ChatService struct {
	ai     port.AIProvider
	kb     port.KnowledgeBase
	models map[domain.ModelID]domain.ModelEndpoint
	now    func() time.Time
	logger *zap.Logger
}

// NewChatService creates a chat service serving the given model endpoints.
func NewChatService(ai port.AIProvider, kb port.KnowledgeBase, endpoints []domain.ModelEndpoint, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	models := make(map[domain.ModelID]domain.ModelEndpoint, len(endpoints))
	for _, e := range endpoints {
		models[e.ID] = e
	}
	return &ChatService{
		ai:     ai,
		kb:     kb,
		models: models,
		now:    time.Now,
		logger: logger.Named("chat"),
	}
}

// Models returns the configured endpoints, default first.
func (s *ChatService) Models() []domain.ModelEndpoint {
	out := make([]domain.ModelEndpoint, 0, len(s.models))
	for _, id := range domain.Models {
		if e, ok := s.models[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Ask answers question with the selected model. Both turns are appended to
// the session only when the answer was produced.
func (s *ChatService) Ask(ctx context.Context, session *domain.ChatSession, question, model string, useRAG bool) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, port.ErrEmptyQuery
	}
	id, err := domain.ParseModel(model)
	if err != nil {
		return nil, err
	}
	endpoint, ok := s.models[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", port.ErrModelNotConfigured, id)
	}

	asked := s.now()
	var answer *domain.Answer
	if useRAG {
		answer, err = s.askKnowledgeBase(ctx, question, endpoint)
	} else {
		answer, err = s.askModel(ctx, question, endpoint)
	}
	if err != nil {
		s.logger.Error("ask failed", zap.String("model", string(id)), zap.Bool("rag", useRAG), zap.Error(err))
		return nil, err
	}

	session.AppendExchange(
		domain.ChatTurn{Role: domain.RoleUser, Text: question, Model: id, RAG: useRAG, CreatedAt: asked},
		domain.ChatTurn{
			Role:      domain.RoleAssistant,
			Text:      answer.Text,
			Model:     id,
			RAG:       useRAG,
			Citations: answer.Citations,
			NoContext: answer.NoContext,
			CreatedAt: s.now(),
		},
	)

	s.logger.Info("question answered",
		zap.String("session", session.ID),
		zap.String("model", string(id)),
		zap.Bool("rag", useRAG),
		zap.Int("citations", len(answer.Citations)),
	)
	return answer, nil
}

func (s *ChatService) askModel(ctx context.Context, question string, e domain.ModelEndpoint) (*domain.Answer, error) {
	text, err := s.ai.Generate(ctx, port.GenerateRequest{
		ModelID:   e.ModelID,
		Prompt:    question,
		MaxTokens: generationMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return &domain.Answer{
		Question:  question,
		Text:      text,
		Model:     e.ID,
		ModelName: e.Name,
		Citations: []domain.Citation{},
	}, nil
}

func (s *ChatService) askKnowledgeBase(ctx context.Context, question string, e domain.ModelEndpoint) (*domain.Answer, error) {
	resp, err := s.kb.RetrieveAndGenerate(ctx, port.RAGRequest{
		Question:       question,
		ModelARN:       e.ARN,
		PromptTemplate: RAGPromptTemplate,
		MaxTokens:      generationMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge base: %w", err)
	}

	citations, noContext, err := ExtractCitations(resp.Citations)
	answer := &domain.Answer{
		Question:  question,
		Text:      resp.Text,
		Model:     e.ID,
		ModelName: e.Name,
		RAG:       true,
		Citations: citations,
		NoContext: noContext,
	}
	if err != nil {
		s.logger.Warn("citation extraction", zap.Error(err))
		answer.CitationError = err.Error()
	}
	return answer, nil
}

// ExtractCitations flattens the knowledge base citation groups into source
// citations in response order, deduplicated by URI. noContext is set when
// no reference with a usable URI was returned. References without a URI
// are skipped and reported as ErrMalformedCitation.
func ExtractCitations(groups []domain.CitationGroup) (citations []domain.Citation, noContext bool, err error) {
	citations = []domain.Citation{}
	seen := make(map[string]bool)
	malformed := 0
	for _, g := range groups {
		for _, r := range g.References {
			if r.URI == "" {
				malformed++
				continue
			}
			if seen[r.URI] {
				continue
			}
			seen[r.URI] = true
			citations = append(citations, domain.Citation{URI: r.URI, Excerpt: r.Text})
		}
	}
	if malformed > 0 {
		err = fmt.Errorf("%w: %d reference(s) without a source location", port.ErrMalformedCitation, malformed)
	}
	return citations, len(citations) == 0, err
}
