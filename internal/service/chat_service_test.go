package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
	"github.com/arturoeanton/blaize-bazaar/internal/port/porttest"
)

const (
	sonnetARN = "arn:aws:bedrock:us-west-2::foundation-model/anthropic.claude-3-5-sonnet-20240620-v1:0"
	haikuARN  = "arn:aws:bedrock:us-west-2::foundation-model/anthropic.claude-3-haiku-20240307-v1:0"
)

func newChatService() (*ChatService, *porttest.AIProvider, *porttest.KnowledgeBase) {
	ai := new(porttest.AIProvider)
	kb := new(porttest.KnowledgeBase)
	svc := NewChatService(ai, kb, []domain.ModelEndpoint{
		domain.NewModelEndpoint(domain.ModelClaude3Haiku, haikuARN),
		domain.NewModelEndpoint(domain.ModelClaude35Sonnet, sonnetARN),
	}, zap.NewNop())
	return svc, ai, kb
}

func TestChatService_Models(t *testing.T) {
	svc, _, _ := newChatService()
	models := svc.Models()
	require.Len(t, models, 2)
	assert.Equal(t, domain.ModelClaude35Sonnet, models[0].ID)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", models[1].ModelID)
}

func TestAsk_WithoutRAG(t *testing.T) {
	svc, ai, kb := newChatService()
	session := domain.NewChatSession("s1", time.Now())

	ai.On("Generate", mock.Anything, port.GenerateRequest{
		ModelID:   "anthropic.claude-3-haiku-20240307-v1:0",
		Prompt:    "What is a good gift?",
		MaxTokens: 4096,
	}).Return("A smartwatch.", nil)

	answer, err := svc.Ask(context.Background(), session, "What is a good gift?", "Claude 3 Haiku", false)
	require.NoError(t, err)

	assert.Equal(t, "A smartwatch.", answer.Text)
	assert.False(t, answer.RAG)
	assert.Empty(t, answer.Citations)

	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "What is a good gift?", history[0].Text)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, domain.ModelClaude3Haiku, history[1].Model)
	kb.AssertNotCalled(t, "RetrieveAndGenerate", mock.Anything, mock.Anything)
}

func TestAsk_WithRAG(t *testing.T) {
	svc, ai, kb := newChatService()
	session := domain.NewChatSession("s1", time.Now())

	kb.On("RetrieveAndGenerate", mock.Anything, mock.MatchedBy(func(req port.RAGRequest) bool {
		return req.ModelARN == sonnetARN && req.PromptTemplate == RAGPromptTemplate && req.MaxTokens == 4096
	})).Return(&port.RAGResponse{
		Text: "You have 30 days to return a product.",
		Citations: []domain.CitationGroup{
			{Span: "30 days", References: []domain.Reference{
				{URI: "s3://kb/returns.pdf", Text: "30 day returns"},
				{URI: "s3://kb/faq.pdf", Text: "returns"},
			}},
			{Span: "return", References: []domain.Reference{
				{URI: "s3://kb/returns.pdf", Text: "again"},
			}},
		},
	}, nil)

	answer, err := svc.Ask(context.Background(), session, "How many days do I have to return a product?", "", true)
	require.NoError(t, err)

	assert.True(t, answer.RAG)
	assert.False(t, answer.NoContext)
	assert.Empty(t, answer.CitationError)
	require.Len(t, answer.Citations, 2)
	assert.Equal(t, "s3://kb/returns.pdf", answer.Citations[0].URI)
	assert.Equal(t, "s3://kb/faq.pdf", answer.Citations[1].URI)
	assert.Equal(t, 2, session.Len())
	assert.Len(t, session.History()[1].Citations, 2)
	ai.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAsk_RAGWithoutPassages(t *testing.T) {
	svc, _, kb := newChatService()
	session := domain.NewChatSession("s1", time.Now())

	kb.On("RetrieveAndGenerate", mock.Anything, mock.Anything).Return(&port.RAGResponse{
		Text: "Sorry, I am unable to assist you with this request.",
	}, nil)

	answer, err := svc.Ask(context.Background(), session, "What is the meaning of life?", "", true)
	require.NoError(t, err)
	assert.True(t, answer.NoContext)
	assert.Empty(t, answer.Citations)
}

func TestAsk_FailureAppendsNothing(t *testing.T) {
	svc, ai, kb := newChatService()
	session := domain.NewChatSession("s1", time.Now())

	ai.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("throttled"))
	kb.On("RetrieveAndGenerate", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := svc.Ask(context.Background(), session, "hello", "", false)
	require.Error(t, err)
	_, err = svc.Ask(context.Background(), session, "hello", "", true)
	require.Error(t, err)
	assert.Equal(t, 0, session.Len())
}

func TestAsk_Validation(t *testing.T) {
	svc, ai, kb := newChatService()
	session := domain.NewChatSession("s1", time.Now())

	_, err := svc.Ask(context.Background(), session, "hi", "gpt-4", false)
	assert.ErrorIs(t, err, domain.ErrUnknownModel)

	_, err = svc.Ask(context.Background(), session, "  ", "", false)
	assert.ErrorIs(t, err, port.ErrEmptyQuery)

	only := NewChatService(ai, kb, []domain.ModelEndpoint{domain.NewModelEndpoint(domain.ModelClaude3Haiku, haikuARN)}, nil)
	_, err = only.Ask(context.Background(), session, "hi", "claude-3-5-sonnet", false)
	assert.ErrorIs(t, err, port.ErrModelNotConfigured)

	ai.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	kb.AssertNotCalled(t, "RetrieveAndGenerate", mock.Anything, mock.Anything)
	assert.Equal(t, 0, session.Len())
}

func TestAsk_HistoryGrowsByTwo(t *testing.T) {
	svc, ai, _ := newChatService()
	session := domain.NewChatSession("s1", time.Now())
	ai.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)

	for i := 0; i < 4; i++ {
		_, err := svc.Ask(context.Background(), session, "question", "", false)
		require.NoError(t, err)
	}
	assert.Equal(t, 8, session.Len())

	session.Reset()
	assert.Equal(t, 0, session.Len())
}

func TestExtractCitations(t *testing.T) {
	tests := []struct {
		name          string
		groups        []domain.CitationGroup
		wantURIs      []string
		wantNoContext bool
		wantErr       error
	}{
		{
			name:          "no citations field",
			groups:        nil,
			wantURIs:      []string{},
			wantNoContext: true,
		},
		{
			name:          "citation with zero references",
			groups:        []domain.CitationGroup{{Span: "x", References: []domain.Reference{}}},
			wantURIs:      []string{},
			wantNoContext: true,
		},
		{
			name: "malformed reference keeps the valid ones",
			groups: []domain.CitationGroup{{References: []domain.Reference{
				{URI: ""},
				{URI: "https://example.com/policy"},
			}}},
			wantURIs: []string{"https://example.com/policy"},
			wantErr:  port.ErrMalformedCitation,
		},
		{
			name:          "only malformed references",
			groups:        []domain.CitationGroup{{References: []domain.Reference{{URI: ""}}}},
			wantURIs:      []string{},
			wantNoContext: true,
			wantErr:       port.ErrMalformedCitation,
		},
		{
			name: "duplicates keep first position",
			groups: []domain.CitationGroup{
				{References: []domain.Reference{{URI: "b"}, {URI: "a"}}},
				{References: []domain.Reference{{URI: "b"}, {URI: "c"}}},
			},
			wantURIs: []string{"b", "a", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, noContext, err := ExtractCitations(tt.groups)
			uris := make([]string, len(got))
			for i, c := range got {
				uris[i] = c.URI
			}
			assert.Equal(t, tt.wantURIs, uris)
			assert.Equal(t, tt.wantNoContext, noContext)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
