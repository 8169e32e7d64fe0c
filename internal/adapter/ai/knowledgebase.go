package ai

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

type retrieveAndGenerateAPI interface {
	RetrieveAndGenerate(ctx context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
}

// KnowledgeBase implements port.KnowledgeBase with Bedrock Knowledge Bases.
type KnowledgeBase struct {
	client retrieveAndGenerateAPI
	kbID   string
	logger *zap.Logger
}

var _ port.KnowledgeBase = (*KnowledgeBase)(nil)

// NewKnowledgeBase creates a knowledge base client bound to kbID.
func NewKnowledgeBase(client retrieveAndGenerateAPI, kbID string, logger *zap.Logger) *KnowledgeBase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeBase{client: client, kbID: kbID, logger: logger.Named("knowledge_base")}
}

// RetrieveAndGenerate retrieves passages and generates a grounded answer.
func (k *KnowledgeBase) RetrieveAndGenerate(ctx context.Context, req port.RAGRequest) (*port.RAGResponse, error) {
	if k.kbID == "" {
		return nil, port.ErrKnowledgeBaseOff
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	gen := &types.GenerationConfiguration{
		InferenceConfig: &types.InferenceConfig{
			TextInferenceConfig: &types.TextInferenceConfig{
				MaxTokens: aws.Int32(int32(maxTokens)),
			},
		},
	}
	if req.PromptTemplate != "" {
		gen.PromptTemplate = &types.PromptTemplate{TextPromptTemplate: aws.String(req.PromptTemplate)}
	}

	out, err := k.client.RetrieveAndGenerate(ctx, &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &types.RetrieveAndGenerateInput{Text: aws.String(req.Question)},
		RetrieveAndGenerateConfiguration: &types.RetrieveAndGenerateConfiguration{
			Type: types.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &types.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId:         aws.String(k.kbID),
				ModelArn:                aws.String(req.ModelARN),
				GenerationConfiguration: gen,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve and generate: %w", err)
	}

	resp := &port.RAGResponse{
		SessionID: aws.ToString(out.SessionId),
		Citations: convertCitations(out.Citations),
	}
	if out.Output != nil {
		resp.Text = aws.ToString(out.Output.Text)
	}
	k.logger.Debug("retrieve and generate",
		zap.String("model_arn", req.ModelARN),
		zap.Int("citations", len(resp.Citations)),
	)
	return resp, nil
}

// convertCitations keeps the knowledge base order. References whose
// location carries no URI are kept with an empty URI so callers can tell a
// malformed citation from a missing one.
func convertCitations(in []types.Citation) []domain.CitationGroup {
	if len(in) == 0 {
		return nil
	}
	groups := make([]domain.CitationGroup, 0, len(in))
	for _, c := range in {
		g := domain.CitationGroup{References: []domain.Reference{}}
		if c.GeneratedResponsePart != nil && c.GeneratedResponsePart.TextResponsePart != nil {
			g.Span = aws.ToString(c.GeneratedResponsePart.TextResponsePart.Text)
		}
		for _, r := range c.RetrievedReferences {
			ref := domain.Reference{}
			if r.Content != nil {
				ref.Text = aws.ToString(r.Content.Text)
			}
			if r.Location != nil {
				ref.LocationType = string(r.Location.Type)
				ref.URI = locationURI(r.Location)
			}
			g.References = append(g.References, ref)
		}
		groups = append(groups, g)
	}
	return groups
}

func locationURI(loc *types.RetrievalResultLocation) string {
	switch {
	case loc.S3Location != nil:
		return aws.ToString(loc.S3Location.Uri)
	case loc.WebLocation != nil:
		return aws.ToString(loc.WebLocation.Url)
	case loc.ConfluenceLocation != nil:
		return aws.ToString(loc.ConfluenceLocation.Url)
	}
	return ""
}
