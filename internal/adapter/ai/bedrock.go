package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultMaxTokens = 4096
)

// BedrockConfig selects the Bedrock models used for embedding and generation.
type BedrockConfig struct {
	EmbedModelID    string // e.g. amazon.titan-embed-text-v2:0
	EmbedDimension  int    // 0 lets the model pick its default
	GenerateModelID string // e.g. anthropic.claude-3-5-sonnet-20241022-v2:0
}

type invokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockProvider implements port.AIProvider on the Bedrock runtime
// InvokeModel API: Titan for embeddings, Anthropic messages for generation.
type BedrockProvider struct {
	client invokeModelAPI
	cfg    BedrockConfig
	logger *zap.Logger
}

var _ port.AIProvider = (*BedrockProvider)(nil)

// NewBedrockProvider creates a new Bedrock-backed AI provider.
func NewBedrockProvider(client invokeModelAPI, cfg BedrockConfig, logger *zap.Logger) *BedrockProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BedrockProvider{client: client, cfg: cfg, logger: logger.Named("bedrock")}
}

// ModelName returns the default generation model identifier.
func (b *BedrockProvider) ModelName() string {
	return b.cfg.GenerateModelID
}

// Embed generates a vector embedding for the given text.
func (b *BedrockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{"inputText": text}
	if b.cfg.EmbedDimension > 0 && strings.Contains(b.cfg.EmbedModelID, "v2") {
		payload["dimensions"] = b.cfg.EmbedDimension
		payload["normalize"] = true
	}

	body, err := b.invoke(ctx, b.cfg.EmbedModelID, payload)
	if err != nil {
		return nil, fmt.Errorf("bedrock embed: %w", err)
	}

	var resp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("bedrock embed decode: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("bedrock embed: empty response")
	}
	if b.cfg.EmbedDimension > 0 && len(resp.Embedding) != b.cfg.EmbedDimension {
		return nil, fmt.Errorf("bedrock embed: got %d dimensions, want %d", len(resp.Embedding), b.cfg.EmbedDimension)
	}
	return resp.Embedding, nil
}

// Generate sends a single user message and returns the first text block.
func (b *BedrockProvider) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	modelID := req.ModelID
	if modelID == "" {
		modelID = b.cfg.GenerateModelID
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	payload := map[string]interface{}{
		"anthropic_version": anthropicVersion,
		"max_tokens":        maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}

	body, err := b.invoke(ctx, modelID, payload)
	if err != nil {
		return "", fmt.Errorf("bedrock generate: %w", err)
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("bedrock generate decode: %w", err)
	}
	for _, c := range resp.Content {
		if c.Type == "" || c.Type == "text" {
			b.logger.Debug("generation complete", zap.String("model", modelID), zap.String("stop_reason", resp.StopReason))
			return c.Text, nil
		}
	}
	return "", fmt.Errorf("bedrock generate: no text content in response")
}

// invoke marshals the payload and calls InvokeModel.
func (b *BedrockProvider) invoke(ctx context.Context, modelID string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        payloadBytes,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}
