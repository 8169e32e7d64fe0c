package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned for model identifiers outside the supported set.
var ErrUnknownModel = errors.New("unknown model")

// ModelID identifies a chat model the user can pick.
type ModelID string

// Supported chat models.
const (
	ModelClaude35Sonnet ModelID = "claude-3-5-sonnet"
	ModelClaude3Haiku   ModelID = "claude-3-haiku"
)

// Models lists every supported model, default first.
var Models = []ModelID{ModelClaude35Sonnet, ModelClaude3Haiku}

var modelNames = map[ModelID]string{
	ModelClaude35Sonnet: "Claude 3.5 Sonnet",
	ModelClaude3Haiku:   "Claude 3 Haiku",
}

// ParseModel accepts either the identifier or the display name.
func ParseModel(s string) (ModelID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Models[0], nil
	}
	for _, m := range Models {
		if strings.EqualFold(s, string(m)) || strings.EqualFold(s, modelNames[m]) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// DisplayName returns the human-readable model name.
func (m ModelID) DisplayName() string {
	if n, ok := modelNames[m]; ok {
		return n
	}
	return string(m)
}

// ModelEndpoint is the Bedrock configuration behind a ModelID.
type ModelEndpoint struct {
	ID   ModelID `json:"id"`
	Name string  `json:"name"`
	// ARN is used for knowledge base retrieve-and-generate.
	ARN string `json:"arn"`
	// ModelID is used for direct InvokeModel calls.
	ModelID string `json:"model_id"`
}

// NewModelEndpoint derives the invoke model ID from the last ARN segment.
func NewModelEndpoint(id ModelID, arn string) ModelEndpoint {
	modelID := arn
	if i := strings.LastIndex(arn, "/"); i >= 0 {
		modelID = arn[i+1:]
	}
	return ModelEndpoint{ID: id, Name: id.DisplayName(), ARN: arn, ModelID: modelID}
}
