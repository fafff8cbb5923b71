package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/roomscout/backend/internal/domain"
)

const (
	DefaultModel     = "gpt-4o"
	defaultMaxTokens = 4000
)

const detectPrompt = `List every furniture and decor item visible in this room photo.

Be specific:
- Seating: seat count (count the cushions), configuration (straight, L-shaped, sectional, chaise), material, exact colour ("light beige", "warm grey"), leg and arm style.
- Tables: shape, approximate size, material, base style.
- Everything: style cues (mid-century, industrial, Scandinavian), notable features (storage, folding).

Reply with a JSON array only, one object per item:
[{"type": "sofa", "description": "3-seat straight sofa in light beige linen with rounded arms and tapered oak legs, about 200cm wide", "search_keywords": ["3 seater sofa beige", "linen sofa", "mid century sofa"]}]

Use snake_case for multi-word types (coffee_table, floor_lamp). Give three to five search keywords per item, most specific first.`

// codeFence strips markdown code fences around model output
var codeFence = regexp.MustCompile("```(?:json)?\\s*|\\s*```")

// FallbackItem is returned when the model reply cannot be parsed
var FallbackItem = domain.Item{
	Type:           "furniture",
	Description:    "Furniture item",
	SearchKeywords: []string{"furniture"},
}

// Config holds configuration for the vision analyzer
type Config struct {
	APIKey    string
	BaseURL   string // OpenAI-compatible endpoint, e.g. "https://api.openai.com/v1"
	Model     string
	MaxTokens int
}

// Analyzer detects furniture in room photos with a vision-capable chat
// model. It implements domain.VisionAnalyzer.
type Analyzer struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    zerolog.Logger
}

// NewAnalyzer creates a new vision analyzer
func NewAnalyzer(cfg Config) *Analyzer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Analyzer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: maxTokens,
		logger:    log.With().Str("component", "vision").Logger(),
	}
}

// Detect sends image to the model and returns the detected items. An
// unparseable reply yields FallbackItem; a failed call is ErrVisionFailure.
func (a *Analyzer) Detect(ctx context.Context, image []byte, mimeType string) ([]domain.Item, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidRequest)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailHigh},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: detectPrompt,
					},
				},
			},
		},
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("vision request failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrVisionFailure, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", domain.ErrVisionFailure)
	}

	items, ok := ParseItems(resp.Choices[0].Message.Content)
	if !ok {
		a.logger.Warn().Str("reply", truncate(resp.Choices[0].Message.Content, 200)).Msg("unparseable vision reply, using fallback item")
		return []domain.Item{FallbackItem}, nil
	}

	a.logger.Info().Int("items", len(items)).Msg("items detected")
	return items, nil
}

// ParseItems decodes the model reply into items, dropping entries without a
// type or description. It reports false when nothing usable was found.
func ParseItems(content string) ([]domain.Item, bool) {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(content, ""))

	// Tolerate prose around the array
	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var raw []domain.Item
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, false
	}

	items := make([]domain.Item, 0, len(raw))
	for _, item := range raw {
		item.Type = strings.TrimSpace(item.Type)
		item.Description = strings.TrimSpace(item.Description)
		if item.Validate() != nil {
			continue
		}
		items = append(items, item)
	}
	return items, len(items) > 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
