package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel = "claude-sonnet-4-20250514"
	maxTokens    = 500
)

const identifyPrompt = `Identify what media this image shows. This could be:
- A movie or TV show (scene, poster, trailer screenshot, DVD cover)
- An anime (scene, poster, artwork)
- A video game (gameplay, cover art, menu screen)
- A book (cover, page, e-reader screen)
- An audiobook (cover art, app screenshot)
- A podcast (artwork, app screenshot)
- A manga/comic (cover, page)

Respond with ONLY a JSON object in this exact format, no other text:
{
  "title": "The exact title of the media",
  "alternateTitle": "Japanese/romaji title if applicable, otherwise null",
  "type": "movie|tv|anime|game|book|audiobook|podcast|manga",
  "confidence": "high|medium|low"
}

If you cannot identify the media, respond with:
{"title": null, "alternateTitle": null, "type": null, "confidence": "none"}

Title guidelines:
- For anime and manga use the most commonly known English title, with the romaji title as alternateTitle
- For TV shows identify the show, not the episode
- For Western media use the official English title`

// VisionClient identifies media with the Anthropic messages API.
type VisionClient struct {
	APIKey string
	Model  string

	client anthropic.Client
}

// NewVisionClient builds a client for apiKey. Extra options are applied last,
// so callers can point it at another base URL.
func NewVisionClient(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *VisionClient {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(1),
	}
	return &VisionClient{
		APIKey: apiKey,
		Model:  model,
		client: anthropic.NewClient(append(base, opts...)...),
	}
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

func (v *VisionClient) Identify(ctx context.Context, img Image) (Identification, error) {
	if v.APIKey == "" {
		return Identification{}, ErrNotConfigured
	}

	msg, err := v.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(v.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(img.MediaType, img.Data),
				anthropic.NewTextBlock(identifyPrompt),
			),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return Identification{}, fmt.Errorf("vision api status %d: %w", apiErr.StatusCode, err)
		}
		return Identification{}, fmt.Errorf("vision request: %w", err)
	}

	var text string
	for _, b := range msg.Content {
		if b.Type == "text" {
			text = b.Text
			break
		}
	}
	return parseIdentification(text)
}

// parseIdentification pulls the JSON object out of the model's reply, which
// sometimes wraps it in prose or a code fence.
func parseIdentification(text string) (Identification, error) {
	raw := jsonObject.FindString(text)
	if raw == "" {
		return Identification{}, ErrUnidentified
	}
	var id struct {
		Title          *string `json:"title"`
		AlternateTitle *string `json:"alternateTitle"`
		Type           *string `json:"type"`
		Confidence     string  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identification{}, ErrUnidentified
	}
	return Identification{
		Title:          deref(id.Title),
		AlternateTitle: deref(id.AlternateTitle),
		Type:           deref(id.Type),
		Confidence:     id.Confidence,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
