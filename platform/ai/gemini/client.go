// Package gemini provides the Gemini-backed conversation analysis provider.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"leadbot_backend/platform/config"

	"google.golang.org/genai"
)

const scoringPrompt = `You are an education consultant AI. Score the lead (0-100) based on:
- Interest level
- Urgency
- Budget mention
- Specific course/program
- Readiness to enroll

Conversation:
%s

Return JSON only:
{"score": 85, "category": "MBA", "needs_human": true, "reason": "High urgency and budget mentioned"}`

const summaryPrompt = `Summarize this WhatsApp chat in 2-3 sentences. Extract:
- Name (if mentioned)
- Course interest
- Key concerns
- Next step

Conversation:
%s

Return plain text summary.`

// Analysis is the normalized result of analyzing a conversation transcript.
type Analysis struct {
	Score      float64 `json:"score"`
	Category   string  `json:"category"`
	NeedsHuman bool    `json:"needs_human"`
	Reason     string  `json:"reason"`
	Summary    string  `json:"summary"`
}

// Client calls the Gemini API to score and summarize conversations.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini analysis client.
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  cfg.GetGeminiModel(),
	}, nil
}

// Analyze scores and summarizes the transcript. Two model calls are made:
// a JSON scoring call and a plain-text summary call. Any transport or
// parsing fault is returned as an error; no partial result is produced.
func (c *Client) Analyze(ctx context.Context, transcript string) (Analysis, error) {
	scoringRaw, err := c.generate(ctx, fmt.Sprintf(scoringPrompt, transcript), true)
	if err != nil {
		return Analysis{}, fmt.Errorf("scoring call: %w", err)
	}

	analysis, err := ParseScoringResponse(scoringRaw)
	if err != nil {
		return Analysis{}, fmt.Errorf("scoring response: %w", err)
	}

	summaryRaw, err := c.generate(ctx, fmt.Sprintf(summaryPrompt, transcript), false)
	if err != nil {
		return Analysis{}, fmt.Errorf("summary call: %w", err)
	}
	analysis.Summary = strings.TrimSpace(summaryRaw)

	return analysis, nil
}

func (c *Client) generate(ctx context.Context, prompt string, asJSON bool) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
	}
	if asJSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}

// ParseScoringResponse decodes the scoring JSON, tolerating code fences and
// missing fields. Missing fields normalize to 0 / "Unknown" / false / "".
func ParseScoringResponse(raw string) (Analysis, error) {
	cleaned := stripCodeFences(raw)

	var parsed struct {
		Score      *float64 `json:"score"`
		Category   *string  `json:"category"`
		NeedsHuman *bool    `json:"needs_human"`
		Reason     *string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Analysis{}, err
	}

	analysis := Analysis{Category: "Unknown"}
	if parsed.Score != nil {
		analysis.Score = *parsed.Score
	}
	if parsed.Category != nil && strings.TrimSpace(*parsed.Category) != "" {
		analysis.Category = strings.TrimSpace(*parsed.Category)
	}
	if parsed.NeedsHuman != nil {
		analysis.NeedsHuman = *parsed.NeedsHuman
	}
	if parsed.Reason != nil {
		analysis.Reason = strings.TrimSpace(*parsed.Reason)
	}

	return analysis, nil
}

func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
