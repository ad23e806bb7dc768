package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/korjavin/whatthefridge/pkg/logger"
)

// Client represents an OpenAI API client
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

// New creates a new OpenAI client
func New(apiKey, apiBase, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		config.BaseURL = apiBase
	}

	client := openai.NewClientWithConfig(config)
	return &Client{
		client:  client,
		model:   model,
		timeout: 15 * time.Second,
		logger:  logger.New("openai"),
	}
}

// ParseIngredientsFromText extracts ingredient names from free-form text such
// as "I've got two eggs and some milk". The returned names are mapped onto
// catalog wherever the model's spelling differs only in case or plural form;
// names with no catalog match are dropped.
func (c *Client) ParseIngredientsFromText(ctx context.Context, text string, catalog []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`
You are a cooking assistant. Extract all food ingredients from the following text.
Use the names from this list whenever an ingredient matches one of them: %s
Return only a JSON array of ingredient names, no other text.
For example: ["Egg", "Milk", "Tomato"]

Text: %s
`, strings.Join(catalog, ", "), text)

	c.logger.Info("Parsing ingredients from text")
	c.logger.Debug("Text to parse (first 100 chars): %s", truncateString(text, 100))

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.2,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI API")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("OpenAI response (first 100 chars): %s", truncateString(content, 100))

	// Clean up the response - sometimes the model returns markdown code blocks
	content = cleanJSONResponse(content)

	var ingredients []string
	if err := json.Unmarshal([]byte(content), &ingredients); err != nil {
		c.logger.Warn("Failed to parse response as JSON, falling back to heuristic: %v", err)
		ingredients = extractIngredientsFromText(content)
	}

	return MatchCatalog(ingredients, catalog), nil
}

// MatchCatalog maps parsed names onto catalog names, ignoring case and a
// trailing plural "s" or "es". Each catalog name is returned at most once, in
// order of first match.
func MatchCatalog(parsed []string, catalog []string) []string {
	index := make(map[string]string, len(catalog))
	for _, name := range catalog {
		index[normalize(name)] = name
	}

	seen := make(map[string]bool)
	var matched []string
	for _, p := range parsed {
		name, ok := index[normalize(p)]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		matched = append(matched, name)
	}
	return matched
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasSuffix(s, "oes"):
		return strings.TrimSuffix(s, "es")
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss"):
		return strings.TrimSuffix(s, "s")
	}
	return s
}

// Helper functions

// truncateString truncates a string to at most maxLen runes
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// cleanJSONResponse cleans up the JSON response from OpenAI
// Sometimes the model returns markdown code blocks with ```json and ``` delimiters
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		// Skip the first line, which might contain "```json"
		if firstLineEnd := strings.Index(s, "\n"); firstLineEnd != -1 {
			s = s[firstLineEnd+1:]
		}
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}

	return s
}

// extractIngredientsFromText extracts ingredients from text using a simple heuristic
// This is a fallback method when JSON parsing fails
func extractIngredientsFromText(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '"' || r == '[' || r == ']' || r == '\t'
	})

	var ingredients []string
	for _, word := range words {
		word = strings.TrimSpace(word)
		if len(word) <= 1 {
			continue
		}
		if word == "null" || word == "true" || word == "false" {
			continue
		}
		// Skip if it starts with a number (likely part of JSON syntax)
		if word[0] >= '0' && word[0] <= '9' {
			continue
		}

		ingredients = append(ingredients, word)
	}

	return ingredients
}
