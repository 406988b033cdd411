package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

func init() {
	Register("openai", func(config map[string]string) (Provider, error) {
		return NewOpenAIProvider(config["api_key"], config["model"], config["base_url"])
	})
}

// OpenAIProvider implements the Provider interface for OpenAI
type OpenAIProvider struct {
	llm     llms.Model
	apiKey  string
	baseURL string
	client  *http.Client
}

func (p *OpenAIProvider) Name() string { return "openai" }

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, modelName string, baseURL string) (*OpenAIProvider, error) {
	if modelName == "" {
		modelName = "gpt-4o" // Default to a smart, modern model
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
	}

	if baseURL != "" {
		// Clean up common URL mistakes
		baseURL = strings.TrimSuffix(baseURL, "/")
		opts = append(opts, openai.WithBaseURL(baseURL))
	} else {
		baseURL = "https://api.openai.com/v1"
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai init: %w", err)
	}

	return &OpenAIProvider{
		llm:     llm,
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  http.DefaultClient,
	}, nil
}

// Chat sends the instructions and prior turns as one chat completion.
func (p *OpenAIProvider) Chat(ctx context.Context, instructions string, turns []Turn) (string, error) {
	resp, err := chatCompletion(ctx, p.llm, instructions, turns)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	return resp, nil
}

// chatCompletion maps turns onto langchaingo message content and returns the first choice.
func chatCompletion(ctx context.Context, llm llms.Model, instructions string, turns []Turn) (string, error) {
	msgs := make([]llms.MessageContent, 0, len(turns)+1)
	if strings.TrimSpace(instructions) != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, instructions))
	}
	for _, t := range turns {
		kind := llms.ChatMessageTypeHuman
		if t.Role == RoleAssistant {
			kind = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(kind, t.Content))
	}

	resp, err := llm.GenerateContent(ctx, msgs)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return resp.Choices[0].Content, nil
}

// ListModels returns a list of available models from OpenAI
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	url := p.baseURL + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching openai models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("openai api key is invalid or expired")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai models list failed: %s", resp.Status)
	}

	var data struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding openai models: %w", err)
	}

	var models []string
	for _, m := range data.Data {
		// Only include common chat models to avoid cluttering the UI
		id := m.ID
		isChatModel := strings.HasPrefix(id, "gpt") ||
			strings.HasPrefix(id, "o1-") ||
			id == "o3-mini"

		if isChatModel {
			models = append(models, id)
		}
	}

	if len(models) == 0 && len(data.Data) > 0 {
		// Custom OpenAI-compatible servers use other names; return everything.
		for _, m := range data.Data {
			models = append(models, m.ID)
		}
	}

	return models, nil
}

