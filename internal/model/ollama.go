package model

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

func init() {
	Register("ollama", func(config map[string]string) (Provider, error) {
		return NewOllamaProvider(config["endpoint"], config["model"])
	})
}

// OllamaProvider implements the Provider interface for Ollama
type OllamaProvider struct {
	client *api.Client
	model  string
}

func (p *OllamaProvider) Name() string { return "ollama" }

// NewOllamaProvider creates a new Ollama provider
// host is the Ollama server URL (e.g., "http://localhost:11434"); empty means OLLAMA_HOST.
// modelName is the model to use (e.g., "llama3")
func NewOllamaProvider(host string, modelName string) (*OllamaProvider, error) {
	if modelName == "" {
		modelName = "llama3"
	}

	var client *api.Client
	if strings.TrimSpace(host) == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		client = c
	} else {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("parsing ollama endpoint: %w", err)
		}
		client = api.NewClient(u, http.DefaultClient)
	}

	return &OllamaProvider{
		client: client,
		model:  modelName,
	}, nil
}

// Chat sends the instructions as the system message followed by the turns.
func (p *OllamaProvider) Chat(ctx context.Context, instructions string, turns []Turn) (string, error) {
	msgs := make([]api.Message, 0, len(turns)+1)
	if strings.TrimSpace(instructions) != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: instructions})
	}
	for _, t := range turns {
		msgs = append(msgs, api.Message{Role: string(t.Role), Content: t.Content})
	}

	var b strings.Builder
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: msgs,
		Stream:   new(bool),
	}
	fn := func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	}

	if err := p.client.Chat(ctx, req, fn); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return b.String(), nil
}

// ListModels returns the locally pulled models.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing ollama models: %w", err)
	}
	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}
