package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type ollamaReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResp struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaClient talks to a local Ollama daemon's /api/generate endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewOllama builds a client with no transport-level timeout; the deadline on
// a Generate call comes from the caller's context.
func NewOllama(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{},
	}
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body := ollamaReq{
		Model:  c.model,
		Prompt: SystemPrompt + "\n\n" + prompt,
		Stream: false,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("contact ollama: %w", err)
	}
	defer resp.Body.Close()

	slurp, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var out ollamaResp
	if err := json.Unmarshal(slurp, &out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	content := strings.TrimSpace(out.Response)
	if content == "" {
		return "", errors.New("empty completion")
	}
	return content, nil
}
