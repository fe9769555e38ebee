package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tomventa/mdsql/internal/config"
	"github.com/tomventa/mdsql/internal/types"
)

// Client represents an Ollama API client
type Client struct {
	baseURL     string
	model       string
	temperature float64
	http        *http.Client
}

// New creates a new Ollama client
func New(cfg config.OllamaConfig) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		http:        &http.Client{Timeout: 5 * time.Minute},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate sends a prompt to Ollama and returns the complete response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := types.OllamaRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: &types.OllamaOptions{Temperature: c.temperature},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var ollamaResp types.OllamaResponse
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		if resp.StatusCode/100 != 2 {
			return "", fmt.Errorf("ollama returned HTTP %d", resp.StatusCode)
		}
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		if ollamaResp.Error != "" {
			return "", fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode, ollamaResp.Error)
		}
		return "", fmt.Errorf("ollama returned HTTP %d", resp.StatusCode)
	}
	return ollamaResp.Response, nil
}

// Ping checks that the Ollama server answers.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d at %s", resp.StatusCode, c.baseURL)
	}
	return nil
}
