package proposer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/intent"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/shape"
)

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	PlotModel   string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIClient implements Proposer and PlotGenerator against an
// OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	plotModel   string
	temperature float64
	client      *http.Client
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-5"
	}
	plotModel := strings.TrimSpace(cfg.PlotModel)
	if plotModel == "" {
		plotModel = model
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		plotModel:   plotModel,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

func (c *OpenAIClient) SelectTable(ctx context.Context, question string, tables []string) (string, error) {
	if len(tables) == 0 {
		return "", fmt.Errorf("no tables to select from")
	}
	content, err := c.chat(ctx, c.model, tableSelectionSystemPrompt, tableSelectionPrompt(question, tables))
	if err != nil {
		return "", err
	}
	table, ok := schema.ResolveTable(tables, intent.StripCodeFences(content))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, content)
	}
	return table, nil
}

func (c *OpenAIClient) ProposeIntent(ctx context.Context, question, table string, columns []string) (intent.RawIntent, error) {
	content, err := c.chat(ctx, c.model, intentSystemPrompt, intentPrompt(question, table, columns))
	if err != nil {
		return intent.RawIntent{}, err
	}
	return intent.ParseRaw(content)
}

func (c *OpenAIClient) GeneratePlot(ctx context.Context, question string, shaped shape.Result) (string, error) {
	content, err := c.chat(ctx, c.plotModel, plotSystemPrompt, plotPrompt(question, shape.Describe(shaped)))
	if err != nil {
		return "", err
	}
	code := SanitizePlotCode(content)
	if code == "" {
		return "", fmt.Errorf("model returned empty plot code")
	}
	return code, nil
}

func (c *OpenAIClient) chat(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("model returned empty content")
	}
	return content, nil
}
