package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type GeminiEmbeddingProvider struct {
	APIKey    string
	ModelName string
	Client    *http.Client
}

var _ EmbeddingProvider = &GeminiEmbeddingProvider{}

func NewGeminiEmbeddingProvider(apiKey, modelName string) *GeminiEmbeddingProvider {
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	return &GeminiEmbeddingProvider{
		APIKey:    apiKey,
		ModelName: modelName,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GeminiEmbeddingProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	reqBody := EmbeddingRequest{
		Model: fmt.Sprintf("models/%s", p.ModelName),
		Content: EmbeddingRequestContent{
			Parts: []EmbeddingRequestContentPart{{Text: text}},
		},
		TaskType: taskType,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini embedding request: %w", err)
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent", p.ModelName)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call gemini embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini embedding api returned status %d", resp.StatusCode)
	}

	var parsed EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode gemini embedding response: %w", err)
	}

	if len(parsed.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini embedding api returned empty embedding")
	}

	parsed.Embedding.Values = NormalizeVector(parsed.Embedding.Values)
	return &parsed, nil
}
