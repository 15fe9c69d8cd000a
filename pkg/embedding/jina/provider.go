package jina

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"byteme-assistant-be/pkg/embedding"
)

type JinaEmbeddingProvider struct {
	APIKey    string
	ModelName string
	Client    *http.Client
}

var _ embedding.EmbeddingProvider = &JinaEmbeddingProvider{}

func NewJinaEmbeddingProvider(apiKey, modelName string) *JinaEmbeddingProvider {
	if modelName == "" {
		modelName = "jina-embeddings-v2-base-en"
	}
	return &JinaEmbeddingProvider{
		APIKey:    apiKey,
		ModelName: modelName,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type jinaEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type jinaEmbeddingData struct {
	Embedding []float32 `json:"embedding"`
}

type jinaEmbeddingResponse struct {
	Data []jinaEmbeddingData `json:"data"`
}

func (p *JinaEmbeddingProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	reqBody := jinaEmbeddingRequest{
		Model: p.ModelName,
		Input: []string{text},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jina embedding request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.jina.ai/v1/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create jina embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.APIKey))

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call jina embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina embedding api returned status %d", resp.StatusCode)
	}

	var parsed jinaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode jina embedding response: %w", err)
	}

	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("jina embedding api returned empty embedding")
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{
			Values: embedding.NormalizeVector(parsed.Data[0].Embedding),
		},
	}, nil
}
