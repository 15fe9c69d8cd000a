package agent

import (
	"testing"
	"time"

	"byteme-assistant-be/internal/config"
)

func TestFromAssistantConfig(t *testing.T) {
	cfg := FromAssistantConfig(config.AssistantConfig{
		RetrieveK:             8,
		MaxReflectRetries:     1,
		PromotionThreshold:    0.6,
		RequestTimeoutSeconds: 10,
	})

	if cfg.RetrieveK != 8 {
		t.Errorf("RetrieveK = %d, want 8", cfg.RetrieveK)
	}
	if cfg.Search.TopK != 8 {
		t.Errorf("Search.TopK should follow RetrieveK, got %d", cfg.Search.TopK)
	}
	if cfg.MaxReflectRetries != 1 {
		t.Errorf("MaxReflectRetries = %d, want 1", cfg.MaxReflectRetries)
	}
	if cfg.PromotionThreshold != 0.6 {
		t.Errorf("PromotionThreshold = %v, want 0.6", cfg.PromotionThreshold)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
}

func TestFromAssistantConfigKeepsDefaults(t *testing.T) {
	cfg := FromAssistantConfig(config.AssistantConfig{})
	def := DefaultConfig()

	if cfg.RetrieveK != def.RetrieveK || cfg.MaxReflectRetries != def.MaxReflectRetries {
		t.Errorf("zero values must keep defaults, got %+v", cfg)
	}
	if cfg.GroundedImportance != 0.7 || cfg.UngroundedImportance != 0.4 {
		t.Errorf("importance defaults wrong: %+v", cfg)
	}
}
