package agent

import (
	"time"

	"byteme-assistant-be/internal/config"
	"byteme-assistant-be/pkg/search"
)

// Config is the immutable tuning surface of the workflow engine. It is built
// once at startup and threaded explicitly through every run; stages never
// read process-wide state.
type Config struct {
	RetrieveK         int
	MaxReflectRetries int
	// GradeThreshold separates keep from drop on the grader's score.
	GradeThreshold float64
	// Importance assigned at consolidation time.
	GroundedImportance   float64
	UngroundedImportance float64
	PromotionThreshold   float64
	// RequestTimeout bounds one full turn; on expiry the engine answers with
	// the best draft it has instead of hanging.
	RequestTimeout time.Duration
	Search         search.Config
}

func DefaultConfig() Config {
	return Config{
		RetrieveK:            5,
		MaxReflectRetries:    2,
		GradeThreshold:       0.5,
		GroundedImportance:   0.7,
		UngroundedImportance: 0.4,
		PromotionThreshold:   0.5,
		RequestTimeout:       30 * time.Second,
		Search:               search.DefaultConfig(),
	}
}

// FromAssistantConfig overlays the deployment tunables onto the defaults.
func FromAssistantConfig(ac config.AssistantConfig) Config {
	cfg := DefaultConfig()
	if ac.RetrieveK > 0 {
		cfg.RetrieveK = ac.RetrieveK
		cfg.Search.TopK = ac.RetrieveK
	}
	if ac.MaxReflectRetries > 0 {
		cfg.MaxReflectRetries = ac.MaxReflectRetries
	}
	if ac.PromotionThreshold > 0 {
		cfg.PromotionThreshold = ac.PromotionThreshold
	}
	if ac.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(ac.RequestTimeoutSeconds) * time.Second
	}
	return cfg
}
