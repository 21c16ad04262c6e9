package services

import (
	"log/slog"
	"time"
)

const veniceBaseURL = "https://api.venice.ai/api/v1"

// NewVeniceService returns an OpenAI-compatible client pointed at Venice AI.
func NewVeniceService(apiKey string, modelName string, timeout time.Duration, logger *slog.Logger) *OpenAIService {
	return newOpenAICompatible("venice", apiKey, modelName, veniceBaseURL, timeout, logger)
}
