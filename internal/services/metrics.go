package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jwebster45206/stage-engine/pkg/engine"
)

var (
	llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_llm_requests_total",
			Help: "Total number of text generation requests.",
		},
		[]string{"model", "status"},
	)
	llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stage_llm_request_duration_seconds",
			Help:    "Histogram of text generation durations.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"model"},
	)
	llmPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stage_llm_prompt_tokens",
			Help:    "Histogram of estimated prompt token counts.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
		[]string{"model"},
	)
)

// InstrumentedService records Prometheus metrics around another LLMService.
type InstrumentedService struct {
	next    LLMService
	counter *TokenCounter
}

// Ensure InstrumentedService implements LLMService
var _ LLMService = (*InstrumentedService)(nil)

func NewInstrumentedService(next LLMService, counter *TokenCounter) *InstrumentedService {
	return &InstrumentedService{next: next, counter: counter}
}

func (s *InstrumentedService) InitModel(ctx context.Context, modelName string) error {
	return s.next.InitModel(ctx, modelName)
}

func (s *InstrumentedService) ModelName() string {
	return s.next.ModelName()
}

func (s *InstrumentedService) GenerateText(ctx context.Context, prompt string, params engine.GenerationParams) (string, error) {
	model := s.next.ModelName()
	if s.counter != nil {
		llmPromptTokens.WithLabelValues(model).Observe(float64(s.counter.Count(prompt)))
	}

	start := time.Now()
	text, err := s.next.GenerateText(ctx, prompt, params)
	llmRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	llmRequestsTotal.WithLabelValues(model, status).Inc()
	return text, err
}
