package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/functions"
	"github.com/tarotlab/tarot-engine/pkg/interpretation"
	"github.com/tarotlab/tarot-engine/pkg/llm"
	"github.com/tarotlab/tarot-engine/pkg/logging"
	"github.com/tarotlab/tarot-engine/pkg/models"
	"github.com/tarotlab/tarot-engine/pkg/prompts"
	"github.com/tarotlab/tarot-engine/pkg/repositories"
	"github.com/tarotlab/tarot-engine/pkg/retry"
)

// EnrichRequest describes one interpretation to enrich.
type EnrichRequest struct {
	Cards         []models.DrawnCard
	Topic         models.Topic
	SpreadType    string
	Spread        *models.Spread // optional; its Name is used in the prompt
	Question      string
	IsPremiumUser bool
	UserID        *string
	Kind          string // interpretation.KindReading when empty

	// Synthesis, when set, supplies the template text and patterns so a
	// caller that already synthesized does not pay for it twice.
	Synthesis *interpretation.Synthesis
}

// EnrichResult is the text to show for a reading.
type EnrichResult struct {
	Text             string
	Cached           bool
	InterpretationID string
	Source           string
	Patterns         []models.Pattern
}

// EnrichmentConfig tunes the remote call.
type EnrichmentConfig struct {
	FunctionName string
	Temperature  float64
	Retry        retry.Options
}

// DefaultEnrichmentConfig returns generate-interpretation at temperature 0.7
// with retry.DefaultOptions.
func DefaultEnrichmentConfig() EnrichmentConfig {
	return EnrichmentConfig{
		FunctionName: functions.GenerateInterpretation,
		Temperature:  0.7,
		Retry:        retry.DefaultOptions(),
	}
}

// EnrichmentGateway adds AI text to premium readings and falls back to
// template text whenever the remote path cannot deliver.
type EnrichmentGateway interface {
	// Enrich only fails for an empty card list.
	Enrich(ctx context.Context, req EnrichRequest) (*EnrichResult, error)
}

type enrichmentGateway struct {
	invoker     functions.Invoker
	cache       ResponseCache
	breaker     *llm.CircuitBreaker
	synthesizer *interpretation.Synthesizer
	events      repositories.EventRepository
	cfg         EnrichmentConfig
	logger      *zap.Logger
}

// NewEnrichmentGateway wires the gateway. invoker may be nil to disable AI
// text entirely; breaker and events may be nil.
func NewEnrichmentGateway(
	invoker functions.Invoker,
	cache ResponseCache,
	breaker *llm.CircuitBreaker,
	synthesizer *interpretation.Synthesizer,
	events repositories.EventRepository,
	cfg EnrichmentConfig,
	logger *zap.Logger,
) EnrichmentGateway {
	if cache == nil {
		cache = NewMemoryResponseCache(DefaultCacheCapacity, DefaultCacheTTL)
	}
	if synthesizer == nil {
		synthesizer = interpretation.NewSynthesizer(nil, nil)
	}
	if cfg.FunctionName == "" {
		cfg.FunctionName = functions.GenerateInterpretation
	}
	return &enrichmentGateway{
		invoker:     invoker,
		cache:       cache,
		breaker:     breaker,
		synthesizer: synthesizer,
		events:      events,
		cfg:         cfg,
		logger:      logger.Named("enrichment"),
	}
}

var _ EnrichmentGateway = (*enrichmentGateway)(nil)

func (g *enrichmentGateway) Enrich(ctx context.Context, req EnrichRequest) (*EnrichResult, error) {
	if len(req.Cards) == 0 {
		return nil, apperrors.ErrNoCards
	}

	spread := req.Spread
	if spread == nil && req.SpreadType != "" {
		// Narrative slots and timeline patterns key off the spread ID alone.
		spread = &models.Spread{ID: req.SpreadType}
	}

	synthesis := req.Synthesis
	if synthesis == nil {
		var err error
		if synthesis, err = g.synthesizer.Synthesize(req.Cards, spread, req.Topic); err != nil {
			return nil, err
		}
	}
	template := &EnrichResult{
		Text:     synthesis.OverallMessage,
		Source:   models.SourceTemplate,
		Patterns: synthesis.Patterns,
	}

	if !req.IsPremiumUser || g.invoker == nil {
		return template, nil
	}

	spreadType := req.SpreadType
	if spreadType == "" && spread != nil {
		spreadType = spread.ID
	}
	kind := req.Kind
	if kind == "" {
		kind = interpretation.KindReading
	}
	fingerprint := interpretation.Fingerprint(req.Cards, req.Topic, spreadType, req.Question, kind)

	if entry, ok := g.cache.Get(ctx, fingerprint); ok {
		g.logger.Debug("AI cache hit", zap.String("fingerprint", fingerprint[:12]))
		return &EnrichResult{
			Text:             entry.Text,
			Cached:           true,
			InterpretationID: entry.InterpretationID,
			Source:           models.SourceCache,
			Patterns:         synthesis.Patterns,
		}, nil
	}

	if g.breaker != nil {
		if err := g.breaker.Allow(); err != nil {
			g.fallback(ctx, req, "circuit_open", 0, err)
			return template, nil
		}
	}

	spreadName := spreadType
	if spread != nil && spread.Name != "" {
		spreadName = spread.Name
	}
	prompt := prompts.BuildInterpretationPrompt(
		prompts.NewPromptInput(req.Cards, synthesis.Patterns, req.Topic, spreadName, req.Question))
	body := functions.GenerateRequest{
		Prompt:        prompt,
		SystemMessage: prompts.InterpretationSystemMessage(req.Topic),
		Topic:         string(req.Topic),
		SpreadType:    spreadType,
		Temperature:   g.cfg.Temperature,
	}

	g.logger.Debug("Requesting AI interpretation",
		zap.String("fingerprint", fingerprint[:12]),
		zap.String("prompt", logging.SanitizePrompt(prompt)),
		zap.String("question", logging.SanitizeQuestion(req.Question)))

	attempts := 0
	opts := g.cfg.Retry
	opts.OnAttempt = func(attempt int, err error) {
		attempts = attempt
		if err != nil {
			g.logger.Warn("AI attempt failed",
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
		}
	}

	start := time.Now()
	data, err := retry.CallWithRetry(ctx, opts, func(ctx context.Context) (*functions.InterpretationData, error) {
		resp, err := g.invoker.Invoke(ctx, g.cfg.FunctionName, body)
		if err != nil {
			return nil, err
		}
		return resp.Text()
	})
	if err != nil {
		if g.breaker != nil {
			// A cancelled caller says nothing about provider health.
			if ctx.Err() != nil {
				g.breaker.ReleaseProbe()
			} else {
				g.breaker.RecordFailure()
			}
		}
		g.fallback(ctx, req, "remote_failure", attempts, err)
		return template, nil
	}
	if g.breaker != nil {
		g.breaker.RecordSuccess()
	}

	g.cache.Put(ctx, models.CacheEntry{
		Fingerprint:      fingerprint,
		Text:             data.Interpretation,
		InterpretationID: data.InterpretationID,
		CreatedAt:        time.Now().UTC(),
	})

	g.logger.Info("AI interpretation generated",
		zap.Int("attempts", attempts),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("interpretation_id", data.InterpretationID))

	return &EnrichResult{
		Text:             data.Interpretation,
		InterpretationID: data.InterpretationID,
		Source:           models.SourceAI,
		Patterns:         synthesis.Patterns,
	}, nil
}

// fallback logs the degradation and records an ai_fallback event. The event
// is written even if ctx was cancelled.
func (g *enrichmentGateway) fallback(ctx context.Context, req EnrichRequest, reason string, attempts int, cause error) {
	g.logger.Warn("Falling back to template interpretation",
		zap.String("reason", reason),
		zap.Int("attempts", attempts),
		zap.String("error", logging.SanitizeError(cause)))

	if g.events == nil {
		return
	}
	props := map[string]any{
		"reason":      reason,
		"attempts":    attempts,
		"topic":       string(req.Topic),
		"spread_type": req.SpreadType,
	}
	if errType := llm.GetErrorType(cause); errType != llm.ErrorTypeUnknown {
		props["error_type"] = string(errType)
	}
	if errors.Is(cause, retry.ErrAttemptTimeout) {
		props["error_type"] = "timeout"
	}

	if err := g.events.Record(context.WithoutCancel(ctx), &models.Event{
		UserID:     req.UserID,
		Name:       models.EventAIFallback,
		Properties: props,
	}); err != nil {
		g.logger.Warn("Failed to record fallback event", zap.Error(err))
	}
}
