package classification

import (
	"context"

	"log/slog"

	"shelfward/internal/config"
	"shelfward/internal/logging"
	"shelfward/internal/media"
)

// AIClient sends filename batches to a language model. Results are
// positional: result[i] answers names[i], and a nil entry means that item
// could not be classified even though the batch as a whole succeeded.
type AIClient interface {
	ClassifyBatch(ctx context.Context, names []string) ([]*Result, error)
}

// LookupClient resolves a parsed title against an external metadata
// catalog. A nil result with a nil error means the catalog had no match,
// which is not a failure.
type LookupClient interface {
	Lookup(ctx context.Context, title string, kind media.Category) (*Result, error)
}

// Cache stores classification results keyed by filename. Lookups are
// best-effort: a miss and a storage failure look the same to the caller.
type Cache interface {
	Get(ctx context.Context, filename string) (*Result, bool)
	Put(ctx context.Context, filename string, result Result)
}

// Classifier runs the tier cascade. Any collaborator may be nil, which
// disables its tier; the rule tier needs no collaborator and always runs.
type Classifier struct {
	cfg    *config.Config
	ai     AIClient
	lookup LookupClient
	cache  Cache
	logger *slog.Logger
}

// NewClassifier wires a classifier from its collaborators. Pass nil for
// tiers that are not configured.
func NewClassifier(cfg *config.Config, logger *slog.Logger, ai AIClient, lookup LookupClient, cache Cache) *Classifier {
	componentLogger := logger
	if componentLogger != nil {
		componentLogger = componentLogger.With(logging.String("component", "classifier"))
	}
	return &Classifier{
		cfg:    cfg,
		ai:     ai,
		lookup: lookup,
		cache:  cache,
		logger: componentLogger,
	}
}

// Classify resolves a single record through the cascade. The cache is
// consulted first; on a miss the result is cached before returning.
func (c *Classifier) Classify(ctx context.Context, record media.Record) Result {
	if cached, ok := c.cacheGet(ctx, record.RawName); ok {
		return cached
	}
	var fromAI *Result
	if c.aiEnabled() {
		logger := logging.WithContext(ctx, c.logger)
		batch, err := c.ai.ClassifyBatch(ctx, []string{record.RawName})
		switch {
		case err != nil:
			logger.Debug("ai tier unavailable",
				logging.String(logging.FieldPath, record.Path),
				logging.Error(err))
		case len(batch) == 1:
			fromAI = batch[0]
		}
	}
	result := c.resolve(ctx, record, fromAI)
	c.cachePut(ctx, record.RawName, result)
	return result
}

// resolve applies the ordered acceptance checks to an optional AI verdict,
// then the lookup tier, then the rules. A higher tier that accepts always
// wins; a lower tier is consulted only after the one above declined.
func (c *Classifier) resolve(ctx context.Context, record media.Record, fromAI *Result) Result {
	logger := logging.WithContext(ctx, c.logger)
	if fromAI != nil {
		if fromAI.Confidence >= c.cfg.Classification.AIAcceptConfidence {
			return *fromAI
		}
		logger.Debug("ai result below acceptance floor",
			logging.String(logging.FieldPath, record.Path),
			logging.Float64(logging.FieldConfidence, fromAI.Confidence))
	}
	if c.lookupEnabled() {
		kind := media.CategoryMovie
		if record.HasEpisode() {
			kind = media.CategoryTV
		}
		found, err := c.lookup.Lookup(ctx, record.ParsedTitle, kind)
		switch {
		case err != nil:
			logger.Debug("lookup tier unavailable",
				logging.String(logging.FieldPath, record.Path),
				logging.Error(err))
		case found == nil:
			logger.Debug("lookup found no match",
				logging.String(logging.FieldPath, record.Path))
		case found.Confidence >= c.cfg.Classification.LookupAcceptConfidence:
			return *found
		default:
			logger.Debug("lookup result below acceptance floor",
				logging.String(logging.FieldPath, record.Path),
				logging.Float64(logging.FieldConfidence, found.Confidence))
		}
	}
	return evalRules(record)
}

func (c *Classifier) aiEnabled() bool {
	return c.cfg.Classification.AIEnabled && c.ai != nil
}

func (c *Classifier) lookupEnabled() bool {
	return c.cfg.Classification.LookupEnabled && c.lookup != nil
}

func (c *Classifier) cacheGet(ctx context.Context, filename string) (Result, bool) {
	if c.cache == nil {
		return Result{}, false
	}
	if cached, ok := c.cache.Get(ctx, filename); ok && cached != nil {
		return *cached, true
	}
	return Result{}, false
}

func (c *Classifier) cachePut(ctx context.Context, filename string, result Result) {
	if c.cache == nil {
		return
	}
	c.cache.Put(ctx, filename, result)
}
