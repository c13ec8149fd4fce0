package summarize

import (
	"context"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/phobologic/archmap/internal/logging"
)

// DefaultCacheSize is the number of summaries a Summarizer keeps.
const DefaultCacheSize = 64

// Summarizer wraps Summarize with an in-memory cache of successful
// results, keyed by provider, model and prompt. It is safe for concurrent use.
type Summarizer struct {
	cache    *lru.Cache[uint64, string]
	logger   *slog.Logger
	complete func(ctx context.Context, prompt string, cfg ProviderConfig) (string, error)
}

// NewSummarizer creates a summarizer holding up to size results.
func NewSummarizer(size int, logger *slog.Logger) (*Summarizer, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[uint64, string](size)
	if err != nil {
		return nil, err
	}
	return &Summarizer{
		cache:    cache,
		logger:   logging.OrDiscard(logger),
		complete: complete,
	}, nil
}

// Summarize behaves like the package-level Summarize. Failures are not cached.
func (s *Summarizer) Summarize(ctx context.Context, prompt string, cfg ProviderConfig) string {
	key := cacheKey(prompt, cfg)
	if text, ok := s.cache.Get(key); ok {
		s.logger.Debug("summary cache hit", "provider", cfg.Provider, "model", cfg.Model)
		return text
	}

	s.logger.Debug("requesting summary", "provider", cfg.Provider, "model", cfg.Model, "bytes", len(prompt))
	text, err := s.complete(ctx, prompt, cfg)
	if err != nil {
		s.logger.Warn("summary unavailable", "provider", cfg.Provider, "err", err)
		return ErrorMessage(err)
	}
	s.cache.Add(key, text)
	return text
}

func cacheKey(prompt string, cfg ProviderConfig) uint64 {
	d := xxhash.New()
	for _, part := range []string{cfg.Provider, cfg.Model, cfg.Endpoint, prompt} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
