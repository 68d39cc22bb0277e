// Package lookup — композиция: листинг бакета по префиксу + fuzzy ранжирование.
//
// Service не хранит состояния между вызовами: каждый FindSimilar делает
// свежий листинг и свежее ранжирование.
package lookup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/mcp-s3/pkg/fuzzy"
	"github.com/ilkoid/mcp-s3/pkg/utils"
)

// Lister — источник ключей (pkg/s3storage или мок в тестах).
type Lister interface {
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
}

// Recorder получает итог каждого вызова (internal/metrics).
type Recorder interface {
	ObserveLookup(status string, duration time.Duration, listed int)
}

// Config фиксирует бакет, префикс и размер результата.
type Config struct {
	Bucket string
	Prefix string
	Limit  int          // 0 → fuzzy.DefaultLimit
	Scorer fuzzy.Scorer // пусто → weighted
}

// Option настраивает Service.
type Option func(*Service)

// WithRecorder подключает сбор метрик.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Service реализует find_similar.
type Service struct {
	lister   Lister
	ranker   *fuzzy.Ranker
	cfg      Config
	recorder Recorder
}

// NewService создаёт сервис с уже аутентифицированным Lister.
func NewService(lister Lister, cfg Config, opts ...Option) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = fuzzy.DefaultLimit
	}
	s := &Service{
		lister:   lister,
		ranker:   fuzzy.NewRanker(cfg.Scorer),
		cfg:      cfg,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config возвращает итоговую конфигурацию (с дефолтами).
func (s *Service) Config() Config {
	return s.cfg
}

// FindSimilar возвращает до Limit ключей, наиболее похожих на query.
//
// Ошибки листинга возвращаются без изменений, частичного результата нет.
func (s *Service) FindSimilar(ctx context.Context, query string) ([]string, error) {
	requestID := uuid.NewString()
	start := time.Now()

	keys, err := s.lister.ListKeys(ctx, s.cfg.Bucket, s.cfg.Prefix)
	if err != nil {
		kind := Kind(err)
		utils.Error("listing failed",
			"request_id", requestID,
			"bucket", s.cfg.Bucket,
			"prefix", s.cfg.Prefix,
			"kind", kind,
			"error", err)
		s.recorder.ObserveLookup(kind, time.Since(start), 0)
		return nil, err
	}

	matches := s.ranker.RankScored(keys, query, s.cfg.Limit)
	result := make([]string, len(matches))
	for i, m := range matches {
		result[i] = m.Key
	}

	fields := []any{
		"request_id", requestID,
		"bucket", s.cfg.Bucket,
		"prefix", s.cfg.Prefix,
		"candidates", len(keys),
		"returned", len(result),
		"duration", time.Since(start),
	}
	if len(matches) > 0 {
		fields = append(fields, "top_key", matches[0].Key, "top_score", matches[0].Score)
	}
	utils.Debug("lookup done", fields...)

	s.recorder.ObserveLookup("ok", time.Since(start), len(keys))
	return result, nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveLookup(string, time.Duration, int) {}
