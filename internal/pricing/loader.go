package pricing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseSheet     = "base-pricing.csv"
	DefaultDiscountSheet = "quantity-discounts.csv"
)

// Source fetches the raw bytes of a named sheet.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// SheetCache stores raw sheets between sessions. GetSheet returns nil data
// and a nil error on a miss.
type SheetCache interface {
	GetSheet(ctx context.Context, name string) ([]byte, error)
	SetSheet(ctx context.Context, name string, data []byte) error
}

// RetryPolicy bounds the fetch attempts for a single sheet.
type RetryPolicy struct {
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	AttemptTimeout  time.Duration
}

// DefaultRetryPolicy is three attempts, backing off from 1s up to 5s, with
// a 10s timeout per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:        3,
		InitialInterval: time.Second,
		MaxInterval:     5 * time.Second,
		AttemptTimeout:  10 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = d.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = d.AttemptTimeout
	}
	return p
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.Attempts-1)), ctx)
}

// LoaderConfig names the two sheets and the retry policy.
type LoaderConfig struct {
	BaseSheet     string
	DiscountSheet string
	Retry         RetryPolicy
}

// Loader fetches and parses the pricing sheets.
type Loader struct {
	source Source
	cache  SheetCache
	cfg    LoaderConfig
	logger *zap.Logger
}

// NewLoader creates a loader. cache may be nil.
func NewLoader(source Source, cache SheetCache, cfg LoaderConfig, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseSheet == "" {
		cfg.BaseSheet = DefaultBaseSheet
	}
	if cfg.DiscountSheet == "" {
		cfg.DiscountSheet = DefaultDiscountSheet
	}
	cfg.Retry = cfg.Retry.withDefaults()

	return &Loader{
		source: source,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Load fetches both sheets concurrently and returns the parsed tables.
// Failures are reported as *DataUnavailableError. A sheet the source reports
// as missing (fs.ErrNotExist) is not retried.
func (l *Loader) Load(ctx context.Context) (*Tables, error) {
	var (
		base      []BasePriceRow
		discounts []QuantityDiscountRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.loadSheet(gctx, l.cfg.BaseSheet, func(data []byte) (err error) {
			base, err = ParseBasePricing(data, l.logger)
			return err
		})
	})
	g.Go(func() error {
		return l.loadSheet(gctx, l.cfg.DiscountSheet, func(data []byte) (err error) {
			discounts, err = ParseQuantityDiscounts(data, l.logger)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.Info("Pricing tables loaded",
		zap.Int("area_tiers", len(base)),
		zap.Int("quantity_tiers", len(discounts)))

	return &Tables{BasePricing: base, QuantityDiscounts: discounts}, nil
}

func (l *Loader) loadSheet(ctx context.Context, name string, parse func([]byte) error) error {
	if l.fromCache(ctx, name, parse) {
		return nil
	}

	policy := l.cfg.Retry
	attempts := 0
	var raw []byte

	err := backoff.RetryNotify(
		func() error {
			attempts++
			actx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
			defer cancel()

			data, err := l.source.Fetch(actx, name)
			if errors.Is(err, fs.ErrNotExist) {
				return backoff.Permanent(fmt.Errorf("%w: %w", ErrFetch, err))
			}
			if err != nil {
				return fmt.Errorf("%w: %w", ErrFetch, err)
			}
			if err := parse(data); err != nil {
				return backoff.Permanent(err)
			}
			raw = data
			return nil
		},
		policy.backOff(ctx),
		func(err error, next time.Duration) {
			l.logger.Warn("Pricing sheet fetch failed, retrying...",
				zap.String("sheet", name),
				zap.Int("attempt", attempts),
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		if !errors.Is(err, ErrFetch) && !errors.Is(err, ErrMalformed) {
			err = fmt.Errorf("%w: %w", ErrFetch, err)
		}
		l.logger.Error("Pricing sheet unavailable",
			zap.String("sheet", name),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return &DataUnavailableError{Sheet: name, Attempts: attempts, Err: err}
	}

	if l.cache != nil {
		if err := l.cache.SetSheet(ctx, name, raw); err != nil {
			l.logger.Warn("Failed to cache pricing sheet",
				zap.String("sheet", name),
				zap.Error(err))
		}
	}
	return nil
}

// fromCache reports whether a usable cached copy of the sheet was parsed.
func (l *Loader) fromCache(ctx context.Context, name string, parse func([]byte) error) bool {
	if l.cache == nil {
		return false
	}

	data, err := l.cache.GetSheet(ctx, name)
	if err != nil {
		l.logger.Warn("Pricing sheet cache read failed",
			zap.String("sheet", name),
			zap.Error(err))
		return false
	}
	if len(data) == 0 {
		return false
	}
	if err := parse(data); err != nil {
		l.logger.Warn("Cached pricing sheet unusable, refetching",
			zap.String("sheet", name),
			zap.Error(err))
		return false
	}

	l.logger.Debug("Pricing sheet served from cache", zap.String("sheet", name))
	return true
}

// FileSource reads sheets from a filesystem, such as a directory of static
// assets or an embedded FS.
type FileSource struct {
	fsys fs.FS
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{fsys: os.DirFS(dir)}
}

func NewFSSource(fsys fs.FS) *FileSource {
	return &FileSource{fsys: fsys}
}

func (s *FileSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(s.fsys, name)
}
