package fks

import (
	"fmt"

	"github.com/go-logr/logr"
	fkserrors "github.com/tamirms/fks/errors"
)

// defaultMaxAttempts bounds the hash draws per secondary table. At
// quadratic sizing each draw succeeds with probability above 1/2.
const defaultMaxAttempts = 100

// Option is a functional option for configuring construction.
type Option func(*buildConfig)

type buildConfig struct {
	rng         Rand
	logger      logr.Logger
	maxAttempts int
	fold        FoldAlgorithm
	tableSize   int // top-level capacity hint; 0 means the key count
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		rng:         globalRand,
		logger:      logr.Discard(),
		maxAttempts: defaultMaxAttempts,
		fold:        FoldHorner,
	}
}

// newBuildConfig applies opts over the defaults and validates the result.
func newBuildConfig(opts []Option) (*buildConfig, error) {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rng == nil {
		cfg.rng = globalRand
	}
	if cfg.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: got %d", fkserrors.ErrInvalidMaxAttempts, cfg.maxAttempts)
	}
	if !cfg.fold.valid() {
		return nil, fmt.Errorf("%w: %d", fkserrors.ErrUnknownFold, cfg.fold)
	}
	return cfg, nil
}

// WithRand sets the random source used to draw hash parameters.
// The source is used for the whole construction and is not safe to share
// with concurrent constructions unless it does its own locking.
func WithRand(r Rand) Option {
	return func(c *buildConfig) {
		c.rng = r
	}
}

// WithSeed draws hash parameters from a private generator seeded with seed,
// making construction reproducible.
func WithSeed(seed uint64) Option {
	return func(c *buildConfig) {
		c.rng = newSeededRand(seed)
	}
}

// WithLogger sets the logger. V(1) reports per-table summaries,
// V(2) traces every reboot.
func WithLogger(logger logr.Logger) Option {
	return func(c *buildConfig) {
		c.logger = logger
	}
}

// WithMaxAttempts sets the number of hash draws a secondary table may try
// before construction fails with ErrConstructionFailed.
func WithMaxAttempts(n int) Option {
	return func(c *buildConfig) {
		c.maxAttempts = n
	}
}

// WithFoldAlgorithm selects how strings are folded into integers.
// Default is FoldHorner.
func WithFoldAlgorithm(a FoldAlgorithm) Option {
	return func(c *buildConfig) {
		c.fold = a
	}
}

// WithTableSize overrides the top-level capacity hint, which defaults to the
// number of keys. Smaller hints put more keys in each bucket.
func WithTableSize(hint int) Option {
	return func(c *buildConfig) {
		c.tableSize = hint
	}
}
