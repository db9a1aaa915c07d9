package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBreakerOpen is returned when a call is rejected because the provider's
// breaker is open. It is transient: the orchestrator treats it like any
// other provider failure and falls back, without waiting out the retries.
var ErrBreakerOpen = eris.New("provider breaker is open")

// BreakerConfig controls when a provider breaker opens and recovers.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive transient failures
	// before the breaker opens. Default: 5.
	FailureThreshold int

	// Cooldown is how long the breaker stays open before allowing a
	// probe call through. Default: 30s.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the breaker settings used for provider calls.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// Breaker trips after consecutive transient failures against one provider
// and rejects calls until the cooldown passes, so a degraded provider is
// not hammered by every upload while it recovers. Permanent errors (bad
// documents, 4xx rejections) never trip it.
type Breaker struct {
	provider string
	cfg      BreakerConfig

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool

	now func() time.Time
}

// NewBreaker creates a breaker for one provider.
func NewBreaker(provider string, cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &Breaker{provider: provider, cfg: cfg, now: time.Now}
}

// Call runs fn unless the breaker is open. After the cooldown one probe
// call is let through; its outcome closes or re-opens the breaker.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// Open reports whether calls would currently be rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open && b.now().Sub(b.openedAt) < b.cfg.Cooldown
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		// Probe: leave the breaker open so concurrent calls stay
		// rejected until the probe's result comes back.
		b.openedAt = b.now()
		return nil
	}
	return ErrBreakerOpen
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || !IsTransient(err) {
		if b.open {
			zap.L().Info("resilience: breaker closed",
				zap.String("provider", b.provider),
			)
		}
		b.open = false
		b.failures = 0
		return
	}

	b.failures++
	if !b.open && b.failures >= b.cfg.FailureThreshold {
		b.open = true
		b.openedAt = b.now()
		zap.L().Warn("resilience: breaker opened",
			zap.String("provider", b.provider),
			zap.Int("consecutive_failures", b.failures),
		)
	} else if b.open {
		b.openedAt = b.now()
	}
}
