package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/iho/masspay/internal/usecase"
)

// BreakerConfig controls when a bank's circuit opens.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
}

// DefaultBreakerConfig returns the breaker settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
	}
}

// StateListener is notified when a bank's breaker changes state.
type StateListener func(bankCode string, from, to gobreaker.State)

// BreakerGateway wraps a gateway with one circuit breaker per bank code.
// An open breaker fails transfers fast with gobreaker.ErrOpenState.
type BreakerGateway struct {
	next     usecase.Gateway
	config   BreakerConfig
	logger   zerolog.Logger
	listener StateListener

	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerGateway creates a breaker gateway. listener may be nil.
func NewBreakerGateway(next usecase.Gateway, config BreakerConfig, logger zerolog.Logger, listener StateListener) *BreakerGateway {
	defaults := DefaultBreakerConfig()
	if config.ConsecutiveFailures == 0 {
		config.ConsecutiveFailures = defaults.ConsecutiveFailures
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = defaults.MaxRequests
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &BreakerGateway{
		next:     next,
		config:   config,
		logger:   logger,
		listener: listener,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (g *BreakerGateway) Transfer(ctx context.Context, transfer usecase.ExternalTransfer) error {
	bankCode := ""
	if transfer.Provider != nil {
		bankCode = transfer.Provider.BankCode
	}

	_, err := g.breaker(bankCode).Execute(func() (interface{}, error) {
		return nil, g.next.Transfer(ctx, transfer)
	})
	return err
}

// State reports the breaker state of a bank. Banks never called are closed.
func (g *BreakerGateway) State(bankCode string) gobreaker.State {
	g.mu.RLock()
	cb, ok := g.breakers[bankCode]
	g.mu.RUnlock()
	if !ok {
		return gobreaker.StateClosed
	}
	return cb.State()
}

func (g *BreakerGateway) breaker(bankCode string) *gobreaker.CircuitBreaker {
	g.mu.RLock()
	cb, ok := g.breakers[bankCode]
	g.mu.RUnlock()
	if ok {
		return cb
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok = g.breakers[bankCode]; ok {
		return cb
	}

	threshold := g.config.ConsecutiveFailures
	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bank-" + bankCode,
		MaxRequests: g.config.MaxRequests,
		Interval:    g.config.Interval,
		Timeout:     g.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not the bank's fault.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			g.logger.Warn().
				Str("bank_code", bankCode).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("gateway circuit breaker state changed")
			if g.listener != nil {
				g.listener(bankCode, from, to)
			}
		},
	})
	g.breakers[bankCode] = cb

	return cb
}
