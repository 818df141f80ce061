package gateway

import (
	"context"
	"time"

	"github.com/iho/masspay/internal/usecase"
)

// DefaultTimeout bounds a single gateway call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// TimeoutGateway gives every transfer its own deadline.
type TimeoutGateway struct {
	next    usecase.Gateway
	timeout time.Duration
}

func NewTimeoutGateway(next usecase.Gateway, timeout time.Duration) *TimeoutGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TimeoutGateway{next: next, timeout: timeout}
}

func (g *TimeoutGateway) Transfer(ctx context.Context, transfer usecase.ExternalTransfer) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return g.next.Transfer(ctx, transfer)
}
