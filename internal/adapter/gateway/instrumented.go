package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

// Call results reported to a CallRecorder.
const (
	ResultSuccess     = "success"
	ResultRejected    = "rejected"
	ResultTimeout     = "timeout"
	ResultBreakerOpen = "breaker_open"
	ResultError       = "error"
)

// CallRecorder receives the outcome of every gateway call.
type CallRecorder interface {
	GatewayCall(bankCode, result string, duration time.Duration)
}

// InstrumentedGateway reports each transfer to a CallRecorder.
type InstrumentedGateway struct {
	next     usecase.Gateway
	recorder CallRecorder
}

func NewInstrumentedGateway(next usecase.Gateway, recorder CallRecorder) *InstrumentedGateway {
	return &InstrumentedGateway{next: next, recorder: recorder}
}

func (g *InstrumentedGateway) Transfer(ctx context.Context, transfer usecase.ExternalTransfer) error {
	start := time.Now()
	err := g.next.Transfer(ctx, transfer)

	bankCode := ""
	if transfer.Provider != nil {
		bankCode = transfer.Provider.BankCode
	}
	g.recorder.GatewayCall(bankCode, classify(err), time.Since(start))

	return err
}

func classify(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ResultBreakerOpen
	case errors.Is(err, context.DeadlineExceeded):
		return ResultTimeout
	case errors.Is(err, domain.ErrGatewayRejected):
		return ResultRejected
	default:
		return ResultError
	}
}
