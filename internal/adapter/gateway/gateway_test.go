package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/masspay/internal/adapter/gateway"
	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

func transferTo(endpoint string) usecase.ExternalTransfer {
	return usecase.ExternalTransfer{
		Reference:        "MP-1-0",
		Provider:         &domain.BankProvider{ID: "bp-1", BankCode: "BIMBANK", Name: "BIM", IsActive: true, APIEndpoint: endpoint},
		DestinationPhone: "22277777",
		Amount:           decimal.RequireFromString("50.5"),
	}
}

type gatewayFunc func(ctx context.Context, transfer usecase.ExternalTransfer) error

func (f gatewayFunc) Transfer(ctx context.Context, transfer usecase.ExternalTransfer) error {
	return f(ctx, transfer)
}

func TestSimulatedGateway(t *testing.T) {
	g := gateway.NewSimulatedGateway(zerolog.Nop())
	assert.NoError(t, g.Transfer(context.Background(), transferTo("")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Transfer(ctx, transferTo("")), context.Canceled)
}

func TestHTTPGateway_Success(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "MP-1-0", r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := gateway.NewHTTPGateway(srv.Client()).Transfer(context.Background(), transferTo(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"reference":         "MP-1-0",
		"bank_code":         "BIMBANK",
		"destination_phone": "22277777",
		"amount":            "50.50",
	}, got)
}

func TestHTTPGateway_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("account closed\n"))
	}))
	defer srv.Close()

	err := gateway.NewHTTPGateway(srv.Client()).Transfer(context.Background(), transferTo(srv.URL))
	require.ErrorIs(t, err, domain.ErrGatewayRejected)
	assert.Contains(t, err.Error(), "status 422: account closed")
}

func TestHTTPGateway_NoEndpoint(t *testing.T) {
	err := gateway.NewHTTPGateway(nil).Transfer(context.Background(), transferTo(""))
	assert.Error(t, err)
}

func TestTimeoutGateway(t *testing.T) {
	slow := gatewayFunc(func(ctx context.Context, _ usecase.ExternalTransfer) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := gateway.NewTimeoutGateway(slow, 20*time.Millisecond).Transfer(context.Background(), transferTo(""))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTimeoutGateway_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	g := gateway.NewTimeoutGateway(gateway.NewHTTPGateway(srv.Client()), 50*time.Millisecond)
	err := g.Transfer(context.Background(), transferTo(srv.URL))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBreakerGateway_OpensPerBank(t *testing.T) {
	var calls atomic.Int32
	failing := gatewayFunc(func(context.Context, usecase.ExternalTransfer) error {
		calls.Add(1)
		return domain.ErrGatewayRejected
	})

	var transitions []gobreaker.State
	g := gateway.NewBreakerGateway(failing, gateway.BreakerConfig{
		ConsecutiveFailures: 2,
		Timeout:             time.Minute,
	}, zerolog.Nop(), func(bankCode string, _, to gobreaker.State) {
		assert.Equal(t, "BIMBANK", bankCode)
		transitions = append(transitions, to)
	})

	transfer := transferTo("")
	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, g.Transfer(context.Background(), transfer), domain.ErrGatewayRejected)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State("BIMBANK"))

	err := g.Transfer(context.Background(), transfer)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "error = %v", err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	other := transferTo("")
	other.Provider.BankCode = "BANKILY"
	assert.ErrorIs(t, g.Transfer(context.Background(), other), domain.ErrGatewayRejected)
	assert.Equal(t, gobreaker.StateClosed, g.State("BANKILY"))
}

func TestBreakerGateway_CancellationDoesNotTrip(t *testing.T) {
	cancelled := gatewayFunc(func(context.Context, usecase.ExternalTransfer) error {
		return context.Canceled
	})
	g := gateway.NewBreakerGateway(cancelled, gateway.BreakerConfig{ConsecutiveFailures: 1}, zerolog.Nop(), nil)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, g.Transfer(context.Background(), transferTo("")), context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, g.State("BIMBANK"))
}

type callRecord struct {
	bankCode string
	result   string
}

type fakeCallRecorder struct {
	calls []callRecord
}

func (r *fakeCallRecorder) GatewayCall(bankCode, result string, _ time.Duration) {
	r.calls = append(r.calls, callRecord{bankCode: bankCode, result: result})
}

func TestInstrumentedGateway_ClassifiesResults(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{"success", nil, gateway.ResultSuccess},
		{"rejected", fmt.Errorf("%w: status 422", domain.ErrGatewayRejected), gateway.ResultRejected},
		{"timeout", context.DeadlineExceeded, gateway.ResultTimeout},
		{"breaker open", gobreaker.ErrOpenState, gateway.ResultBreakerOpen},
		{"other", errors.New("connection reset"), gateway.ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeCallRecorder{}
			g := gateway.NewInstrumentedGateway(gatewayFunc(func(ctx context.Context, transfer usecase.ExternalTransfer) error {
				return tt.err
			}), recorder)

			err := g.Transfer(context.Background(), transferTo("http://bank.invalid"))
			assert.ErrorIs(t, err, tt.err)
			require.Len(t, recorder.calls, 1)
			assert.Equal(t, callRecord{bankCode: "BIMBANK", result: tt.result}, recorder.calls[0])
		})
	}
}
