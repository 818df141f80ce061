package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

// maxErrorBody caps how much of a rejection body ends up in the failure reason.
const maxErrorBody = 512

var errNoEndpoint = errors.New("bank provider has no api endpoint")

type transferRequest struct {
	Reference        string `json:"reference"`
	BankCode         string `json:"bank_code"`
	DestinationPhone string `json:"destination_phone"`
	Amount           string `json:"amount"`
}

// HTTPGateway posts transfers as JSON to the provider's API endpoint.
type HTTPGateway struct {
	client *http.Client
}

// NewHTTPGateway creates an HTTP gateway. A nil client uses http.DefaultClient.
func NewHTTPGateway(client *http.Client) *HTTPGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGateway{client: client}
}

func (g *HTTPGateway) Transfer(ctx context.Context, transfer usecase.ExternalTransfer) error {
	if transfer.Provider == nil || transfer.Provider.APIEndpoint == "" {
		return errNoEndpoint
	}

	body, err := json.Marshal(transferRequest{
		Reference:        transfer.Reference,
		BankCode:         transfer.Provider.BankCode,
		DestinationPhone: transfer.DestinationPhone,
		Amount:           transfer.Amount.StringFixed(2),
	})
	if err != nil {
		return fmt.Errorf("encode transfer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, transfer.Provider.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", transfer.Reference)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", transfer.Provider.BankCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(bytes.TrimSpace(detail)) == 0 {
		return fmt.Errorf("%w: status %d", domain.ErrGatewayRejected, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", domain.ErrGatewayRejected, resp.StatusCode, bytes.TrimSpace(detail))
}
