// Package gateway implements the external bank transfer port.
package gateway

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/usecase"
)

// SimulatedGateway accepts every transfer without contacting a bank.
type SimulatedGateway struct {
	logger zerolog.Logger
}

// NewSimulatedGateway creates a gateway that always succeeds.
func NewSimulatedGateway(logger zerolog.Logger) *SimulatedGateway {
	return &SimulatedGateway{logger: logger}
}

func (g *SimulatedGateway) Transfer(ctx context.Context, transfer usecase.ExternalTransfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bankCode := ""
	if transfer.Provider != nil {
		bankCode = transfer.Provider.BankCode
	}
	g.logger.Debug().
		Str("reference", transfer.Reference).
		Str("bank_code", bankCode).
		Str("amount", transfer.Amount.String()).
		Msg("simulated external transfer")
	return nil
}
