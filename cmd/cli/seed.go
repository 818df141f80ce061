package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/app"
	"github.com/iho/masspay/internal/domain"
)

type seedBank struct {
	code, name, endpoint string
}

type seedParty struct {
	phone, firstName, lastName string
}

type seedAccount struct {
	number, phone, bankCode, balance string
}

var (
	demoBanks = []seedBank{
		{"SEDAD", "Sedad Bank", "https://api.sedad.test.com"},
		{"BIMBANK", "Bimbank Bank", "https://api.bimbank.test.com"},
		{"BANKILY", "Bankily Bank", "https://api.bankily.test.com"},
	}

	demoParties = []seedParty{
		{"20593670", "Med yahya", "Mohamed"},
		{"42563512", "Selemhe", "Med salem"},
		{"36459515", "Aichetou", "Mohamed"},
		{"26456565", "Ahmed", "Lemine"},
		{"26594815", "Sidi", "Lemine"},
	}

	demoAccounts = []seedAccount{
		{"ACC001", "20593670", "SEDAD", "10000.00"},
		{"ACC002", "42563512", "SEDAD", "5000.00"},
		{"ACC003", "36459515", "BIMBANK", "7500.00"},
		{"ACC004", "26456565", "BIMBANK", "3000.00"},
		{"ACC005", "26594815", "BANKILY", "12000.00"},
	}
)

type seedReport struct {
	BanksCreated    int `json:"banks_created"`
	PartiesCreated  int `json:"parties_created"`
	AccountsCreated int `json:"accounts_created"`
}

// seed creates the demo data. Records that already exist are left untouched, so it can run
// more than once.
func seed(ctx context.Context, repos *app.Repositories) (*seedReport, error) {
	report := &seedReport{}
	now := time.Now().UTC()

	for _, b := range demoBanks {
		_, err := repos.Providers.GetByCode(ctx, b.code)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrBankProviderNotFound) {
			return nil, fmt.Errorf("look up bank %s: %w", b.code, err)
		}
		err = repos.Providers.Create(ctx, &domain.BankProvider{
			ID:          repos.IDGen.Generate(),
			BankCode:    b.code,
			Name:        b.name,
			IsActive:    true,
			APIEndpoint: b.endpoint,
			CreatedAt:   now,
		})
		if err != nil {
			return nil, fmt.Errorf("create bank %s: %w", b.code, err)
		}
		report.BanksCreated++
	}

	partyIDs := make(map[string]string, len(demoParties))
	for _, p := range demoParties {
		existing, err := repos.Parties.GetByPhone(ctx, p.phone)
		if err == nil {
			partyIDs[p.phone] = existing.ID
			continue
		}
		if !errors.Is(err, domain.ErrPartyNotFound) {
			return nil, fmt.Errorf("look up party %s: %w", p.phone, err)
		}
		party := &domain.Party{
			ID:          repos.IDGen.Generate(),
			PhoneNumber: p.phone,
			FirstName:   p.firstName,
			LastName:    p.lastName,
			CreatedAt:   now,
		}
		if err := repos.Parties.Create(ctx, party); err != nil {
			return nil, fmt.Errorf("create party %s: %w", p.phone, err)
		}
		partyIDs[p.phone] = party.ID
		report.PartiesCreated++
	}

	for _, a := range demoAccounts {
		_, err := repos.Accounts.GetByNumber(ctx, a.number)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("look up account %s: %w", a.number, err)
		}
		err = repos.Accounts.Create(ctx, &domain.Account{
			ID:        repos.IDGen.Generate(),
			Number:    a.number,
			PartyID:   partyIDs[a.phone],
			BankCode:  a.bankCode,
			Balance:   decimal.RequireFromString(a.balance),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("create account %s: %w", a.number, err)
		}
		report.AccountsCreated++
	}

	return report, nil
}
