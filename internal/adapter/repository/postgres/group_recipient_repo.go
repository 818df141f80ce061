package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/infrastructure/postgres/generated"
	"github.com/iho/masspay/internal/usecase"
)

// GroupRecipientRepository implements usecase.GroupRecipientRepository.
type GroupRecipientRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewGroupRecipientRepository creates a new GroupRecipientRepository.
func NewGroupRecipientRepository(pool *pgxpool.Pool) *GroupRecipientRepository {
	return &GroupRecipientRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create adds a recipient to a group within a transaction.
func (r *GroupRecipientRepository) Create(ctx context.Context, tx usecase.Transaction, recipient *domain.GroupRecipient) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	_, err := queries.CreateGroupRecipient(ctx, generated.CreateGroupRecipientParams{
		ID:            recipient.ID,
		GroupID:       recipient.GroupID,
		PhoneNumber:   recipient.PhoneNumber,
		BankCode:      recipient.BankCode,
		FullName:      recipient.FullName,
		DefaultAmount: decimalPtrToNumeric(recipient.DefaultAmount),
		Motive:        recipient.Motive,
		Status:        string(recipient.Status),
		FailureReason: stringPtrToText(recipient.FailureReason),
		CreatedAt:     timeToPgTimestamptz(recipient.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(recipient.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return domain.ErrRecipientExists
	}

	return err
}

// ListByGroup lists every recipient of a group in insertion order.
func (r *GroupRecipientRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.GroupRecipient, error) {
	rows, err := r.queries.ListGroupRecipients(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return rowsToRecipients(rows), nil
}

// ListPending lists the recipients of a group awaiting validation.
func (r *GroupRecipientRepository) ListPending(ctx context.Context, groupID string) ([]*domain.GroupRecipient, error) {
	rows, err := r.queries.ListPendingGroupRecipients(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return rowsToRecipients(rows), nil
}

// Exists reports whether (phone, bankCode) is already in the group.
func (r *GroupRecipientRepository) Exists(ctx context.Context, groupID, phone, bankCode string) (bool, error) {
	return r.queries.GroupRecipientExists(ctx, generated.GroupRecipientExistsParams{
		GroupID:     groupID,
		PhoneNumber: phone,
		BankCode:    bankCode,
	})
}

// UpdateValidation persists the validation outcome of one recipient.
func (r *GroupRecipientRepository) UpdateValidation(ctx context.Context, recipient *domain.GroupRecipient) error {
	_, err := r.queries.UpdateGroupRecipientValidation(ctx, generated.UpdateGroupRecipientValidationParams{
		ID:            recipient.ID,
		Status:        string(recipient.Status),
		FullName:      recipient.FullName,
		FailureReason: stringPtrToText(recipient.FailureReason),
		UpdatedAt:     timeToPgTimestamptz(recipient.UpdatedAt),
	})

	return err
}

// CountByStatus counts the recipients of a group in status.
func (r *GroupRecipientRepository) CountByStatus(ctx context.Context, groupID string, status domain.RecipientStatus) (int, error) {
	n, err := r.queries.CountGroupRecipientsByStatus(ctx, generated.CountGroupRecipientsByStatusParams{
		GroupID: groupID,
		Status:  string(status),
	})

	return int(n), err
}

func rowsToRecipients(rows []generated.GroupRecipient) []*domain.GroupRecipient {
	recipients := make([]*domain.GroupRecipient, 0, len(rows))
	for _, row := range rows {
		recipients = append(recipients, &domain.GroupRecipient{
			ID:            row.ID,
			GroupID:       row.GroupID,
			PhoneNumber:   row.PhoneNumber,
			BankCode:      row.BankCode,
			FullName:      row.FullName,
			DefaultAmount: numericToDecimalPtr(row.DefaultAmount),
			Motive:        row.Motive,
			Status:        domain.RecipientStatus(row.Status),
			FailureReason: textToStringPtr(row.FailureReason),
			CreatedAt:     row.CreatedAt.Time,
			UpdatedAt:     row.UpdatedAt.Time,
		})
	}

	return recipients
}
