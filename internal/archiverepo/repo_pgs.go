// Package archiverepo manages the Postgres archive of finished transfers.
package archiverepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-petr/lynx-wire/pkg/dbpkg"
	"github.com/go-petr/lynx-wire/pkg/errorspkg"
)

// ErrNotTerminal indicates an attempt to archive a transfer still in flight.
var ErrNotTerminal = errors.New("only finished transfers can be archived")

// RepoPGS facilitates archive repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns archive RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const saveQuery = `
INSERT INTO transfers (
    id, debtor_name, institution_number, transit_number, account_number,
    creditor_name, creditor_iban, creditor_bic, amount, currency, purpose,
    status, processing_steps, pacs_008_xml, pacs_002_xml, pacs_004_xml,
    pacs_007_xml, created_at, finished_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
)
ON CONFLICT (id) DO NOTHING
`

func document(m *domain.Message) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: m.XML, Valid: true}
}

// Save stores a finished transfer. Saving the same transfer twice is a no-op.
func (r *RepoPGS) Save(ctx context.Context, t domain.Transfer) error {
	l := zerolog.Ctx(ctx)

	if !t.Status.IsTerminal() {
		return ErrNotTerminal
	}

	steps, err := json.Marshal(t.ProcessingSteps)
	if err != nil {
		l.Error().Err(err).Str("transfer_id", t.ID).Send()
		return errorspkg.ErrInternal
	}

	_, err = r.db.ExecContext(ctx, saveQuery,
		t.ID,
		t.DebtorName,
		t.InstitutionNumber,
		t.TransitNumber,
		t.AccountNumber,
		t.CreditorName,
		t.CreditorIBAN,
		t.CreditorBIC,
		t.Amount.StringFixed(2),
		t.Currency,
		t.Purpose,
		string(t.Status),
		steps,
		document(t.Messages.Pacs008),
		document(t.Messages.Pacs002),
		document(t.Messages.Pacs004),
		document(t.Messages.Pacs007),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		l.Error().Err(err).Str("transfer_id", t.ID).Msg("cannot archive transfer")

		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "transfers_status_check" {
			return ErrNotTerminal
		}

		return errorspkg.ErrInternal
	}

	return nil
}
