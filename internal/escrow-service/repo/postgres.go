package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	shareddb "github.com/radieske/p2p-wager-platform/internal/shared/db"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
)

// Postgres implementa o ledger de carteiras, o registro de apostas e o motor
// de escrow sobre um único banco relacional. Toda mutação roda dentro de uma
// transação SERIALIZABLE (shared/db.WithTx); o repositório não guarda estado
// além das linhas persistidas.
type Postgres struct {
	db *sql.DB

	// Fixados na subida do serviço; a taxa é congelada em cada escrow na criação.
	feeRate           decimal.Decimal
	platformAccountID string
}

// NewPostgres retorna uma instância do repositório do core.
func NewPostgres(db *sql.DB, feeRate decimal.Decimal, platformAccountID string) *Postgres {
	return &Postgres{db: db, feeRate: feeRate, platformAccountID: platformAccountID}
}

// withTx roda fn numa transação SERIALIZABLE com retry (shared/db.WithTx).
// Falha de serialização que sobreviver aos retries vira ErrConflict: terminal
// para o core, e o único erro que o chamador pode reexecutar às cegas.
func (p *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return conflictErr(shareddb.WithTx(ctx, p.db, fn))
}

func conflictErr(err error) error {
	if shareddb.IsSerializationFailure(err) {
		return fmt.Errorf("tx retries exhausted: %w", domain.ErrConflict)
	}
	return err
}
