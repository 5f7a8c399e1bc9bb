package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
)

// CreateBet persiste uma aposta já validada por domain.NewBet.
// Não toca em carteira nenhuma.
func (p *Postgres) CreateBet(ctx context.Context, b *domain.Bet) error {
	var line decimal.NullDecimal
	if b.Line != nil {
		line = decimal.NullDecimal{Decimal: *b.Line, Valid: true}
	}
	var expires sql.NullTime
	if b.ExpiresAt != nil {
		expires = sql.NullTime{Time: *b.ExpiresAt, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id, creator_id, event_id, bet_type, selection, line, stake, odds,
			potential_payout, currency, status, event_starts_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		b.ID, b.CreatorID, b.EventID, b.Type, b.Selection, line, b.Stake, b.Odds,
		b.PotentialPayout, b.Currency, b.Status, b.EventStartsAt, expires)
	return err
}

// GetBet retorna uma aposta pelo id.
func (p *Postgres) GetBet(ctx context.Context, betID string) (*domain.Bet, error) {
	return scanBet(p.db.QueryRowContext(ctx, betSelect+` WHERE id=$1`, betID))
}

const betSelect = `
	SELECT id, creator_id, event_id, bet_type, selection, line, stake, odds,
		potential_payout, currency, status, event_starts_at, expires_at, created_at, updated_at
	FROM bets`

type rowScanner interface{ Scan(dest ...any) error }

func scanBet(row rowScanner) (*domain.Bet, error) {
	b := &domain.Bet{}
	var line decimal.NullDecimal
	var expires sql.NullTime
	err := row.Scan(&b.ID, &b.CreatorID, &b.EventID, &b.Type, &b.Selection, &line,
		&b.Stake, &b.Odds, &b.PotentialPayout, &b.Currency, &b.Status,
		&b.EventStartsAt, &expires, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrBetNotFound
	}
	if err != nil {
		return nil, err
	}
	if line.Valid {
		b.Line = &line.Decimal
	}
	if expires.Valid {
		b.ExpiresAt = &expires.Time
	}
	return b, nil
}

// MatchBet fecha uma aposta aberta com um tomador contrário e cria o BetMatch.
// taker_stake = potential_payout - creator_stake. Não movimenta fundos: o
// financiamento é do motor de escrow, chamado logo em seguida na mesma operação
// lógica.
func (p *Postgres) MatchBet(ctx context.Context, takerID, betID string) (*domain.BetMatch, error) {
	if takerID == "" {
		return nil, fmt.Errorf("taker required: %w", domain.ErrValidation)
	}

	m := &domain.BetMatch{}
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		b, err := scanBet(tx.QueryRowContext(ctx, betSelect+` WHERE id=$1 FOR UPDATE`, betID))
		if err != nil {
			return err
		}
		if b.Status != domain.BetOpen {
			return domain.ErrBetNotOpen
		}
		if b.ExpiresAt != nil && !b.ExpiresAt.After(time.Now()) {
			return fmt.Errorf("bet expired: %w", domain.ErrBetNotOpen)
		}
		if takerID == b.CreatorID {
			return domain.ErrSelfMatch
		}
		if !b.EventStartsAt.After(time.Now()) {
			return domain.ErrEventStarted
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bets SET status='matched', updated_at=NOW() WHERE id=$1`, betID); err != nil {
			return err
		}

		m.ID = uuid.NewString()
		m.BetID = betID
		m.TakerID = takerID
		m.TakerStake = b.TakerStake()
		m.TakerPayout = b.PotentialPayout
		m.Status = domain.MatchActive
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bet_matches (id, bet_id, taker_id, taker_stake, taker_payout, status)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			m.ID, m.BetID, m.TakerID, m.TakerStake, m.TakerPayout, m.Status)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CancelBet cancela uma aposta ainda aberta, somente pelo criador.
// Update condicional: zero linhas afetadas vira o erro de negócio certo.
func (p *Postgres) CancelBet(ctx context.Context, creatorID, betID string) (*domain.Bet, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET status='cancelled', updated_at=NOW()
		WHERE id=$1 AND creator_id=$2 AND status='open'`, betID, creatorID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var owner string
		var status domain.BetStatus
		err := p.db.QueryRowContext(ctx,
			`SELECT creator_id, status FROM bets WHERE id=$1`, betID).Scan(&owner, &status)
		if err == sql.ErrNoRows {
			return nil, domain.ErrBetNotFound
		}
		if err != nil {
			return nil, err
		}
		if owner != creatorID {
			return nil, domain.ErrNotParty
		}
		return nil, domain.ErrBetNotOpen
	}
	return p.GetBet(ctx, betID)
}

// GetMatch retorna um BetMatch pelo id.
func (p *Postgres) GetMatch(ctx context.Context, matchID string) (*domain.BetMatch, error) {
	m := &domain.BetMatch{}
	var funded sql.NullTime
	err := p.db.QueryRowContext(ctx, `
		SELECT id, bet_id, taker_id, taker_stake, taker_payout, status, funded_at, created_at, updated_at
		FROM bet_matches WHERE id=$1`, matchID).
		Scan(&m.ID, &m.BetID, &m.TakerID, &m.TakerStake, &m.TakerPayout, &m.Status,
			&funded, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	if funded.Valid {
		m.FundedAt = &funded.Time
	}
	return m, nil
}
