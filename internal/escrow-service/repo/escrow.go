package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	shareddb "github.com/radieske/p2p-wager-platform/internal/shared/db"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
)

// escrowParties é a visão juntada escrow + match + bet usada pelas operações
// de liquidação.
type escrowParties struct {
	escrow     domain.Escrow
	betID      string
	matchID    string
	creatorID  string
	takerID    string
	creatorStk decimal.Decimal
	takerStk   decimal.Decimal
	currency   string
}

func loadEscrowParties(ctx context.Context, tx *sql.Tx, escrowID string) (*escrowParties, error) {
	ep := &escrowParties{}
	e := &ep.escrow
	err := tx.QueryRowContext(ctx, `
		SELECT e.id, e.bet_match_id, e.amount, e.platform_fee, e.status,
			m.id, m.taker_id, m.taker_stake, b.id, b.creator_id, b.stake, b.currency
		FROM escrows e
		JOIN bet_matches m ON m.id = e.bet_match_id
		JOIN bets b ON b.id = m.bet_id
		WHERE e.id = $1
		FOR UPDATE OF e`, escrowID).
		Scan(&e.ID, &e.BetMatchID, &e.Amount, &e.PlatformFee, &e.Status,
			&ep.matchID, &ep.takerID, &ep.takerStk, &ep.betID, &ep.creatorID, &ep.creatorStk, &ep.currency)
	if err == sql.ErrNoRows {
		return nil, domain.ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	return ep, nil
}

func (ep *escrowParties) isParty(userID string) bool {
	return userID == ep.creatorID || userID == ep.takerID
}

// tagParty marca de quem é o saldo insuficiente ao financiar um escrow;
// qualquer outro erro passa intacto.
func tagParty(party domain.Party, err error) error {
	if errors.Is(err, domain.ErrInsufficientFunds) {
		return &domain.InsufficientFundsError{Party: party}
	}
	return err
}

// checkTransition valida a transição contra a tabela do domínio antes do flip
// condicional no banco. A tabela decide o que é legal; o UPDATE condicional só
// resolve quem ganha a corrida.
func checkTransition(from, to domain.EscrowStatus) error {
	if !domain.CanTransition(from, to) {
		return fmt.Errorf("%s -> %s: %w", from, to, domain.ErrInvalidTransition)
	}
	return nil
}

// CreateEscrow financia um match: debita as duas carteiras, registra um
// lançamento por parte e abre o escrow em 'active', tudo numa unidade de
// trabalho. É o único ponto onde dinheiro sai do controle dos usuários.
// O índice único em escrows(bet_match_id) garante no máximo um escrow por
// match mesmo sob chamadas concorrentes.
func (p *Postgres) CreateEscrow(ctx context.Context, betMatchID string) (*domain.Escrow, error) {
	esc := &domain.Escrow{}
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		var (
			betID, takerID, creatorID, currency string
			takerStk, creatorStk                decimal.Decimal
			matchStatus                         domain.MatchStatus
			fundedAt                            sql.NullTime
		)
		err := tx.QueryRowContext(ctx, `
			SELECT m.bet_id, m.taker_id, m.taker_stake, m.status, m.funded_at,
				b.creator_id, b.stake, b.currency
			FROM bet_matches m
			JOIN bets b ON b.id = m.bet_id
			WHERE m.id = $1
			FOR UPDATE OF m`, betMatchID).
			Scan(&betID, &takerID, &takerStk, &matchStatus, &fundedAt,
				&creatorID, &creatorStk, &currency)
		if err == sql.ErrNoRows {
			return domain.ErrMatchNotFound
		}
		if err != nil {
			return err
		}
		if fundedAt.Valid {
			return domain.ErrEscrowExists
		}
		if matchStatus != domain.MatchActive {
			return fmt.Errorf("match is %s: %w", matchStatus, domain.ErrInvalidTransition)
		}

		amount := creatorStk.Add(takerStk)
		fee := domain.ComputePlatformFee(amount, p.feeRate)

		esc.ID = uuid.NewString()
		esc.BetMatchID = betMatchID
		esc.Amount = amount
		esc.PlatformFee = fee
		esc.Status = domain.EscrowActive
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO escrows (id, bet_match_id, amount, platform_fee, status)
			VALUES ($1,$2,$3,$4,'active')`,
			esc.ID, betMatchID, amount, fee); err != nil {
			if shareddb.IsUniqueViolation(err) {
				return domain.ErrEscrowExists
			}
			return err
		}

		// Debita cada parte pelo próprio stake, marcando de quem é o saldo
		// insuficiente quando o débito condicional não afeta linha nenhuma.
		// A carteira é criada sob demanda: parte que nunca depositou falha
		// por saldo, não por carteira ausente.
		type legRow struct {
			userID string
			stake  decimal.Decimal
			party  domain.Party
		}
		for _, leg := range []legRow{
			{creatorID, creatorStk, domain.PartyCreator},
			{takerID, takerStk, domain.PartyTaker},
		} {
			walletID, err := p.getOrCreateWalletTx(ctx, tx, leg.userID, currency)
			if err != nil {
				return fmt.Errorf("%s wallet: %w", leg.party, err)
			}
			if err := p.MutateBalance(ctx, tx, walletID, leg.stake.Neg()); err != nil {
				return tagParty(leg.party, err)
			}
			if err := p.RecordTransaction(ctx, tx, &domain.Transaction{
				WalletID: walletID,
				Amount:   leg.stake.Neg(),
				Kind:     domain.TxBet,
				Status:   domain.TxCompleted,
				Metadata: domain.TxMetadata{EscrowID: esc.ID, Role: string(leg.party)},
			}); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE bet_matches SET funded_at=NOW(), updated_at=NOW() WHERE id=$1`, betMatchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.GetEscrow(ctx, esc.ID)
}

// Release libera o pote para o vencedor: amount - platform_fee para a carteira
// dele, taxa para a conta da plataforma, Payout criado, escrow 'completed'.
func (p *Postgres) Release(ctx context.Context, escrowID, winnerID string) (*domain.Payout, error) {
	return p.release(ctx, escrowID, winnerID, domain.EscrowActive, "", "")
}

// release implementa Release e o braço com vencedor do ResolveDispute.
// O flip condicional de status é a defesa contra liberação dupla: o segundo
// chamador concorrente vê zero linhas afetadas e recebe o erro de estado,
// nunca um segundo crédito.
func (p *Postgres) release(ctx context.Context, escrowID, winnerID string, from domain.EscrowStatus, resolvedBy, notes string) (*domain.Payout, error) {
	if err := checkTransition(from, domain.EscrowCompleted); err != nil {
		return nil, err
	}
	payout := &domain.Payout{}
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		ep, err := loadEscrowParties(ctx, tx, escrowID)
		if err != nil {
			return err
		}
		if !ep.isParty(winnerID) {
			return domain.ErrWinnerNotParty
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE escrows
			SET status='completed', winner_id=$2, resolved_by=NULLIF($3,''),
				resolution_notes=NULLIF($4,''), released_at=NOW(), updated_at=NOW()
			WHERE id=$1 AND status=$5`,
			escrowID, winnerID, resolvedBy, notes, from)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return wrongStatus(from)
		}

		winnings := ep.escrow.Winnings()
		winnerWallet, err := lookupWalletID(ctx, tx, winnerID, ep.currency)
		if err != nil {
			return err
		}
		if err := p.MutateBalance(ctx, tx, winnerWallet, winnings); err != nil {
			return err
		}
		winTx := &domain.Transaction{
			WalletID: winnerWallet,
			Amount:   winnings,
			Kind:     domain.TxWin,
			Status:   domain.TxCompleted,
			Metadata: domain.TxMetadata{EscrowID: escrowID, Role: "winner"},
		}
		if err := p.RecordTransaction(ctx, tx, winTx); err != nil {
			return err
		}

		// A taxa sai do escrow para a carteira da plataforma na mesma unidade
		// de trabalho: débitos que entraram == créditos que saem.
		if ep.escrow.PlatformFee.IsPositive() {
			platWallet, err := p.getOrCreateWalletTx(ctx, tx, p.platformAccountID, ep.currency)
			if err != nil {
				return err
			}
			if err := p.MutateBalance(ctx, tx, platWallet, ep.escrow.PlatformFee); err != nil {
				return err
			}
			if err := p.RecordTransaction(ctx, tx, &domain.Transaction{
				WalletID: platWallet,
				Amount:   ep.escrow.PlatformFee,
				Kind:     domain.TxFee,
				Status:   domain.TxCompleted,
				Metadata: domain.TxMetadata{EscrowID: escrowID, Role: "platform"},
			}); err != nil {
				return err
			}
		}

		payout.ID = uuid.NewString()
		payout.UserID = winnerID
		payout.EscrowID = escrowID
		payout.Amount = winnings
		payout.Status = domain.PayoutCompleted
		payout.TransactionID = winTx.ID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payouts (id, user_id, escrow_id, amount, status, transaction_id)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			payout.ID, payout.UserID, payout.EscrowID, payout.Amount, payout.Status, payout.TransactionID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bet_matches SET status='settled', updated_at=NOW() WHERE id=$1`, ep.matchID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE bets SET status='settled', updated_at=NOW() WHERE id=$1`, ep.betID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// OpenDispute congela um escrow ativo em 'disputed'. Só uma parte do match
// pode abrir; fundo nenhum se move.
func (p *Postgres) OpenDispute(ctx context.Context, escrowID, userID, reason string) (*domain.Escrow, error) {
	if reason == "" {
		return nil, fmt.Errorf("dispute reason required: %w", domain.ErrValidation)
	}
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		ep, err := loadEscrowParties(ctx, tx, escrowID)
		if err != nil {
			return err
		}
		if !ep.isParty(userID) {
			return domain.ErrNotParty
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE escrows
			SET status='disputed', dispute_reason=$2, disputed_by=$3, updated_at=NOW()
			WHERE id=$1 AND status='active'`, escrowID, reason, userID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return domain.ErrEscrowNotActive
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE bet_matches SET status='disputed', updated_at=NOW() WHERE id=$1`, ep.matchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.GetEscrow(ctx, escrowID)
}

// ResolveDispute arbitra um escrow disputado: com vencedor comporta-se como o
// release (carimbando resolved_by/resolution_notes); sem vencedor reembolsa as
// duas partes sem reter taxa.
func (p *Postgres) ResolveDispute(ctx context.Context, escrowID string, winnerID *string, adminID, notes string) (*domain.Resolution, error) {
	if adminID == "" {
		return nil, fmt.Errorf("admin required: %w", domain.ErrValidation)
	}

	var payout *domain.Payout
	if winnerID != nil {
		pout, err := p.release(ctx, escrowID, *winnerID, domain.EscrowDisputed, adminID, notes)
		if err != nil {
			return nil, err
		}
		payout = pout
	} else {
		if err := p.refund(ctx, escrowID, domain.EscrowDisputed, adminID, notes); err != nil {
			return nil, err
		}
	}

	esc, err := p.GetEscrow(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	return &domain.Resolution{Escrow: esc, Payout: payout}, nil
}

// RefundVoid reembolsa um escrow ainda ativo cujo resultado anulou a aposta
// (push na linha, evento cancelado). Transição active -> refunded legal.
func (p *Postgres) RefundVoid(ctx context.Context, escrowID, reason string) (*domain.Escrow, error) {
	if err := p.refund(ctx, escrowID, domain.EscrowActive, "", reason); err != nil {
		return nil, err
	}
	return p.GetEscrow(ctx, escrowID)
}

// refund devolve a cada parte exatamente o stake original — nunca divisão
// igualitária do pote — e não retém taxa alguma.
func (p *Postgres) refund(ctx context.Context, escrowID string, from domain.EscrowStatus, resolvedBy, notes string) error {
	if err := checkTransition(from, domain.EscrowRefunded); err != nil {
		return err
	}
	return p.withTx(ctx, func(tx *sql.Tx) error {
		ep, err := loadEscrowParties(ctx, tx, escrowID)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE escrows
			SET status='refunded', resolved_by=NULLIF($2,''), resolution_notes=NULLIF($3,''),
				released_at=NOW(), updated_at=NOW()
			WHERE id=$1 AND status=$4`, escrowID, resolvedBy, notes, from)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return wrongStatus(from)
		}

		for _, leg := range []struct {
			userID string
			stake  decimal.Decimal
			party  domain.Party
		}{
			{ep.creatorID, ep.creatorStk, domain.PartyCreator},
			{ep.takerID, ep.takerStk, domain.PartyTaker},
		} {
			walletID, err := lookupWalletID(ctx, tx, leg.userID, ep.currency)
			if err != nil {
				return err
			}
			if err := p.MutateBalance(ctx, tx, walletID, leg.stake); err != nil {
				return err
			}
			if err := p.RecordTransaction(ctx, tx, &domain.Transaction{
				WalletID: walletID,
				Amount:   leg.stake,
				Kind:     domain.TxRefund,
				Status:   domain.TxCompleted,
				Metadata: domain.TxMetadata{EscrowID: escrowID, Role: string(leg.party)},
			}); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bet_matches SET status='cancelled', updated_at=NOW() WHERE id=$1`, ep.matchID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE bets SET status='refunded', updated_at=NOW() WHERE id=$1`, ep.betID)
		return err
	})
}

// wrongStatus traduz um flip condicional sem efeito no erro de estado certo.
func wrongStatus(expected domain.EscrowStatus) error {
	if expected == domain.EscrowDisputed {
		return domain.ErrEscrowNotDisputed
	}
	return domain.ErrEscrowNotActive
}

// GetEscrow retorna um escrow pelo id, com os campos de resolução.
func (p *Postgres) GetEscrow(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	e := &domain.Escrow{}
	var winner, reason, disputedBy, resolvedBy, notes sql.NullString
	var released sql.NullTime
	err := p.db.QueryRowContext(ctx, `
		SELECT id, bet_match_id, amount, platform_fee, status, winner_id, dispute_reason,
			disputed_by, resolved_by, resolution_notes, released_at, created_at, updated_at
		FROM escrows WHERE id=$1`, escrowID).
		Scan(&e.ID, &e.BetMatchID, &e.Amount, &e.PlatformFee, &e.Status, &winner, &reason,
			&disputedBy, &resolvedBy, &notes, &released, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	e.WinnerID = winner.String
	e.DisputeReason = reason.String
	e.DisputedBy = disputedBy.String
	e.ResolvedBy = resolvedBy.String
	e.ResolutionNotes = notes.String
	if released.Valid {
		e.ReleasedAt = &released.Time
	}
	return e, nil
}

// SettlementCandidate é um escrow ativo pronto para liquidação por resultado.
type SettlementCandidate struct {
	EscrowID string
	Bet      domain.Bet
	Match    domain.BetMatch
}

// OpenEscrowsByEvent lista escrows ativos de um evento, com aposta e match,
// para o settlement-worker aplicar o resultado final.
func (p *Postgres) OpenEscrowsByEvent(ctx context.Context, eventID string) ([]SettlementCandidate, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT e.id, b.id, b.creator_id, b.event_id, b.bet_type, b.selection, b.line,
			b.stake, b.odds, b.potential_payout, b.currency,
			m.id, m.taker_id, m.taker_stake
		FROM escrows e
		JOIN bet_matches m ON m.id = e.bet_match_id
		JOIN bets b ON b.id = m.bet_id
		WHERE e.status='active' AND b.event_id=$1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SettlementCandidate
	for rows.Next() {
		var c SettlementCandidate
		var line decimal.NullDecimal
		if err := rows.Scan(&c.EscrowID, &c.Bet.ID, &c.Bet.CreatorID, &c.Bet.EventID,
			&c.Bet.Type, &c.Bet.Selection, &line, &c.Bet.Stake, &c.Bet.Odds,
			&c.Bet.PotentialPayout, &c.Bet.Currency,
			&c.Match.ID, &c.Match.TakerID, &c.Match.TakerStake); err != nil {
			return nil, err
		}
		if line.Valid {
			c.Bet.Line = &line.Decimal
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
