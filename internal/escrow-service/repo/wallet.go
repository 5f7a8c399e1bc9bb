package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	shareddb "github.com/radieske/p2p-wager-platform/internal/shared/db"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
)

// GetOrCreateWallet retorna a carteira de (user, currency), criando com saldo
// zero se não existir. Idempotente: a corrida de criação é resolvida pelo
// ON CONFLICT e releitura.
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID, currency string) (*domain.Wallet, error) {
	if userID == "" || currency == "" {
		return nil, fmt.Errorf("user and currency required: %w", domain.ErrValidation)
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id, currency, balance, status)
		VALUES ($1, $2, $3, 0, 'active')
		ON CONFLICT (user_id, currency) DO NOTHING`,
		uuid.NewString(), userID, currency)
	if err != nil {
		return nil, err
	}

	return p.GetWallet(ctx, userID, currency)
}

// GetWallet retorna a carteira de (user, currency) sem criar.
func (p *Postgres) GetWallet(ctx context.Context, userID, currency string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, currency, balance, status, created_at, updated_at
		FROM wallets WHERE user_id=$1 AND currency=$2`, userID, currency).
		Scan(&w.ID, &w.UserID, &w.Currency, &w.Balance, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// getOrCreateWalletTx é a variante composável de GetOrCreateWallet, usada
// dentro da unidade de trabalho do chamador (ex.: crédito da taxa no release).
func (p *Postgres) getOrCreateWalletTx(ctx context.Context, tx *sql.Tx, userID, currency string) (walletID string, err error) {
	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id, currency, balance, status)
		VALUES ($1, $2, $3, 0, 'active')
		ON CONFLICT (user_id, currency) DO NOTHING`,
		uuid.NewString(), userID, currency)
	if err != nil {
		return "", err
	}
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM wallets WHERE user_id=$1 AND currency=$2`, userID, currency).Scan(&walletID)
	return walletID, err
}

// lookupWalletID resolve o id da carteira dentro da transação do chamador.
func lookupWalletID(ctx context.Context, tx *sql.Tx, userID, currency string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM wallets WHERE user_id=$1 AND currency=$2`, userID, currency).Scan(&id)
	if err == sql.ErrNoRows {
		return "", domain.ErrWalletNotFound
	}
	return id, err
}

// MutateBalance aplica um delta com sinal ao saldo, dentro da unidade de
// trabalho do chamador. O update condicional é a defesa contra saldo negativo
// sob débitos concorrentes: zero linhas afetadas vira o erro de negócio certo,
// nunca um saldo corrigido silenciosamente.
func (p *Postgres) MutateBalance(ctx context.Context, tx *sql.Tx, walletID string, delta decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND status = 'active' AND balance + $1 >= 0`,
		delta, walletID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Zero linhas: distingue carteira ausente, inativa ou sem saldo.
	var status domain.WalletStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM wallets WHERE id=$1`, walletID).Scan(&status)
	if err == sql.ErrNoRows {
		return domain.ErrWalletNotFound
	}
	if err != nil {
		return err
	}
	if status != domain.WalletActive {
		return fmt.Errorf("wallet %s is %s: %w", walletID, status, domain.ErrWalletInactive)
	}
	return domain.ErrInsufficientFunds
}

// RecordTransaction grava o lançamento que explica uma mutação de saldo.
// Sempre chamado na mesma unidade de trabalho do MutateBalance correspondente;
// nunca sozinho para algo que altera saldo.
func (p *Postgres) RecordTransaction(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return err
	}
	var extRef sql.NullString
	if t.ExternalRef != "" {
		extRef = sql.NullString{String: t.ExternalRef, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, wallet_id, amount, kind, status, external_ref, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.WalletID, t.Amount, t.Kind, t.Status, extRef, meta)
	return err
}

// TxFilter filtra a listagem de lançamentos por tipo e/ou status.
type TxFilter struct {
	Kind   domain.TxKind
	Status domain.TxStatus
}

// ListTransactions lista lançamentos de uma carteira, paginado, mais recente
// primeiro. Somente leitura.
func (p *Postgres) ListTransactions(ctx context.Context, walletID string, f TxFilter, page, pageSize int) ([]domain.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	where := []string{"wallet_id = $1"}
	args := []any{walletID}
	if f.Kind != "" {
		args = append(args, f.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, wallet_id, amount, kind, status, COALESCE(external_ref, ''), metadata, created_at
		FROM transactions WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var meta []byte
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Amount, &t.Kind, &t.Status, &t.ExternalRef, &meta, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &t.Metadata); err != nil {
				return nil, 0, err
			}
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// Withdraw debita a carteira na hora e registra um saque 'pending'; o gateway
// confirma (ou falha) depois via payment_events. O débito imediato impede que
// o mesmo saldo banque um escrow enquanto o saque está em trânsito.
func (p *Postgres) Withdraw(ctx context.Context, userID, currency string, amount decimal.Decimal, gatewayRef string) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("withdrawal amount must be positive: %w", domain.ErrValidation)
	}
	if gatewayRef == "" {
		return nil, fmt.Errorf("gateway ref required: %w", domain.ErrValidation)
	}

	t := &domain.Transaction{
		Kind:        domain.TxWithdrawal,
		Status:      domain.TxPending,
		Amount:      amount.Neg(),
		ExternalRef: gatewayRef,
		Metadata:    domain.TxMetadata{GatewayRef: gatewayRef},
	}
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		walletID, err := lookupWalletID(ctx, tx, userID, currency)
		if err != nil {
			return err
		}
		if err := p.MutateBalance(ctx, tx, walletID, t.Amount); err != nil {
			return err
		}
		t.WalletID = walletID
		return p.RecordTransaction(ctx, tx, t)
	})
	if err != nil {
		if shareddb.IsUniqueViolation(err) {
			return nil, fmt.Errorf("gateway ref %s already used: %w", gatewayRef, domain.ErrValidation)
		}
		return nil, err
	}
	return t, nil
}

// ApplyDeposit credita um depósito confirmado pelo gateway, exatamente uma vez
// por gateway_ref: o índice único em (kind, external_ref) faz reentregas do
// mesmo evento virarem no-op.
func (p *Postgres) ApplyDeposit(ctx context.Context, userID, currency string, amount decimal.Decimal, gatewayRef string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("deposit amount must be positive: %w", domain.ErrValidation)
	}
	if gatewayRef == "" {
		return fmt.Errorf("gateway ref required: %w", domain.ErrValidation)
	}

	err := p.withTx(ctx, func(tx *sql.Tx) error {
		walletID, err := p.getOrCreateWalletTx(ctx, tx, userID, currency)
		if err != nil {
			return err
		}
		// Reivindica a chave de idempotência antes de mexer no saldo.
		if err := p.RecordTransaction(ctx, tx, &domain.Transaction{
			WalletID:    walletID,
			Amount:      amount,
			Kind:        domain.TxDeposit,
			Status:      domain.TxCompleted,
			ExternalRef: gatewayRef,
			Metadata:    domain.TxMetadata{GatewayRef: gatewayRef},
		}); err != nil {
			return err
		}
		return p.MutateBalance(ctx, tx, walletID, amount)
	})
	if shareddb.IsUniqueViolation(err) {
		return nil // reentrega do mesmo depósito
	}
	return err
}

// SettleWithdrawal conclui um saque pendente a partir do callback do gateway.
// Sucesso só muda o status; falha devolve o valor e registra o estorno.
// Idempotente: callback repetido encontra o saque já não-pendente e não faz nada.
func (p *Postgres) SettleWithdrawal(ctx context.Context, gatewayRef string, succeeded bool) error {
	return p.withTx(ctx, func(tx *sql.Tx) error {
		var txID, walletID string
		var amount decimal.Decimal
		var status domain.TxStatus
		err := tx.QueryRowContext(ctx, `
			SELECT id, wallet_id, amount, status FROM transactions
			WHERE kind='withdrawal' AND external_ref=$1
			FOR UPDATE`, gatewayRef).Scan(&txID, &walletID, &amount, &status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("unknown withdrawal ref %s: %w", gatewayRef, domain.ErrValidation)
		}
		if err != nil {
			return err
		}
		if status != domain.TxPending {
			return nil
		}

		newStatus := domain.TxCompleted
		if !succeeded {
			newStatus = domain.TxFailed
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET status=$1 WHERE id=$2`, newStatus, txID); err != nil {
			return err
		}
		if succeeded {
			return nil
		}

		// Saque falhou: devolve exatamente o valor debitado.
		refund := amount.Neg()
		if err := p.MutateBalance(ctx, tx, walletID, refund); err != nil {
			return err
		}
		return p.RecordTransaction(ctx, tx, &domain.Transaction{
			WalletID: walletID,
			Amount:   refund,
			Kind:     domain.TxRefund,
			Status:   domain.TxCompleted,
			Metadata: domain.TxMetadata{GatewayRef: gatewayRef, Note: "withdrawal failed"},
		})
	})
}
