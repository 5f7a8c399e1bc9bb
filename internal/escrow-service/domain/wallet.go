package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletStatus string

const (
	WalletActive    WalletStatus = "active"
	WalletSuspended WalletStatus = "suspended"
	WalletClosed    WalletStatus = "closed"
)

// Wallet é o saldo gastável de um usuário numa moeda.
// Uma carteira por (user, currency); criada sob demanda no primeiro acesso;
// nunca apagada, apenas suspensa/encerrada. balance >= 0 sempre.
type Wallet struct {
	ID        string
	UserID    string
	Currency  string
	Balance   decimal.Decimal
	Status    WalletStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
