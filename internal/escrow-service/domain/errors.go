package domain

import (
	"errors"
	"fmt"
)

// Erros de regra de negócio. São terminais: o chamador nunca deve
// retentar a operação após recebê-los.
var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrWalletInactive    = errors.New("wallet inactive")
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrBetNotFound  = errors.New("bet not found")
	ErrBetNotOpen   = errors.New("bet not open")
	ErrSelfMatch    = errors.New("cannot match own bet")
	ErrEventStarted = errors.New("event already started")

	ErrMatchNotFound     = errors.New("bet match not found")
	ErrEscrowExists      = errors.New("escrow already exists for match")
	ErrEscrowNotFound    = errors.New("escrow not found")
	ErrEscrowNotActive   = errors.New("escrow not active")
	ErrEscrowNotDisputed = errors.New("escrow not disputed")
	ErrInvalidTransition = errors.New("invalid escrow transition")

	ErrNotParty       = errors.New("user is not a party to the match")
	ErrWinnerNotParty = errors.New("winner is not a party to the match")

	ErrValidation = errors.New("validation error")

	// ErrConflict indica corrida perdida em update condicional mesmo após os
	// retries da camada de persistência; seguro reexecutar a operação inteira.
	ErrConflict = errors.New("concurrency conflict")

	// ErrPush indica resultado que anula a aposta (empate na linha, evento
	// cancelado): nenhum vencedor, as partes são reembolsadas.
	ErrPush = errors.New("push: no winner for result")
)

// Party identifica de quem é o saldo insuficiente ao financiar um escrow.
type Party string

const (
	PartyCreator Party = "creator"
	PartyTaker   Party = "taker"
)

// InsufficientFundsError marca qual parte não cobriu o próprio stake.
type InsufficientFundsError struct {
	Party Party
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: insufficient funds", e.Party)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// ErrorKind mapeia um erro para o identificador estável retornado ao chamador.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrWalletNotFound),
		errors.Is(err, ErrBetNotFound),
		errors.Is(err, ErrMatchNotFound),
		errors.Is(err, ErrEscrowNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrBetNotOpen),
		errors.Is(err, ErrEventStarted),
		errors.Is(err, ErrEscrowExists),
		errors.Is(err, ErrEscrowNotActive),
		errors.Is(err, ErrEscrowNotDisputed),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrWalletInactive),
		errors.Is(err, ErrPush):
		return "invalid_state"
	case errors.Is(err, ErrNotParty), errors.Is(err, ErrWinnerNotParty):
		return "unauthorized"
	case errors.Is(err, ErrSelfMatch), errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrConflict):
		return "concurrency_conflict"
	default:
		return "persistence_error"
	}
}
