package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/cache"
	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
	"github.com/radieske/p2p-wager-platform/internal/escrow-service/dto"
	"github.com/radieske/p2p-wager-platform/internal/escrow-service/repo"
	"github.com/radieske/p2p-wager-platform/internal/shared/metrics"
	"github.com/radieske/p2p-wager-platform/pkg/contracts/events"
)

// Engine define as operações do core usadas pelo handler HTTP.
type Engine interface {
	GetOrCreateWallet(ctx context.Context, userID, currency string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, userID, currency string) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, walletID string, f repo.TxFilter, page, pageSize int) ([]domain.Transaction, int64, error)
	Withdraw(ctx context.Context, userID, currency string, amount decimal.Decimal, gatewayRef string) (*domain.Transaction, error)

	CreateBet(ctx context.Context, b *domain.Bet) error
	GetBet(ctx context.Context, betID string) (*domain.Bet, error)
	MatchBet(ctx context.Context, takerID, betID string) (*domain.BetMatch, error)
	CancelBet(ctx context.Context, creatorID, betID string) (*domain.Bet, error)
	GetMatch(ctx context.Context, matchID string) (*domain.BetMatch, error)

	CreateEscrow(ctx context.Context, betMatchID string) (*domain.Escrow, error)
	Release(ctx context.Context, escrowID, winnerID string) (*domain.Payout, error)
	OpenDispute(ctx context.Context, escrowID, userID, reason string) (*domain.Escrow, error)
	ResolveDispute(ctx context.Context, escrowID string, winnerID *string, adminID, notes string) (*domain.Resolution, error)
	GetEscrow(ctx context.Context, escrowID string) (*domain.Escrow, error)
}

// Publisher publica eventos de ciclo de vida após operações commitadas.
type Publisher interface {
	PublishEscrowOpened(context.Context, events.EscrowOpened) error
	PublishEscrowSettled(context.Context, events.EscrowSettled) error
	PublishEscrowRefunded(context.Context, events.EscrowRefunded) error
	PublishDisputeOpened(context.Context, events.DisputeOpened) error
}

// Server expõe as operações de carteira, aposta e escrow via HTTP.
type Server struct {
	log    *zap.Logger
	engine Engine
	publ   Publisher
	rcache *cache.ReadCache
}

// NewServer instancia o servidor HTTP do core. publ e rcache são opcionais.
func NewServer(log *zap.Logger, engine Engine, publ Publisher, rcache *cache.ReadCache) *Server {
	return &Server{log: log, engine: engine, publ: publ, rcache: rcache}
}

// Router retorna o mux HTTP com as rotas da API.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /wallet", s.getWallet)
	mux.HandleFunc("GET /wallet/transactions", s.listTransactions)
	mux.HandleFunc("POST /wallet/withdraw", s.withdraw)

	mux.HandleFunc("POST /bets", s.createBet)
	mux.HandleFunc("GET /bets/{id}", s.getBet)
	mux.HandleFunc("POST /bets/{id}/match", s.matchBet)
	mux.HandleFunc("POST /bets/{id}/cancel", s.cancelBet)

	mux.HandleFunc("POST /escrows", s.createEscrow)
	mux.HandleFunc("GET /escrows/{id}", s.getEscrow)
	mux.HandleFunc("POST /escrows/{id}/release", s.releaseEscrow)
	mux.HandleFunc("POST /escrows/{id}/dispute", s.disputeEscrow)
	mux.HandleFunc("POST /escrows/{id}/resolve", s.resolveEscrow)

	return mux
}

// getWallet retorna (ou cria) a carteira do usuário, com read-through no cache.
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	currency := r.URL.Query().Get("currency")
	if userID == "" || currency == "" {
		writeErr(w, errors.New("userId and currency required"), "validation_error", "")
		return
	}

	key := cache.WalletKey(userID, currency)
	var cached dto.WalletResponse
	if s.rcache.Get(r.Context(), key, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	wal, err := s.engine.GetOrCreateWallet(r.Context(), userID, currency)
	if err != nil {
		s.fail(w, "get_wallet", err)
		return
	}
	resp := walletResponse(wal)
	s.rcache.Set(r.Context(), key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// listTransactions lista o histórico da carteira com filtros e paginação.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, currency := q.Get("userId"), q.Get("currency")
	if userID == "" || currency == "" {
		writeErr(w, errors.New("userId and currency required"), "validation_error", "")
		return
	}
	wal, err := s.engine.GetWallet(r.Context(), userID, currency)
	if err != nil {
		s.fail(w, "list_transactions", err)
		return
	}

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	f := repo.TxFilter{Kind: domain.TxKind(q.Get("kind")), Status: domain.TxStatus(q.Get("status"))}

	txs, total, err := s.engine.ListTransactions(r.Context(), wal.ID, f, page, pageSize)
	if err != nil {
		s.fail(w, "list_transactions", err)
		return
	}
	resp := dto.TransactionListResponse{Page: page, PageSize: pageSize, Total: total}
	for _, t := range txs {
		resp.Transactions = append(resp.Transactions, dto.TransactionResponse{
			ID:          t.ID,
			WalletID:    t.WalletID,
			Amount:      t.Amount.String(),
			Kind:        string(t.Kind),
			Status:      string(t.Status),
			ExternalRef: t.ExternalRef,
			EscrowID:    t.Metadata.EscrowID,
			CreatedAt:   t.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// withdraw debita a carteira e abre um saque pendente no gateway.
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.New("bad json"), "validation_error", "")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeErr(w, errors.New("invalid amount"), "validation_error", "")
		return
	}
	tx, err := s.engine.Withdraw(r.Context(), req.UserID, req.Currency, amount, req.GatewayRef)
	if err != nil {
		s.fail(w, "withdraw", err)
		return
	}
	metrics.LedgerEntries.WithLabelValues(string(domain.TxWithdrawal)).Inc()
	s.rcache.Invalidate(r.Context(), cache.WalletKey(req.UserID, req.Currency))
	writeJSON(w, http.StatusAccepted, dto.WithdrawResponse{
		TransactionID: tx.ID,
		Status:        string(tx.Status),
		Amount:        tx.Amount.String(),
	})
}

// createBet valida os termos e abre a aposta. Carteira não é tocada aqui.
func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.New("bad json"), "validation_error", "")
		return
	}
	terms, err := parseBetTerms(req)
	if err != nil {
		s.fail(w, "create_bet", err)
		return
	}
	bet, err := domain.NewBet(req.UserID, req.EventID, terms, time.Now())
	if err != nil {
		s.fail(w, "create_bet", err)
		return
	}
	if err := s.engine.CreateBet(r.Context(), bet); err != nil {
		s.fail(w, "create_bet", err)
		return
	}
	writeJSON(w, http.StatusCreated, betResponse(bet))
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	bet, err := s.engine.GetBet(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "get_bet", err)
		return
	}
	writeJSON(w, http.StatusOK, betResponse(bet))
}

// matchBet pareia a aposta com o tomador. O financiamento (escrow) vem na
// chamada seguinte da mesma operação lógica.
func (s *Server) matchBet(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.New("bad json"), "validation_error", "")
		return
	}
	m, err := s.engine.MatchBet(r.Context(), req.UserID, r.PathValue("id"))
	if err != nil {
		s.fail(w, "match_bet", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.MatchResponse{
		BetMatchID:  m.ID,
		BetID:       m.BetID,
		TakerID:     m.TakerID,
		TakerStake:  m.TakerStake.String(),
		TakerPayout: m.TakerPayout.String(),
		Status:      string(m.Status),
	})
}

func (s *Server) cancelBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CancelBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.New("bad json"), "validation_error", "")
		return
	}
	bet, err := s.engine.CancelBet(r.Context(), req.UserID, r.PathValue("id"))
	if err != nil {
		s.fail(w, "cancel_bet", err)
		return
	}
	writeJSON(w, http.StatusOK, betResponse(bet))
}

// createEscrow financia o match: debita as duas partes e abre a custódia.
func (s *Server) createEscrow(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BetMatchID == "" {
		writeErr(w, errors.New("bet_match_id required"), "validation_error", "")
		return
	}
	esc, err := s.engine.CreateEscrow(r.Context(), req.BetMatchID)
	if err != nil {
		s.fail(w, "create_escrow", err)
		return
	}
	metrics.EscrowsCreated.Inc()

	if m, merr := s.engine.GetMatch(r.Context(), esc.BetMatchID); merr == nil {
		if b, berr := s.engine.GetBet(r.Context(), m.BetID); berr == nil {
			s.rcache.Invalidate(r.Context(),
				cache.WalletKey(b.CreatorID, b.Currency),
				cache.WalletKey(m.TakerID, b.Currency))
			_ = s.publish(func(ctx context.Context) error {
				return s.publ.PublishEscrowOpened(ctx, events.EscrowOpened{
					EscrowID:    esc.ID,
					BetMatchID:  esc.BetMatchID,
					BetID:       b.ID,
					CreatorID:   b.CreatorID,
					TakerID:     m.TakerID,
					Amount:      esc.Amount.String(),
					PlatformFee: esc.PlatformFee.String(),
					Currency:    b.Currency,
				})
			})
		}
	}
	writeJSON(w, http.StatusCreated, escrowResponse(esc))
}

func (s *Server) getEscrow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	key := cache.EscrowKey(id)
	var cached dto.EscrowResponse
	if s.rcache.Get(r.Context(), key, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	esc, err := s.engine.GetEscrow(r.Context(), id)
	if err != nil {
		s.fail(w, "get_escrow", err)
		return
	}
	resp := escrowResponse(esc)
	// Só estados terminais entram no cache: nunca mais mudam.
	if esc.IsTerminal() {
		s.rcache.Set(r.Context(), key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// releaseEscrow liquida o escrow para o vencedor informado pelo gatilho externo.
func (s *Server) releaseEscrow(w http.ResponseWriter, r *http.Request) {
	var req dto.ReleaseEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WinnerID == "" {
		writeErr(w, errors.New("winner_id required"), "validation_error", "")
		return
	}
	id := r.PathValue("id")
	payout, err := s.engine.Release(r.Context(), id, req.WinnerID)
	if err != nil {
		s.fail(w, "release_escrow", err)
		return
	}
	metrics.EscrowsSettled.Inc()
	s.afterSettlement(r.Context(), id, payout, "")
	writeJSON(w, http.StatusOK, payoutResponse(payout))
}

// disputeEscrow congela o escrow; fundo nenhum se move até a arbitragem.
func (s *Server) disputeEscrow(w http.ResponseWriter, r *http.Request) {
	var req dto.DisputeEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.New("bad json"), "validation_error", "")
		return
	}
	esc, err := s.engine.OpenDispute(r.Context(), r.PathValue("id"), req.UserID, req.Reason)
	if err != nil {
		s.fail(w, "open_dispute", err)
		return
	}
	metrics.DisputesOpened.Inc()
	s.rcache.Invalidate(r.Context(), cache.EscrowKey(esc.ID))
	_ = s.publish(func(ctx context.Context) error {
		return s.publ.PublishDisputeOpened(ctx, events.DisputeOpened{
			EscrowID:   esc.ID,
			BetMatchID: esc.BetMatchID,
			OpenedBy:   req.UserID,
			Reason:     req.Reason,
		})
	})
	writeJSON(w, http.StatusOK, escrowResponse(esc))
}

// resolveEscrow arbitra uma disputa: vencedor ou reembolso das duas partes.
func (s *Server) resolveEscrow(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.New("bad json"), "validation_error", "")
		return
	}
	id := r.PathValue("id")
	resolution, err := s.engine.ResolveDispute(r.Context(), id, req.WinnerID, req.AdminID, req.Notes)
	if err != nil {
		s.fail(w, "resolve_dispute", err)
		return
	}

	resp := dto.ResolutionResponse{Escrow: escrowResponse(resolution.Escrow)}
	if resolution.Payout != nil {
		metrics.EscrowsSettled.Inc()
		p := payoutResponse(resolution.Payout)
		resp.Payout = &p
		s.afterSettlement(r.Context(), id, resolution.Payout, req.AdminID)
	} else {
		metrics.EscrowsRefunded.Inc()
		s.rcache.Invalidate(r.Context(), cache.EscrowKey(id))
		_ = s.publish(func(ctx context.Context) error {
			return s.publ.PublishEscrowRefunded(ctx, events.EscrowRefunded{
				EscrowID:   resolution.Escrow.ID,
				BetMatchID: resolution.Escrow.BetMatchID,
				Reason:     req.Notes,
				ResolvedBy: req.AdminID,
			})
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// afterSettlement invalida caches e publica o evento de liquidação.
func (s *Server) afterSettlement(ctx context.Context, escrowID string, payout *domain.Payout, resolvedBy string) {
	keys := []string{cache.EscrowKey(escrowID)}
	if esc, err := s.engine.GetEscrow(ctx, escrowID); err == nil {
		if m, merr := s.engine.GetMatch(ctx, esc.BetMatchID); merr == nil {
			if b, berr := s.engine.GetBet(ctx, m.BetID); berr == nil {
				keys = append(keys,
					cache.WalletKey(b.CreatorID, b.Currency),
					cache.WalletKey(m.TakerID, b.Currency))
			}
		}
		_ = s.publish(func(ctx context.Context) error {
			return s.publ.PublishEscrowSettled(ctx, events.EscrowSettled{
				EscrowID:   escrowID,
				BetMatchID: esc.BetMatchID,
				WinnerID:   payout.UserID,
				PayoutID:   payout.ID,
				Winnings:   payout.Amount.String(),
				ResolvedBy: resolvedBy,
			})
		})
	}
	s.rcache.Invalidate(ctx, keys...)
}

func (s *Server) publish(fn func(ctx context.Context) error) error {
	if s.publ == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.log.Warn("publish event", zap.Error(err))
		return err
	}
	return nil
}

// fail loga, conta e devolve o erro mapeado para o chamador.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	kind := domain.ErrorKind(err)
	metrics.OperationErrors.WithLabelValues(op, kind).Inc()
	if kind == "persistence_error" {
		s.log.Error(op, zap.Error(err))
	} else {
		s.log.Info(op+" rejected", zap.String("kind", kind), zap.Error(err))
	}

	party := ""
	var insuf *domain.InsufficientFundsError
	if errors.As(err, &insuf) {
		party = string(insuf.Party)
	}
	writeErr(w, err, kind, party)
}

func writeErr(w http.ResponseWriter, err error, kind, party string) {
	status := map[string]int{
		"not_found":            http.StatusNotFound,
		"invalid_state":        http.StatusConflict,
		"insufficient_funds":   http.StatusPaymentRequired,
		"unauthorized":         http.StatusForbidden,
		"validation_error":     http.StatusBadRequest,
		"concurrency_conflict": http.StatusConflict,
		"persistence_error":    http.StatusInternalServerError,
	}[kind]
	if status == 0 {
		status = http.StatusInternalServerError
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, dto.ErrorResponse{Error: msg, Kind: kind, Party: party})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseBetTerms(req dto.CreateBetRequest) (domain.BetTerms, error) {
	stake, err := decimal.NewFromString(req.Stake)
	if err != nil {
		return domain.BetTerms{}, fmt.Errorf("invalid stake: %w", domain.ErrValidation)
	}
	odds, err := decimal.NewFromString(req.Odds)
	if err != nil {
		return domain.BetTerms{}, fmt.Errorf("invalid odds: %w", domain.ErrValidation)
	}
	var line *decimal.Decimal
	if req.Line != nil {
		l, err := decimal.NewFromString(*req.Line)
		if err != nil {
			return domain.BetTerms{}, fmt.Errorf("invalid line: %w", domain.ErrValidation)
		}
		line = &l
	}
	return domain.BetTerms{
		Type:          domain.BetType(req.BetType),
		Selection:     req.Selection,
		Line:          line,
		Stake:         stake,
		Odds:          odds,
		Currency:      req.Currency,
		EventStartsAt: req.EventStartsAt,
		ExpiresAt:     req.ExpiresAt,
	}, nil
}

func walletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		WalletID: w.ID,
		UserID:   w.UserID,
		Currency: w.Currency,
		Balance:  w.Balance.String(),
		Status:   string(w.Status),
	}
}

func betResponse(b *domain.Bet) dto.BetResponse {
	resp := dto.BetResponse{
		BetID:           b.ID,
		CreatorID:       b.CreatorID,
		EventID:         b.EventID,
		BetType:         string(b.Type),
		Selection:       b.Selection,
		Stake:           b.Stake.String(),
		Odds:            b.Odds.String(),
		PotentialPayout: b.PotentialPayout.String(),
		Currency:        b.Currency,
		Status:          string(b.Status),
		EventStartsAt:   b.EventStartsAt,
		ExpiresAt:       b.ExpiresAt,
	}
	if b.Line != nil {
		l := b.Line.String()
		resp.Line = &l
	}
	return resp
}

func escrowResponse(e *domain.Escrow) dto.EscrowResponse {
	return dto.EscrowResponse{
		EscrowID:        e.ID,
		BetMatchID:      e.BetMatchID,
		Amount:          e.Amount.String(),
		PlatformFee:     e.PlatformFee.String(),
		Status:          string(e.Status),
		WinnerID:        e.WinnerID,
		DisputeReason:   e.DisputeReason,
		DisputedBy:      e.DisputedBy,
		ResolvedBy:      e.ResolvedBy,
		ResolutionNotes: e.ResolutionNotes,
		ReleasedAt:      e.ReleasedAt,
	}
}

func payoutResponse(p *domain.Payout) dto.PayoutResponse {
	return dto.PayoutResponse{
		PayoutID:      p.ID,
		UserID:        p.UserID,
		EscrowID:      p.EscrowID,
		Amount:        p.Amount.String(),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
	}
}
