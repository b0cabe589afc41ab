package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for accounts, ledgers, and reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
	group   singleflight.Group
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountAccountRoutes registers account routes on the provided router.
func (h *Handler) MountAccountRoutes(r chi.Router) {
	r.Get("/", h.listAccounts)
	r.Get("/{id}/ledger", h.accountLedger)
}

// MountReportRoutes registers report routes on the provided router.
func (h *Handler) MountReportRoutes(r chi.Router) {
	r.Get("/balance-sheet", h.balanceSheet)
}

type accountJSON struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	accounts, err := h.service.Accounts(r.Context(), actor.TenantID)
	if err != nil {
		h.fail(w, "list accounts", err)
		return
	}
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountJSON{ID: a.ID, Code: a.Code, Name: a.Name, Type: string(a.Type)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

type ledgerTransactionJSON struct {
	JournalID   int64           `json:"journalId"`
	Number      int64           `json:"number"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Running     decimal.Decimal `json:"runningBalance"`
}

func (h *Handler) accountLedger(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || accountID <= 0 {
		http.Error(w, "invalid account id", http.StatusUnprocessableEntity)
		return
	}
	view, err := h.service.Ledger(r.Context(), actor.TenantID, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.fail(w, "account ledger", err)
		return
	}
	txs := make([]ledgerTransactionJSON, 0, len(view.Transactions))
	for _, t := range view.Transactions {
		txs = append(txs, ledgerTransactionJSON{
			JournalID:   t.JournalID,
			Number:      t.Number,
			Date:        t.Date.Format("2006-01-02"),
			Description: t.Description,
			Type:        string(t.Type),
			Amount:      t.Amount,
			Running:     t.Running,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account":      accountJSON{ID: view.Account.ID, Code: view.Account.Code, Name: view.Account.Name, Type: string(view.Account.Type)},
		"balance":      view.Balance,
		"transactions": txs,
	})
}

type balanceSheetRowJSON struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type balanceSheetJSON struct {
	Assets           []balanceSheetRowJSON `json:"assets"`
	Liabilities      []balanceSheetRowJSON `json:"liabilities"`
	Equity           []balanceSheetRowJSON `json:"equity"`
	TotalAssets      decimal.Decimal       `json:"totalAssets"`
	TotalLiabilities decimal.Decimal       `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal       `json:"totalEquity"`
	IsBalanced       bool                  `json:"isBalanced"`
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	key := fmt.Sprintf("bs:%d", actor.TenantID)
	result, err, _ := h.group.Do(key, func() (any, error) {
		return h.service.BalanceSheet(r.Context(), actor.TenantID)
	})
	if err != nil {
		h.fail(w, "balance sheet", err)
		return
	}
	bs := result.(BalanceSheet)
	writeJSON(w, http.StatusOK, balanceSheetJSON{
		Assets:           sectionRows(bs.Assets),
		Liabilities:      sectionRows(bs.Liabilities),
		Equity:           sectionRows(bs.Equity),
		TotalAssets:      bs.TotalAssets,
		TotalLiabilities: bs.TotalLiabilities,
		TotalEquity:      bs.TotalEquity,
		IsBalanced:       bs.IsBalanced,
	})
}

func sectionRows(s BalanceSheetSection) []balanceSheetRowJSON {
	rows := make([]balanceSheetRowJSON, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		rows = append(rows, balanceSheetRowJSON{Code: a.Code, Name: a.Name, Balance: a.Balance})
	}
	return rows
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
