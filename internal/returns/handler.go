package returns

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for return processing and invoice summaries.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountReturnRoutes registers return routes on the provided router.
func (h *Handler) MountReturnRoutes(r chi.Router) {
	r.Post("/", h.createReturn)
	r.Get("/", h.listReturns)
	r.Get("/{id}", h.getReturn)
}

// MountInvoiceRoutes registers the invoice summary route.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Get("/{id}", h.invoiceSummary)
}

func (h *Handler) createReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	var req createReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ret, err := h.service.CreateReturn(r.Context(), actor, req.toInput())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"return": toReturnJSON(ret, true)})
}

func (h *Handler) listReturns(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	rets, pagination, err := h.service.ListReturns(r.Context(), actor, page, perPage)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]returnJSON, 0, len(rets))
	for _, ret := range rets {
		out = append(out, toReturnJSON(ret, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"returns": out,
		"pagination": map[string]int{
			"page":       pagination.Page,
			"perPage":    pagination.PerPage,
			"total":      pagination.Total,
			"totalPages": pagination.TotalPages,
		},
	})
}

func (h *Handler) getReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid return id")
		return
	}
	ret, err := h.service.GetReturn(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"return": toReturnJSON(ret, true)})
}

func (h *Handler) invoiceSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid invoice id")
		return
	}
	view, err := h.service.InvoiceSummary(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	items := make([]saleItemJSON, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, saleItemJSON{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price, Cost: item.Cost})
	}
	rets := make([]returnJSON, 0, len(view.Returns))
	for _, ret := range view.Returns {
		rets = append(rets, toReturnJSON(ret, true))
	}
	writeJSON(w, http.StatusOK, invoiceViewJSON{
		Invoice: invoiceJSON{
			ID:             view.Invoice.ID,
			Number:         view.Invoice.Number,
			Subtotal:       view.Invoice.Subtotal,
			DiscountAmount: view.Invoice.DiscountAmount,
			Total:          view.Invoice.Total,
			Status:         string(view.Invoice.Status),
			PaymentType:    string(view.Invoice.PaymentType),
			IssuedAt:       view.Invoice.IssuedAt,
		},
		Items:      items,
		Returns:    rets,
		Returnable: view.Returnable.Returnable,
		Returned:   view.Returnable.Returned,
	})
}

// respondError maps domain errors onto HTTP statuses. Not-found stays
// generic so callers cannot probe other tenants' data.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvoiceNotFound), errors.Is(err, ErrReturnNotFound), errors.Is(err, shared.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrEmptyItems), errors.Is(err, ErrEmptyReason), errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvoiceNotReturnable), errors.Is(err, ErrProductNotOnInvoice), errors.Is(err, ErrInsufficientQuantity):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, shared.ErrConflict):
		writeError(w, http.StatusConflict, shared.ErrConflict.Error())
	case errors.Is(err, shared.ErrTenantRequired):
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	default:
		h.logger.Error("returns request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
