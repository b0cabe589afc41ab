package returns

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func newTestRouter(repo *memoryRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, nil, nil, logger, ServiceConfig{RetryAttempts: 1})
	svc.WithNow(func() time.Time { return time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC) })
	handler := NewHandler(logger, svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithActor(req.Context(), shared.Actor{TenantID: 1, UserID: 9})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/returns", handler.MountReturnRoutes)
	r.Route("/invoices", handler.MountInvoiceRoutes)
	return r
}

func postReturn(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/returns", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateReturn(t *testing.T) {
	repo := fixtureRepo()
	router := newTestRouter(repo)

	rec := postReturn(t, router, `{
		"invoiceId": 10,
		"reason": "damaged on arrival",
		"items": [{"productId": 1, "quantity": 2}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Return struct {
			Token        string `json:"token"`
			Type         string `json:"returnType"`
			RefundAmount string `json:"refundAmount"`
		} `json:"return"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "RET-2602-0001", resp.Return.Token)
	require.Equal(t, "PARTIAL", resp.Return.Type)
	require.Equal(t, "180", resp.Return.RefundAmount)
}

func TestHandlerCreateReturnRejectsBadBody(t *testing.T) {
	router := newTestRouter(fixtureRepo())

	rec := postReturn(t, router, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postReturn(t, router, `{"invoiceId": 10, "reason": "x", "items": []}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = postReturn(t, router, `{"invoiceId": 10, "reason": "x", "items": [{"productId": 1, "quantity": -1}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = postReturn(t, router, `{"invoiceId": 10, "reason": "x", "paymentType": "CRYPTO", "items": [{"productId": 1, "quantity": 1}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlerCreateReturnInsufficientQuantity(t *testing.T) {
	router := newTestRouter(fixtureRepo())

	rec := postReturn(t, router, `{
		"invoiceId": 10,
		"reason": "damaged",
		"items": [{"productId": 1, "quantity": 99}]
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp["error"], "99 requested")
}

func TestHandlerCreateReturnUnknownInvoice(t *testing.T) {
	router := newTestRouter(fixtureRepo())

	rec := postReturn(t, router, `{
		"invoiceId": 404,
		"reason": "damaged",
		"items": [{"productId": 1, "quantity": 1}]
	}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerGetReturn(t *testing.T) {
	repo := fixtureRepo()
	router := newTestRouter(repo)

	rec := postReturn(t, router, `{
		"invoiceId": 10,
		"reason": "damaged",
		"items": [{"productId": 2, "quantity": 1}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/returns/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/returns/999", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/returns/zero", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlerListReturns(t *testing.T) {
	repo := fixtureRepo()
	router := newTestRouter(repo)

	for i := 0; i < 2; i++ {
		rec := postReturn(t, router, `{
			"invoiceId": 10,
			"reason": "damaged",
			"items": [{"productId": 2, "quantity": 1}]
		}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/returns?page=1&per_page=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Returns    []json.RawMessage `json:"returns"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Returns, 2)
	require.Equal(t, 2, resp.Pagination.Total)
}

func TestHandlerInvoiceSummary(t *testing.T) {
	repo := fixtureRepo()
	router := newTestRouter(repo)

	rec := postReturn(t, router, `{
		"invoiceId": 10,
		"reason": "damaged",
		"items": [{"productId": 1, "quantity": 3}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/invoices/10", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Invoice struct {
			Status string `json:"status"`
		} `json:"invoice"`
		Returnable map[string]int64 `json:"returnableQty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "PARTIAL_REFUND", resp.Invoice.Status)
	require.Equal(t, int64(1), resp.Returnable["1"])
}

func TestHandlerRequiresActor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(fixtureRepo(), nil, nil, logger, ServiceConfig{RetryAttempts: 1})
	handler := NewHandler(logger, svc)

	r := chi.NewRouter()
	r.Route("/returns", handler.MountReturnRoutes)

	req := httptest.NewRequest(http.MethodGet, "/returns", nil).WithContext(context.Background())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
