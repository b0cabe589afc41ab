package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func TestTenantMiddlewareResolvesActor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var got shared.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := shared.ActorFromContext(r.Context())
		require.True(t, ok)
		got = actor
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/returns", nil)
	req.Header.Set("X-Tenant-ID", "7")
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Role", "manager")
	req.Header.Set("X-Tenant-Plan", "pro")
	rec := httptest.NewRecorder()
	TenantMiddleware(logger)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, int64(7), got.TenantID)
	require.Equal(t, int64(42), got.UserID)
	require.Equal(t, "manager", got.Role)
	require.Equal(t, "pro", got.Plan)
}

func TestTenantMiddlewareRejectsMissingTenant(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a tenant")
	})

	for _, header := range []string{"", "0", "-1", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/returns", nil)
		if header != "" {
			req.Header.Set("X-Tenant-ID", header)
		}
		rec := httptest.NewRecorder()
		TenantMiddleware(logger)(next).ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}
