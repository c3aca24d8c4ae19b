package linkservice

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/balai/budget-middleware/pkg/auth"
)

type stubService struct {
	CreateLinkTokenFunc     func(ctx context.Context, userID int64) (*LinkTokenResponse, error)
	ExchangePublicTokenFunc func(ctx context.Context, userID int64, req *ExchangeRequest) (*ExchangeResponse, error)
	TriggerSyncFunc         func(ctx context.Context, userID int64) (*SyncResponse, error)
}

func (s *stubService) CreateLinkToken(ctx context.Context, userID int64) (*LinkTokenResponse, error) {
	return s.CreateLinkTokenFunc(ctx, userID)
}

func (s *stubService) ExchangePublicToken(ctx context.Context, userID int64, req *ExchangeRequest) (*ExchangeResponse, error) {
	return s.ExchangePublicTokenFunc(ctx, userID, req)
}

func (s *stubService) TriggerSync(ctx context.Context, userID int64) (*SyncResponse, error) {
	return s.TriggerSyncFunc(ctx, userID)
}

func newLinkTestServer(svc Service, userID int64) http.Handler {
	r := chi.NewRouter()
	if userID != 0 {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), userID)))
			})
		})
	}
	RegisterRoutes(r, svc, zap.NewNop())
	return r
}

func TestHTTPCreateLinkToken(t *testing.T) {
	svc := &stubService{
		CreateLinkTokenFunc: func(ctx context.Context, userID int64) (*LinkTokenResponse, error) {
			assert.Equal(t, int64(7), userID)
			return &LinkTokenResponse{LinkToken: "link-sandbox-abc"}, nil
		},
	}
	handler := newLinkTestServer(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/link/token", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"link_token":"link-sandbox-abc"}`, rec.Body.String())
}

func TestHTTPExchangePublicToken(t *testing.T) {
	svc := &stubService{
		ExchangePublicTokenFunc: func(ctx context.Context, userID int64, req *ExchangeRequest) (*ExchangeResponse, error) {
			assert.Equal(t, "public-abc", req.PublicToken)
			return &ExchangeResponse{ItemID: "item-1", Synced: true}, nil
		},
	}
	handler := newLinkTestServer(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/link/exchange",
		bytes.NewBufferString(`{"public_token":"public-abc"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"item_id":"item-1","synced":true}`, rec.Body.String())
}

func TestHTTPExchangeInvalidJSON(t *testing.T) {
	handler := newLinkTestServer(&stubService{}, 7)

	req := httptest.NewRequest(http.MethodPost, "/link/exchange", bytes.NewBufferString("{invalid"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "invalid JSON", got.Error)
}

func TestHTTPTriggerSync(t *testing.T) {
	svc := &stubService{
		TriggerSyncFunc: func(ctx context.Context, userID int64) (*SyncResponse, error) {
			return &SyncResponse{TransactionsUpserted: 3}, nil
		},
	}
	handler := newLinkTestServer(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got SyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.TransactionsUpserted)
}

func TestHTTPRequiresAuthentication(t *testing.T) {
	handler := newLinkTestServer(&stubService{}, 0)

	for _, path := range []string{"/link/token", "/link/exchange", "/sync"} {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
