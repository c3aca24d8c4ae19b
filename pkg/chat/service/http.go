package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/balai/budget-middleware/pkg/app/errors"
	apphttp "github.com/balai/budget-middleware/pkg/app/http"
	"github.com/balai/budget-middleware/pkg/auth"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers conversation endpoints on the given chi router.
// The auth middleware must run first so the user id is present in context.
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", apphttp.HandleError(h.listConversations))
		r.Post("/", apphttp.HandleError(h.createConversation))
		r.Get("/{conversationID}", apphttp.HandleError(h.getConversation))
		r.Patch("/{conversationID}/title", apphttp.HandleError(h.renameConversation))
		r.Delete("/{conversationID}", apphttp.HandleError(h.deleteConversation))
	})
}

func (h *HTTP) listConversations(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	resp, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) createConversation(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	var req CreateConversationRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	resp, err := h.service.CreateConversation(r.Context(), userID, &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusCreated, resp)
}

func (h *HTTP) getConversation(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	resp, err := h.service.GetConversation(r.Context(), userID, chi.URLParam(r, "conversationID"))
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) renameConversation(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	var req RenameConversationRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	resp, err := h.service.RenameConversation(r.Context(), userID, chi.URLParam(r, "conversationID"), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) deleteConversation(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	if err := h.service.DeleteConversation(r.Context(), userID, chi.URLParam(r, "conversationID")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	return nil
}
