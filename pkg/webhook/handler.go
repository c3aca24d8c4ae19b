// Package webhook receives provider event notifications and turns the
// transaction-update ones into incremental sync runs. Delivery is at
// least once, so everything downstream of a webhook must be idempotent.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/balai/budget-middleware/internal/metrics"
	apperrors "github.com/balai/budget-middleware/pkg/app/errors"
	apphttp "github.com/balai/budget-middleware/pkg/app/http"
	"github.com/balai/budget-middleware/pkg/linkagestore"
	syncpkg "github.com/balai/budget-middleware/pkg/sync"
)

// Syncer runs an incremental sync for the linkage owning a provider item
type Syncer interface {
	IncrementalSyncByItemID(ctx context.Context, itemID, trigger string) (syncpkg.Result, error)
}

// Event is the provider's webhook payload
type Event struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
}

// transaction webhook codes that signal new data is available
var syncCodes = map[string]bool{
	"SYNC_UPDATES_AVAILABLE": true,
	"DEFAULT_UPDATE":         true,
	"INITIAL_UPDATE":         true,
	"HISTORICAL_UPDATE":      true,
}

// Handler handles provider webhook deliveries
type Handler struct {
	syncer Syncer
	logger *zap.Logger
}

// NewHandler creates a new webhook handler
func NewHandler(syncer Syncer, logger *zap.Logger) *Handler {
	return &Handler{
		syncer: syncer,
		logger: logger,
	}
}

// Routes registers the webhook endpoint.
// The provider cannot authenticate with user tokens, so this router is
// mounted outside the auth middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", apphttp.HandleError(h.receive))
	return r
}

// receive acknowledges every parseable delivery with 200, whether or not
// it triggers a sync. Sync failures are logged, not surfaced: the provider
// redelivers and the reconciler tolerates replays.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) error {
	var event Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unparseable", "rejected").Inc()
		return apperrors.BadRequestError(err, "invalid webhook payload")
	}

	if event.WebhookType != "TRANSACTIONS" || !syncCodes[event.WebhookCode] {
		h.logger.Debug("ignoring webhook event",
			zap.String("webhook_type", event.WebhookType),
			zap.String("webhook_code", event.WebhookCode),
		)
		metrics.WebhookEventsTotal.WithLabelValues(event.WebhookType, "ignored").Inc()
		return h.acknowledge(w)
	}

	result, err := h.syncer.IncrementalSyncByItemID(r.Context(), event.ItemID, "webhook")
	switch {
	case errors.Is(err, linkagestore.ErrNotLinked):
		// Item is not ours (or was unlinked); ack so the provider stops retrying
		h.logger.Warn("webhook for unknown item", zap.String("item_id", event.ItemID))
		metrics.WebhookEventsTotal.WithLabelValues(event.WebhookType, "unknown_item").Inc()
	case err != nil:
		h.logger.Error("webhook-triggered sync failed",
			zap.String("item_id", event.ItemID),
			zap.Error(err),
		)
		metrics.WebhookEventsTotal.WithLabelValues(event.WebhookType, "sync_failed").Inc()
	default:
		h.logger.Info("webhook-triggered sync completed",
			zap.String("item_id", event.ItemID),
			zap.Int("transactions_upserted", result.TransactionsUpserted),
			zap.Int("transactions_removed", result.TransactionsRemoved),
		)
		metrics.WebhookEventsTotal.WithLabelValues(event.WebhookType, "synced").Inc()
	}

	return h.acknowledge(w)
}

func (h *Handler) acknowledge(w http.ResponseWriter) error {
	return apphttp.WriteJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
}
