package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// Version is the application version.
const Version = "1.0.0"

// snapshotTimeout bounds how long a read waits for the first live value.
const snapshotTimeout = 5 * time.Second

var (
	errInvalidID        = errors.New("invalid item ID")
	errSnapshotTimeout  = errors.New("timed out waiting for inventory snapshot")
	errSnapshotFinished = errors.New("inventory view closed")
)

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	inventory Inventory
	pinger    Pinger
	logger    *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
func NewRESTHandler(inv Inventory, pinger Pinger, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		inventory: inv,
		pinger:    pinger,
		logger:    logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/items/{id}/sell", h.SellItem).Methods(http.MethodPost)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ReadyCheck handles GET /ready requests by pinging the store.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.Warn("store not ready", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, model.NewSuccessResponse(ReadyResponse{Status: "not ready"}))
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "ready"}))
}

// ListItems handles GET /api/v1/items with the current item list.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()

	items, err := firstValue(ctx, h.inventory.AllItems(ctx))
	if err != nil {
		h.handleSnapshotError(w, err, "list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(items))
}

// GetItem handles GET /api/v1/items/{id}.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r, "get item")
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// CreateItem handles POST /api/v1/items. The insert runs in the background.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}

	if err := h.inventory.AddNewItem(entry.Name, entry.Price, entry.Quantity); err != nil {
		h.writeParseError(w, err)
		return
	}

	h.writeAccepted(w, "create", 0)
}

// UpdateItem handles PUT /api/v1/items/{id}. Updating an unknown ID is a
// no-op.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}

	if err := h.inventory.UpdateItem(id, entry.Name, entry.Price, entry.Quantity); err != nil {
		h.writeParseError(w, err)
		return
	}

	h.writeAccepted(w, "update", id)
}

// SellItem handles POST /api/v1/items/{id}/sell.
func (h *RESTHandler) SellItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r, "sell item")
	if !ok {
		return
	}

	if !h.inventory.IsStockAvailable(*item) {
		h.writeError(w, http.StatusConflict, "item out of stock")
		return
	}

	h.inventory.SellItem(*item)
	h.writeAccepted(w, "sell", item.ID)
}

// DeleteItem handles DELETE /api/v1/items/{id}.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r, "delete item")
	if !ok {
		return
	}

	h.inventory.DeleteItem(*item)
	h.writeAccepted(w, "delete", item.ID)
}

// lookup resolves the {id} path variable to the current item snapshot and
// writes the error response when there is none.
func (h *RESTHandler) lookup(w http.ResponseWriter, r *http.Request, operation string) (*model.Item, bool) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()

	item, err := firstValue(ctx, h.inventory.RetrieveItem(ctx, id))
	if err != nil {
		h.handleSnapshotError(w, err, operation)
		return nil, false
	}
	if item == nil {
		h.writeError(w, http.StatusNotFound, "item not found")
		return nil, false
	}

	return item, true
}

// decodeEntry reads the item form from the body and checks no field is
// blank.
func (h *RESTHandler) decodeEntry(w http.ResponseWriter, r *http.Request) (model.Entry, bool) {
	var entry model.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return entry, false
	}

	if err := entry.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "all fields are required",
			Fields:  model.FieldErrors(err),
		})
		return entry, false
	}

	return entry, true
}

// handleSnapshotError maps a failed live read to a response.
func (h *RESTHandler) handleSnapshotError(w http.ResponseWriter, err error, operation string) {
	h.logger.Error("live view read failed", zap.String("operation", operation), zap.Error(err))
	h.writeError(w, http.StatusServiceUnavailable, "inventory temporarily unavailable")
}

// writeParseError reports an entry whose numbers did not parse.
func (h *RESTHandler) writeParseError(w http.ResponseWriter, err error) {
	h.logger.Warn("invalid item entry", zap.Error(err))
	h.writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "invalid item entry",
		Details: err.Error(),
	})
}

func (h *RESTHandler) writeAccepted(w http.ResponseWriter, operation string, id int64) {
	h.writeJSON(w, http.StatusAccepted, model.NewSuccessResponse(AcceptedResponse{
		Status:    "accepted",
		Operation: operation,
		ID:        id,
	}))
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}

// parseID reads a positive item ID from the {id} path variable.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// firstValue waits for the first value of a live view.
func firstValue[T any](ctx context.Context, ch <-chan T) (T, error) {
	var zero T
	select {
	case v, ok := <-ch:
		if !ok {
			return zero, errSnapshotFinished
		}
		return v, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, errSnapshotTimeout
		}
		return zero, ctx.Err()
	}
}
