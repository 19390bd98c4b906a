package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tixup/internal/middleware"
	"tixup/internal/models"
	"tixup/internal/repositories"
	"tixup/internal/services"
)

// CartHandler serves the shopping cart API
type CartHandler struct {
	store            sessions.Store
	carts            repositories.CartRepositoryProvider
	logger           *zap.Logger
	placeholderEvent string
}

// NewCartHandler creates a new cart handler
func NewCartHandler(store sessions.Store, carts repositories.CartRepositoryProvider, logger *zap.Logger, placeholderEvent string) *CartHandler {
	return &CartHandler{
		store:            store,
		carts:            carts,
		logger:           logger,
		placeholderEvent: placeholderEvent,
	}
}

type cartResponse struct {
	Items []models.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func newCartResponse(items []models.CartItem) cartResponse {
	if items == nil {
		items = []models.CartItem{}
	}
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return cartResponse{Items: items, Total: models.CartTotal(items), Count: count}
}

// openCart returns the visitor session and a cart service bound to it
func (h *CartHandler) openCart(r *http.Request) (*sessions.Session, *services.CartService, error) {
	return openSessionCart(h.store, h.carts, h.logger, h.placeholderEvent, r)
}

func openSessionCart(store sessions.Store, carts repositories.CartRepositoryProvider, logger *zap.Logger, placeholderEvent string, r *http.Request) (*sessions.Session, *services.CartService, error) {
	session, err := store.Get(r, sessionName)
	if err != nil {
		if session == nil {
			return nil, nil, err
		}
		// An unreadable cookie starts a fresh session
		logger.Warn("discarding unreadable session", zap.Error(err))
	}
	return session, services.NewCartService(carts.ForSession(session), logger, placeholderEvent), nil
}

// GetCart returns the cart contents and total
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	session, cart, err := h.openCart(r)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	items, err := cart.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}

	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, newCartResponse(items))
}

// AddItem adds a line to the cart, merging it with an existing line of the same id
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var item models.CartItem
	if err := decodeJSON(w, r, &item); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, cart, err := h.openCart(r)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	items, err := cart.Add(r.Context(), item)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			middleware.WriteError(w, http.StatusBadRequest, ve.Error())
			return
		}
		h.logger.Error("failed to add cart item", zap.Int("item_id", item.ID), zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	if !h.saveSession(w, r, session) {
		return
	}
	writeJSON(w, http.StatusCreated, newCartResponse(items))
}

// UpdateItem sets the quantity of a line. Quantities below 1 leave the cart unchanged.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req updateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, cart, err := h.openCart(r)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	items, err := cart.UpdateQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		h.logger.Error("failed to update cart item", zap.Int("item_id", id), zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	if !h.saveSession(w, r, session) {
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(items))
}

// RemoveItem drops a line from the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	session, cart, err := h.openCart(r)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	items, err := cart.Remove(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to remove cart item", zap.Int("item_id", id), zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	if !h.saveSession(w, r, session) {
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(items))
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	session, cart, err := h.openCart(r)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	if err := cart.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear cart", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	if !h.saveSession(w, r, session) {
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(nil))
}

// saveSession persists a cart mutation. An edited cart gets a fresh
// reservation window the next time checkout is opened.
func (h *CartHandler) saveSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) bool {
	delete(session.Values, reservationSessionKey)
	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return false
	}
	return true
}
