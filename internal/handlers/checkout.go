package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"tixup/internal/config"
	"tixup/internal/middleware"
	"tixup/internal/models"
	"tixup/internal/repositories"
	"tixup/internal/services"
)

// reservationSessionKey holds the unix time the visitor opened checkout
const reservationSessionKey = "reservation_started_at"

// CheckoutHandler serves the checkout page API
type CheckoutHandler struct {
	store            sessions.Store
	carts            repositories.CartRepositoryProvider
	checkout         *services.CheckoutService
	logger           *zap.Logger
	placeholderEvent string
	window           time.Duration
	enforced         bool
	now              func() time.Time

	// carts with a submission running, keyed by cart storage key
	inFlight sync.Map
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(
	store sessions.Store,
	carts repositories.CartRepositoryProvider,
	checkout *services.CheckoutService,
	cfg config.CheckoutConfig,
	logger *zap.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		store:            store,
		carts:            carts,
		checkout:         checkout,
		logger:           logger,
		placeholderEvent: cfg.PlaceholderEventName,
		window:           cfg.ReservationWindow,
		enforced:         cfg.ReservationEnforced,
		now:              time.Now,
	}
}

type reservationView struct {
	StartedAt        time.Time `json:"started_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	Enforced         bool      `json:"enforced"`
	Expired          bool      `json:"expired"`
	Message          string    `json:"message"`
}

type checkoutResponse struct {
	Status       models.CheckoutState   `json:"status"`
	EventName    string                 `json:"event_name"`
	Payload      models.CheckoutPayload `json:"payload"`
	Summary      models.OrderSummary    `json:"summary"`
	Reservation  *reservationView       `json:"reservation,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Receipt      *models.Receipt        `json:"receipt,omitempty"`
	Confirmation string                 `json:"confirmation,omitempty"`
}

type submitCheckoutRequest struct {
	Buyer   models.BuyerInfo       `json:"buyer"`
	Payment models.PaymentFormData `json:"payment"`
}

func newReservationView(res *services.Reservation, now time.Time) *reservationView {
	if res == nil {
		return nil
	}
	return &reservationView{
		StartedAt:        res.StartedAt().UTC(),
		ExpiresAt:        res.ExpiresAt().UTC(),
		RemainingSeconds: int64(res.Remaining(now) / time.Second),
		Enforced:         res.Enforced(),
		Expired:          res.Expired(now),
		Message:          res.Message(now),
	}
}

func (h *CheckoutHandler) newResponse(co *services.Checkout) checkoutResponse {
	return checkoutResponse{
		Status:       co.State(),
		EventName:    co.EventName(),
		Payload:      co.Payload(),
		Summary:      co.Summary(),
		Reservation:  newReservationView(co.Reservation(), h.now()),
		Error:        co.ErrorMessage(),
		Receipt:      co.Receipt(),
		Confirmation: co.Confirmation(),
	}
}

// reservation returns the visitor's reservation, starting one when start is set
func (h *CheckoutHandler) reservation(session *sessions.Session, start bool) *services.Reservation {
	startedAt, ok := session.Values[reservationSessionKey].(int64)
	if !ok {
		if !start {
			return nil
		}
		startedAt = h.now().Unix()
		session.Values[reservationSessionKey] = startedAt
	}
	return services.NewReservation(time.Unix(startedAt, 0), h.window, h.enforced)
}

// openCheckout builds a checkout from the visitor's cart. An empty cart
// opens the placeholder checkout without a reservation.
func (h *CheckoutHandler) openCheckout(r *http.Request) (*sessions.Session, *services.CartService, *services.Checkout, error) {
	session, cart, err := openSessionCart(h.store, h.carts, h.logger, h.placeholderEvent, r)
	if err != nil {
		return nil, nil, nil, err
	}

	items, err := cart.Load(r.Context())
	if err != nil {
		return nil, nil, nil, err
	}
	if len(items) == 0 {
		delete(session.Values, reservationSessionKey)
		return session, cart, h.checkout.Open(nil, cart, nil), nil
	}

	payload := cart.CheckoutPayload(items)
	return session, cart, h.checkout.Open(&payload, cart, h.reservation(session, true)), nil
}

// GetCheckout returns the order summary for the visitor's cart and starts
// the reservation window on first visit
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	session, cart, co, err := h.openCheckout(r)
	if err != nil {
		h.logger.Error("failed to open checkout", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load checkout")
		return
	}

	resp := h.newResponse(co)
	if res := co.Reservation(); res != nil && res.Blocks(h.now()) {
		if err := cart.Clear(r.Context()); err != nil {
			h.logger.Error("failed to release cart after reservation expiry", zap.Error(err))
		}
		delete(session.Values, reservationSessionKey)
		resp = h.newResponse(h.checkout.Open(nil, cart, nil))
		resp.Reservation = newReservationView(res, h.now())
		resp.Error = services.MsgReservationExpired
	}

	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitCheckout validates the forms and places the order
func (h *CheckoutHandler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	var req submitCheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, _, co, err := h.openCheckout(r)
	if err != nil {
		h.logger.Error("failed to open checkout", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load checkout")
		return
	}

	key := repositories.CartKey(session)
	if _, busy := h.inFlight.LoadOrStore(key, struct{}{}); busy {
		middleware.WriteError(w, http.StatusConflict, models.ErrSubmissionInProgress.Error())
		return
	}
	defer h.inFlight.Delete(key)

	co.SetBuyer(req.Buyer)
	co.SetPayment(req.Payment)

	_, err = co.Submit(r.Context())
	status := http.StatusOK

	var ve *models.ValidationError
	var se *models.SubmissionError
	switch {
	case err == nil:
		delete(session.Values, reservationSessionKey)
	case errors.As(err, &ve):
		status = http.StatusUnprocessableEntity
		if ve.Message == services.MsgReservationExpired {
			delete(session.Values, reservationSessionKey)
		}
	case errors.As(err, &se):
		status = http.StatusInternalServerError
		if errors.Is(err, services.ErrPaymentDeclined) {
			status = http.StatusPaymentRequired
		}
	case errors.Is(err, models.ErrAlreadyCompleted), errors.Is(err, models.ErrSubmissionInProgress):
		middleware.WriteError(w, http.StatusConflict, err.Error())
		return
	default:
		h.logger.Error("unexpected checkout error", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, services.MsgUnknownSubmitError)
		return
	}

	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
	}

	resp := h.newResponse(co)
	if se != nil {
		resp.Status = models.CheckoutFailed
	}
	writeJSON(w, status, resp)
}
