package billing

import (
	"errors"
	"net/http"
)

type Handler struct {
	service      Service
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewHandler(
	service Service,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *Handler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &Handler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func requestUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value("userID").(string)
	return userID, ok
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	checkoutURL, err := h.service.CreateCheckoutSession(r.Context(), userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Could not create checkout session")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"data": map[string]string{
			"checkout_url": checkoutURL,
		},
	})
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sub, err := h.service.GetSubscription(r.Context(), userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Could not load subscription")
		return
	}
	if sub == nil {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"subscribed": false,
			},
		})
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"subscribed":   true,
			"subscription": sub,
		},
	})
}

func (h *Handler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	records, err := h.service.GetPaymentHistory(r.Context(), userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Could not load payment history")
		return
	}
	if records == nil {
		records = []PaymentRecord{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   records,
	})
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.service.PublicConfig(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Could not load billing config")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   config,
	})
}

// RegisterClick gates free-tier usage. Over the limit without an active
// subscription the client gets 402 and should start a checkout.
func (h *Handler) RegisterClick(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	status, err := h.service.RegisterClick(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrClickLimitReached) {
			h.respondError(w, http.StatusPaymentRequired, "Free usage limit reached. Please subscribe to continue.")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Could not register click")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}
