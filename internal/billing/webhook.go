package billing

import (
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v78/webhook"
)

// Stripe webhook payloads are small. Anything larger is suspect.
const maxWebhookBodyBytes = 65536

type WebhookHandler struct {
	service       Service
	webhookSecret string
}

func NewWebhookHandler(service Service, webhookSecret string) *WebhookHandler {
	if service == nil || webhookSecret == "" {
		panic("Webhook handler requires a service and a signing secret")
	}
	return &WebhookHandler{
		service:       service,
		webhookSecret: webhookSecret,
	}
}

func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Could not read request body", http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Printf("Rejecting stripe webhook with bad signature: %v", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.service.HandleEvent(r.Context(), event); err != nil {
		log.Printf("Error handling stripe event %s (%s): %v", event.ID, event.Type, err)
		// Non-2xx makes Stripe retry the delivery later.
		http.Error(w, "Event handling failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
