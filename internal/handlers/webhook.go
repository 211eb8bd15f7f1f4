package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"

	"github.com/you/court-booking/pkg/mq"
)

// WebhookHandler receives Omise completion callbacks. The incoming payload
// is never trusted directly: the event is re-fetched from Omise by id, and
// only then does a payment.paid/payment.failed event go onto the exchange
// for the consumer to apply.
type WebhookHandler struct {
	omc *omise.Client
	pub *mq.Publisher
}

func NewWebhookHandler(omc *omise.Client, pub *mq.Publisher) *WebhookHandler {
	return &WebhookHandler{omc: omc, pub: pub}
}

type incomingEvent struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type paymentEvent struct {
	Event      string `json:"event"`
	Version    int    `json:"version"`
	OccurredAt string `json:"occurred_at"`
	Data       struct {
		PaymentID string `json:"payment_id"`
		BookingID string `json:"booking_id"`
		ChargeID  string `json:"charge_id"`
		Reason    string `json:"reason,omitempty"`
		IdemKey   string `json:"idempotency_key"`
	} `json:"data"`
}

// POST /webhooks/omise
func (h *WebhookHandler) Handle(c *gin.Context) {
	var inc incomingEvent
	if err := c.ShouldBindJSON(&inc); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	ev := &omise.Event{}
	if err := h.omc.Do(ev, &operations.RetrieveEvent{EventID: inc.ID}); err != nil {
		log.Printf("[webhook] retrieve event %s: %v", inc.ID, err)
		c.Status(http.StatusUnauthorized)
		return
	}

	if ev.Key != "charge.complete" {
		c.Status(http.StatusOK)
		return
	}

	raw, err := json.Marshal(ev.Data)
	if err != nil {
		log.Printf("[webhook] marshal event data: %v", err)
		c.Status(http.StatusOK)
		return
	}
	var ch omise.Charge
	if err := json.Unmarshal(raw, &ch); err != nil {
		log.Printf("[webhook] unmarshal charge: %v", err)
		c.Status(http.StatusOK)
		return
	}

	paymentID, _ := ch.Metadata["payment_id"].(string)
	bookingID, _ := ch.Metadata["booking_id"].(string)

	evt := paymentEvent{Version: 1, OccurredAt: time.Now().UTC().Format(time.RFC3339)}
	evt.Data.PaymentID = paymentID
	evt.Data.BookingID = bookingID
	evt.Data.ChargeID = ch.ID
	evt.Data.IdemKey = ch.ID

	if ch.Status == "successful" {
		evt.Event = "payment.paid"
		if err := h.pub.PublishJSON(c.Request.Context(), "payment.paid", evt); err != nil {
			log.Printf("[webhook] publish payment.paid: %v", err)
		}
	} else {
		evt.Event = "payment.failed"
		if ch.FailureCode != nil {
			evt.Data.Reason = *ch.FailureCode
		}
		if err := h.pub.PublishJSON(c.Request.Context(), "payment.failed", evt); err != nil {
			log.Printf("[webhook] publish payment.failed: %v", err)
		}
	}
	c.Status(http.StatusOK)
}
