package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/service"
	"github.com/you/court-booking/pkg/mq"
)

// PaymentPaid is the event the webhook publishes when the gateway confirms
// a charge.
type PaymentPaid struct {
	Event   string `json:"event"`   // "payment.paid"
	Version int    `json:"version"` // 1
	Data    struct {
		PaymentID string `json:"payment_id"`
		BookingID string `json:"booking_id"`
		ChargeID  string `json:"charge_id"`
		IdemKey   string `json:"idempotency_key"`
	} `json:"data"`
}

// PaymentConsumer applies payment.paid events to the hold lifecycle.
type PaymentConsumer struct {
	holds *service.HoldSvc
	cons  *mq.Consumer
}

func NewPaymentConsumer(holds *service.HoldSvc, cons *mq.Consumer) *PaymentConsumer {
	return &PaymentConsumer{holds: holds, cons: cons}
}

func (pc *PaymentConsumer) Run(ctx context.Context) error {
	msgs, err := pc.cons.Deliveries(ctx)
	if err != nil {
		return err
	}
	go func() {
		for d := range msgs {
			switch d.RoutingKey {
			case "payment.paid":
				var evt PaymentPaid
				if err := json.Unmarshal(d.Body, &evt); err != nil {
					log.Printf("[payment-consumer] unmarshal: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				if evt.Data.PaymentID == "" {
					log.Printf("[payment-consumer] event without payment_id")
					_ = d.Ack(false)
					continue
				}
				eventID := evt.Data.IdemKey
				if eventID == "" {
					eventID = evt.Data.ChargeID
				}
				if _, err := pc.holds.ConfirmPaidEvent(ctx, evt.Data.PaymentID, eventID); err != nil {
					if errors.Is(err, domain.ErrHoldExpired) {
						// hold already closed: park the event for manual
						// reconciliation instead of redelivering forever
						log.Printf("[payment-consumer] payment %s confirmed after hold closed, needs reconciliation", evt.Data.PaymentID)
						_ = d.Ack(false)
						continue
					}
					log.Printf("[payment-consumer] confirm %s: %v", evt.Data.PaymentID, err)
					_ = d.Nack(false, true)
					continue
				}
				_ = d.Ack(false)
			default:
				_ = d.Ack(false)
			}
		}
	}()
	return nil
}
