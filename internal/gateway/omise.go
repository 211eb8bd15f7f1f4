// Package gateway adapts the external payment gateway behind the narrow
// interface the hold lifecycle consumes.
package gateway

import (
	"context"
	"errors"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/shopspring/decimal"
)

// OmiseGateway issues promptpay charges: the returned QR url is what the
// customer scans to settle an open hold. The completion callback arrives on
// the webhook, not here.
type OmiseGateway struct {
	omc      *omise.Client
	currency string
}

func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	omc, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	return &OmiseGateway{omc: omc, currency: "thb"}, nil
}

func (g *OmiseGateway) CreatePromptPayCharge(ctx context.Context, amount decimal.Decimal, paymentID, bookingID string) (string, string, error) {
	// omise wants the smallest currency unit
	subunits := amount.Mul(decimal.NewFromInt(100)).IntPart()
	if subunits <= 0 {
		return "", "", errors.New("amount must be positive")
	}

	src := &omise.Source{}
	if err := g.omc.Do(src, &operations.CreateSource{
		Type:     "promptpay",
		Amount:   subunits,
		Currency: g.currency,
	}); err != nil {
		return "", "", err
	}

	ch := &omise.Charge{}
	if err := g.omc.Do(ch, &operations.CreateCharge{
		Amount:   subunits,
		Currency: g.currency,
		Source:   src.ID,
		Metadata: map[string]any{"payment_id": paymentID, "booking_id": bookingID},
	}); err != nil {
		return "", "", err
	}

	return ch.ID, scannableURI(ch), nil
}

// ChargePaid re-fetches a charge and reports whether the gateway settled
// it. Reconciliation uses this when the completion webhook never arrived.
func (g *OmiseGateway) ChargePaid(ctx context.Context, id string) (bool, error) {
	ch, err := g.getCharge(id)
	if err != nil {
		return false, err
	}
	return ch.Paid, nil
}

func (g *OmiseGateway) getCharge(id string) (*omise.Charge, error) {
	ch := &omise.Charge{}
	if err := g.omc.Do(ch, &operations.RetrieveCharge{ChargeID: id}); err != nil {
		return nil, err
	}
	return ch, nil
}

func scannableURI(ch *omise.Charge) string {
	if ch.Source == nil || ch.Source.ScannableCode == nil || ch.Source.ScannableCode.Image == nil {
		return ""
	}
	return ch.Source.ScannableCode.Image.DownloadURI
}
