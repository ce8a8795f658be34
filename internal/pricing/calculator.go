// Package pricing derives monetary totals from a reconciled cart. Pure and
// deterministic: no clock, no randomness, no I/O.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/omnishop/checkout-service/internal/model"
)

// Product-policy constants.
var (
	discountRate          = decimal.NewFromFloat(0.10)
	freeDeliveryThreshold = decimal.NewFromInt(500)
	deliveryFee           = decimal.NewFromInt(50)
	protectionFee         = decimal.NewFromInt(25)
)

// Compute prices a reconciliation. Only eligible lines contribute to the
// subtotal; ineligible lines are priced as if removed.
//
// A cart with no eligible lines prices to zero across the board. Charging a
// delivery fee against an empty subtotal would produce a non-zero total for a
// cart that cannot check out, so the fee terms are skipped entirely when the
// subtotal is zero.
func Compute(rec *model.CartReconciliation) model.PricingDetails {
	subtotal := decimal.Zero
	if rec != nil {
		for _, l := range rec.Lines {
			if l.CanProceedToCheckout {
				subtotal = subtotal.Add(l.CartDetails.ItemTotal)
			}
		}
	}

	if subtotal.IsZero() {
		return model.PricingDetails{
			Subtotal:      decimal.Zero,
			Discount:      decimal.Zero,
			DeliveryFee:   decimal.Zero,
			ProtectionFee: decimal.Zero,
			Total:         decimal.Zero,
			Savings:       decimal.Zero,
		}
	}

	discount := subtotal.Mul(discountRate)

	delivery := deliveryFee
	if subtotal.GreaterThan(freeDeliveryThreshold) {
		delivery = decimal.Zero
	}

	total := subtotal.Sub(discount).Add(delivery).Add(protectionFee)

	return model.PricingDetails{
		Subtotal:      subtotal,
		Discount:      discount,
		DeliveryFee:   delivery,
		ProtectionFee: protectionFee,
		Total:         total,
		Savings:       discount,
	}
}
