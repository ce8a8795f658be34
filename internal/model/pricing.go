package model

import "github.com/shopspring/decimal"

// PricingDetails is derived from a reconciliation and never persisted; it is
// recomputed whenever the reconciliation changes.
type PricingDetails struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	ProtectionFee decimal.Decimal `json:"protectionFee"`
	Total         decimal.Decimal `json:"total"`
	Savings       decimal.Decimal `json:"savings"`
}

// Equal compares field by field; decimal comparison ignores exponent
// representation so 50 and 50.00 are the same price.
func (p PricingDetails) Equal(o PricingDetails) bool {
	return p.Subtotal.Equal(o.Subtotal) &&
		p.Discount.Equal(o.Discount) &&
		p.DeliveryFee.Equal(o.DeliveryFee) &&
		p.ProtectionFee.Equal(o.ProtectionFee) &&
		p.Total.Equal(o.Total) &&
		p.Savings.Equal(o.Savings)
}
