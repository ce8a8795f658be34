package pricing

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/omnishop/checkout-service/internal/model"
)

func line(itemTotal string, code model.StockStatusCode) model.LineVerdict {
	return model.LineVerdict{
		StatusCode:           code,
		Action:               code.Action(),
		CanProceedToCheckout: code.Eligible(),
		CartDetails: model.CartDetails{
			ItemTotal: decimal.RequireFromString(itemTotal),
		},
	}
}

func reconciliation(lines ...model.LineVerdict) *model.CartReconciliation {
	return &model.CartReconciliation{Lines: lines}
}

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name          string
		rec           *model.CartReconciliation
		subtotal      string
		discount      string
		deliveryFee   string
		protectionFee string
		total         string
	}{
		{
			name:          "above free delivery threshold",
			rec:           reconciliation(line("600", model.StatusInStock)),
			subtotal:      "600",
			discount:      "60",
			deliveryFee:   "0",
			protectionFee: "25",
			total:         "565",
		},
		{
			name:          "below free delivery threshold",
			rec:           reconciliation(line("400", model.StatusInStock)),
			subtotal:      "400",
			discount:      "40",
			deliveryFee:   "50",
			protectionFee: "25",
			total:         "435",
		},
		{
			name:          "low stock lines still price",
			rec:           reconciliation(line("300", model.StatusLowStock), line("300", model.StatusInStock)),
			subtotal:      "600",
			discount:      "60",
			deliveryFee:   "0",
			protectionFee: "25",
			total:         "565",
		},
		{
			name:          "exactly at threshold pays delivery",
			rec:           reconciliation(line("500", model.StatusInStock)),
			subtotal:      "500",
			discount:      "50",
			deliveryFee:   "50",
			protectionFee: "25",
			total:         "525",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.rec)
			assertDecimal(t, "subtotal", got.Subtotal, tt.subtotal)
			assertDecimal(t, "discount", got.Discount, tt.discount)
			assertDecimal(t, "deliveryFee", got.DeliveryFee, tt.deliveryFee)
			assertDecimal(t, "protectionFee", got.ProtectionFee, tt.protectionFee)
			assertDecimal(t, "total", got.Total, tt.total)
			assertDecimal(t, "savings", got.Savings, tt.discount)
		})
	}
}

func TestComputeExcludesIneligibleLines(t *testing.T) {
	rec := reconciliation(
		line("200", model.StatusOutOfStock),
		line("300", model.StatusInStock),
	)

	got := Compute(rec)

	assertDecimal(t, "subtotal", got.Subtotal, "300")
	// 300 - 30 + 50 + 25
	assertDecimal(t, "total", got.Total, "345")
}

// A cart with no eligible lines prices to zero everywhere. In particular the
// delivery fee must not leak through and produce a non-zero total for a cart
// that cannot check out.
func TestComputeNoEligibleLines(t *testing.T) {
	tests := []struct {
		name string
		rec  *model.CartReconciliation
	}{
		{"all out of stock", reconciliation(line("200", model.StatusOutOfStock))},
		{"quantity exceeded", reconciliation(line("150", model.StatusQuantityExceeded))},
		{"no lines", reconciliation()},
		{"nil reconciliation", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.rec)
			for field, d := range map[string]decimal.Decimal{
				"subtotal":      got.Subtotal,
				"discount":      got.Discount,
				"deliveryFee":   got.DeliveryFee,
				"protectionFee": got.ProtectionFee,
				"total":         got.Total,
				"savings":       got.Savings,
			} {
				if !d.IsZero() {
					t.Errorf("%s = %s, want 0", field, d)
				}
			}
		})
	}
}

func TestComputeIdempotent(t *testing.T) {
	rec := reconciliation(
		line("123.45", model.StatusInStock),
		line("76.55", model.StatusLowStock),
		line("999", model.StatusOutOfStock),
	)

	first := Compute(rec)
	second := Compute(rec)

	if !first.Equal(second) {
		t.Errorf("Compute not idempotent: first %+v, second %+v", first, second)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Compute results differ structurally: first %+v, second %+v", first, second)
	}
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}
