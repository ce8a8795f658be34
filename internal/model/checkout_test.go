package model

import "testing"

func TestStockStatusCodeActionMapping(t *testing.T) {
	tests := []struct {
		code     StockStatusCode
		action   LineAction
		eligible bool
	}{
		{StatusInStock, ActionProceed, true},
		{StatusLowStock, ActionProceedWithCaution, true},
		{StatusOutOfStock, ActionRemove, false},
		{StatusQuantityExceeded, ActionReduceQuantity, false},
		{StatusProductNotFound, ActionRemove, false},
		{StatusVariantNotFound, ActionRemove, false},
		{StatusItemNotInCart, ActionRemove, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Action(); got != tt.action {
				t.Errorf("Action() = %s, want %s", got, tt.action)
			}
			if got := tt.code.Eligible(); got != tt.eligible {
				t.Errorf("Eligible() = %v, want %v", got, tt.eligible)
			}
			if !tt.code.Valid() {
				t.Errorf("Valid() = false for %s", tt.code)
			}
		})
	}
}

func TestCheckoutStepTerminal(t *testing.T) {
	for _, s := range []CheckoutStep{StepAuthGate, StepAddress, StepReview, StepPayment} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []CheckoutStep{StepCompleted, StepAbandoned} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentCard, PaymentUPI, PaymentCOD} {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if PaymentMethod("wallet").Valid() {
		t.Error("unknown method should not be valid")
	}
}
