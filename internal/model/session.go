package model

// CheckoutStep is the orchestrator's position in the checkout flow. Steps
// 1 through 4 are the live flow; Completed and Abandoned are terminal.
type CheckoutStep int

const (
	StepAuthGate CheckoutStep = iota + 1
	StepAddress
	StepReview
	StepPayment
	StepCompleted
	StepAbandoned
)

func (s CheckoutStep) IsTerminal() bool {
	return s == StepCompleted || s == StepAbandoned
}

func (s CheckoutStep) String() string {
	switch s {
	case StepAuthGate:
		return "auth_gate"
	case StepAddress:
		return "address"
	case StepReview:
		return "review"
	case StepPayment:
		return "payment"
	case StepCompleted:
		return "completed"
	case StepAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}
