package model

// PaymentMethod selects one of the dispatcher's order-creation flows.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
	PaymentCOD  PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentUPI || m == PaymentCOD
}

func (m PaymentMethod) String() string {
	return string(m)
}

type CreateOrderRequest struct {
	Items           []CheckoutItem `json:"items"`
	ShippingAddress Address        `json:"shippingAddress"`
	PaymentMethod   PaymentMethod  `json:"paymentMethod"`
	CouponCode      string         `json:"couponCode,omitempty"`
}

type CreateOrderResponse struct {
	Success    bool   `json:"success"`
	OrderID    string `json:"orderId"`
	Amount     string `json:"amount"`
	PaymentURL string `json:"paymentUrl,omitempty"`
}
