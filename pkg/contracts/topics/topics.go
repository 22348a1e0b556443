package topics

const (
	// Payments
	PaymentEvents = "payment_events"
)
