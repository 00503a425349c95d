package enums

// PaymentStatus mirrors the gateway's payment_status field. The gateway may
// send values outside this set; anything that is not COMPLETE leaves state
// untouched.
type PaymentStatus string

const (
	PaymentStatusComplete  PaymentStatus = "COMPLETE"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusPending   PaymentStatus = "PENDING"
)

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsComplete reports whether the notification is the terminal success value.
func (p PaymentStatus) IsComplete() bool {
	return p == PaymentStatusComplete
}

// IsTerminalFailure reports whether the notification ends the payment without
// success.
func (p PaymentStatus) IsTerminalFailure() bool {
	return p == PaymentStatusCancelled || p == PaymentStatusFailed
}
