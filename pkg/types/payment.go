package types

type PaymentProvider string

const PaymentProviderRazorpay PaymentProvider = "razorpay"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCaptured  PaymentStatus = "captured"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusCaptured:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s PaymentStatus) Terminal() bool { return s == PaymentStatusRefunded }

// Settled reports whether money was actually collected.
func (s PaymentStatus) Settled() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusCaptured
}
