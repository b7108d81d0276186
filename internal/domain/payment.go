package domain

import "time"

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentProcessing        PaymentStatus = "PROCESSING"
	PaymentCompleted         PaymentStatus = "COMPLETED"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentCancelled         PaymentStatus = "CANCELLED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

var paymentStatuses = map[PaymentStatus]bool{
	PaymentPending: true, PaymentProcessing: true, PaymentCompleted: true, PaymentFailed: true,
	PaymentCancelled: true, PaymentRefunded: true, PaymentPartiallyRefunded: true,
}

func (s PaymentStatus) Valid() bool { return paymentStatuses[s] }

type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodDebitCard    PaymentMethod = "DEBIT_CARD"
	MethodPayPal       PaymentMethod = "PAYPAL"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCash         PaymentMethod = "CASH"
)

var paymentMethods = map[PaymentMethod]bool{
	MethodCreditCard: true, MethodDebitCard: true, MethodPayPal: true,
	MethodBankTransfer: true, MethodCash: true,
}

func (m PaymentMethod) Valid() bool { return paymentMethods[m] }

func IsPaymentSuccessful(s PaymentStatus) bool { return s == PaymentCompleted }

func IsPaymentPending(s PaymentStatus) bool {
	return s == PaymentPending || s == PaymentProcessing
}

func IsPaymentFailed(s PaymentStatus) bool { return s == PaymentFailed }

func IsPaymentRefunded(s PaymentStatus) bool {
	return s == PaymentRefunded || s == PaymentPartiallyRefunded
}

type Payment struct {
	ID                   int64         `json:"id"`
	BookingID            int64         `json:"booking_id"`
	Amount               int64         `json:"amount"` // minor units (cents)
	PaymentMethod        PaymentMethod `json:"payment_method"`
	Status               PaymentStatus `json:"status"`
	TransactionID        string        `json:"transaction_id"`
	Description          string        `json:"description,omitempty"`
	PaymentDate          *time.Time    `json:"payment_date,omitempty"`
	GatewayTransactionID string        `json:"gateway_transaction_id,omitempty"`
	GatewayName          string        `json:"gateway_name,omitempty"`
	GatewayResponse      string        `json:"gateway_response,omitempty"`
	GatewayStatus        string        `json:"gateway_status,omitempty"`
	RefundAmount         int64         `json:"refund_amount"`
	RefundDate           *time.Time    `json:"refund_date,omitempty"`
	RefundReason         string        `json:"refund_reason,omitempty"`
	CustomerName         string        `json:"customer_name,omitempty"`
	CustomerEmail        string        `json:"customer_email,omitempty"`
	FailureCode          string        `json:"failure_code,omitempty"`
	FailureReason        string        `json:"failure_reason,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	Version              int64         `json:"version"`
}

// RefundableAmount is what remains of the original charge after earlier refunds.
func RefundableAmount(p *Payment) int64 {
	return p.Amount - p.RefundAmount
}

type PaymentStats struct {
	Total           int64                   `json:"total"`
	ByStatus        map[PaymentStatus]int64 `json:"by_status"`
	RevenueByMethod map[PaymentMethod]int64 `json:"revenue_by_method"`
	Refunded        int64                   `json:"refunded"`
}
