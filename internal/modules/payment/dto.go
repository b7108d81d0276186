package payment

import "hotelbooking/internal/domain"

type ProcessPaymentRequest struct {
	BookingID     int64                `json:"booking_id" binding:"required,gt=0"`
	Amount        int64                `json:"amount" binding:"required,gt=0"`
	PaymentMethod domain.PaymentMethod `json:"payment_method" binding:"required"`
	TransactionID string               `json:"transaction_id" binding:"omitempty,max=100,printascii"`
	Description   string               `json:"description" binding:"omitempty,max=500"`
	CustomerName  string               `json:"customer_name" binding:"omitempty,max=100"`
	CustomerEmail string               `json:"customer_email" binding:"omitempty,email"`
}

type RefundPaymentRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type CancelPaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type UpdateStatusRequest struct {
	Status          domain.PaymentStatus `json:"status" binding:"required"`
	GatewayResponse string               `json:"gateway_response" binding:"omitempty,max=2000"`
}

type BookingPaymentsResponse struct {
	BookingID int64            `json:"booking_id"`
	Payments  []domain.Payment `json:"payments"`
	TotalPaid int64            `json:"total_paid"`
}
