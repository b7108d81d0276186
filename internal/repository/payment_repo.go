package repository

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentModel struct {
	ID                   int64      `gorm:"column:id;primaryKey"`
	BookingID            int64      `gorm:"column:booking_id;not null;index"`
	Amount               int64      `gorm:"column:amount;not null"`
	PaymentMethod        string     `gorm:"column:payment_method;size:20;not null"`
	Status               string     `gorm:"column:status;size:20;not null;index"`
	TransactionID        string     `gorm:"column:transaction_id;size:100;uniqueIndex;not null"`
	Description          *string    `gorm:"column:description;type:text"`
	PaymentDate          *time.Time `gorm:"column:payment_date"`
	GatewayTransactionID *string    `gorm:"column:gateway_transaction_id;size:100"`
	GatewayName          *string    `gorm:"column:gateway_name;size:50"`
	GatewayResponse      *string    `gorm:"column:gateway_response;type:text"`
	GatewayStatus        *string    `gorm:"column:gateway_status;size:50"`
	RefundAmount         int64      `gorm:"column:refund_amount;not null"`
	RefundDate           *time.Time `gorm:"column:refund_date"`
	RefundReason         *string    `gorm:"column:refund_reason;type:text"`
	CustomerName         *string    `gorm:"column:customer_name;size:100"`
	CustomerEmail        *string    `gorm:"column:customer_email;size:255"`
	FailureCode          *string    `gorm:"column:failure_code;size:50"`
	FailureReason        *string    `gorm:"column:failure_reason;type:text"`
	CreatedAt            time.Time  `gorm:"column:created_at;index"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
	Version              int64      `gorm:"column:version;not null"`
}

func (paymentModel) TableName() string { return "payments" }

func toDomainPayment(m paymentModel) *domain.Payment {
	return &domain.Payment{
		ID:                   m.ID,
		BookingID:            m.BookingID,
		Amount:               m.Amount,
		PaymentMethod:        domain.PaymentMethod(m.PaymentMethod),
		Status:               domain.PaymentStatus(m.Status),
		TransactionID:        m.TransactionID,
		Description:          deref(m.Description),
		PaymentDate:          m.PaymentDate,
		GatewayTransactionID: deref(m.GatewayTransactionID),
		GatewayName:          deref(m.GatewayName),
		GatewayResponse:      deref(m.GatewayResponse),
		GatewayStatus:        deref(m.GatewayStatus),
		RefundAmount:         m.RefundAmount,
		RefundDate:           m.RefundDate,
		RefundReason:         deref(m.RefundReason),
		CustomerName:         deref(m.CustomerName),
		CustomerEmail:        deref(m.CustomerEmail),
		FailureCode:          deref(m.FailureCode),
		FailureReason:        deref(m.FailureReason),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		Version:              m.Version,
	}
}

func toPaymentModel(p *domain.Payment) paymentModel {
	return paymentModel{
		ID:                   p.ID,
		BookingID:            p.BookingID,
		Amount:               p.Amount,
		PaymentMethod:        string(p.PaymentMethod),
		Status:               string(p.Status),
		TransactionID:        p.TransactionID,
		Description:          optional(p.Description),
		PaymentDate:          p.PaymentDate,
		GatewayTransactionID: optional(p.GatewayTransactionID),
		GatewayName:          optional(p.GatewayName),
		GatewayResponse:      optional(p.GatewayResponse),
		GatewayStatus:        optional(p.GatewayStatus),
		RefundAmount:         p.RefundAmount,
		RefundDate:           p.RefundDate,
		RefundReason:         optional(p.RefundReason),
		CustomerName:         optional(p.CustomerName),
		CustomerEmail:        optional(p.CustomerEmail),
		FailureCode:          optional(p.FailureCode),
		FailureReason:        optional(p.FailureReason),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		Version:              p.Version,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	m := toPaymentModel(p)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translateError(err, "payment "+p.TransactionID)
	}
	*p = *toDomainPayment(m)
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var m paymentModel
	if err := conn(ctx, r.db).First(&m, id).Error; err != nil {
		return nil, translateError(err, "payment")
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, txnID string) (*domain.Payment, error) {
	var m paymentModel
	if err := conn(ctx, r.db).Where("transaction_id = ?", txnID).First(&m).Error; err != nil {
		return nil, translateError(err, "payment")
	}
	return toDomainPayment(m), nil
}

// Update writes every mutable column guarded by the version check.
func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	now := time.Now().UTC()
	res := conn(ctx, r.db).Model(&paymentModel{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"status":                 string(p.Status),
			"description":            optional(p.Description),
			"payment_date":           p.PaymentDate,
			"gateway_transaction_id": optional(p.GatewayTransactionID),
			"gateway_name":           optional(p.GatewayName),
			"gateway_response":       optional(p.GatewayResponse),
			"gateway_status":         optional(p.GatewayStatus),
			"refund_amount":          p.RefundAmount,
			"refund_date":            p.RefundDate,
			"refund_reason":          optional(p.RefundReason),
			"failure_code":           optional(p.FailureCode),
			"failure_reason":         optional(p.FailureReason),
			"updated_at":             now,
			"version":                gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return translateError(res.Error, "payment")
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
		return staleVersion("payment", p.ID)
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var rows []paymentModel
	if err := conn(ctx, r.db).Where("booking_id = ?", bookingID).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainPayments(rows), nil
}

// TotalPaidForBooking sums what is still held for a booking after refunds.
func (r *PaymentRepository) TotalPaidForBooking(ctx context.Context, bookingID int64) (int64, error) {
	var total int64
	err := conn(ctx, r.db).Model(&paymentModel{}).
		Select("COALESCE(SUM(amount - refund_amount), 0)").
		Where("booking_id = ?", bookingID).
		Where("status IN ?", []domain.PaymentStatus{domain.PaymentCompleted, domain.PaymentPartiallyRefunded}).
		Scan(&total).Error
	return total, err
}

// ListStale returns payments stuck in PENDING or PROCESSING since before
// cutoff. Every charge attempt stamps payment_date, so a retried payment is
// measured from its latest attempt rather than from when it was created.
func (r *PaymentRepository) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	var rows []paymentModel
	err := conn(ctx, r.db).
		Where("status IN ?", []domain.PaymentStatus{domain.PaymentPending, domain.PaymentProcessing}).
		Where("COALESCE(payment_date, created_at) < ?", cutoff.UTC()).
		Order("COALESCE(payment_date, created_at) ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainPayments(rows), nil
}

func (r *PaymentRepository) Stats(ctx context.Context) (*domain.PaymentStats, error) {
	stats := &domain.PaymentStats{
		ByStatus:        map[domain.PaymentStatus]int64{},
		RevenueByMethod: map[domain.PaymentMethod]int64{},
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := conn(ctx, r.db).Model(&paymentModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.ByStatus[domain.PaymentStatus(row.Status)] = row.Count
		stats.Total += row.Count
	}

	var byMethod []struct {
		PaymentMethod string
		Revenue       int64
	}
	if err := conn(ctx, r.db).Model(&paymentModel{}).
		Select("payment_method, COALESCE(SUM(amount - refund_amount), 0) AS revenue").
		Where("status IN ?", []domain.PaymentStatus{domain.PaymentCompleted, domain.PaymentPartiallyRefunded}).
		Group("payment_method").
		Scan(&byMethod).Error; err != nil {
		return nil, err
	}
	for _, row := range byMethod {
		stats.RevenueByMethod[domain.PaymentMethod(row.PaymentMethod)] = row.Revenue
	}

	if err := conn(ctx, r.db).Model(&paymentModel{}).
		Select("COALESCE(SUM(refund_amount), 0)").
		Scan(&stats.Refunded).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func toDomainPayments(rows []paymentModel) []domain.Payment {
	out := make([]domain.Payment, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainPayment(m))
	}
	return out
}
