package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxTransactionIDAttempts = 3
	maxWriteAttempts         = 3
)

type Service struct {
	payments       PaymentRepository
	bookings       BookingLookup
	gateway        Gateway
	notifs         NotificationSender
	log            logrus.FieldLogger
	gatewayTimeout time.Duration
	now            func() time.Time
	newTxnID       func() string
}

func NewService(
	payments PaymentRepository,
	bookings BookingLookup,
	gateway Gateway,
	notifs NotificationSender,
	gatewayTimeout time.Duration,
	log logrus.FieldLogger,
) *Service {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 10 * time.Second
	}
	return &Service{
		payments:       payments,
		bookings:       bookings,
		gateway:        gateway,
		notifs:         notifs,
		log:            log,
		gatewayTimeout: gatewayTimeout,
		now:            time.Now,
		newTxnID:       generateTransactionID,
	}
}

func generateTransactionID() string {
	return "TXN-" + strings.ToUpper(uuid.NewString()[:8])
}

// ProcessPayment records a charge for a booking and runs it through the
// gateway. The row is stored PENDING first so a crash mid-call leaves a trace
// for the stale sweep; the COMPLETED or FAILED outcome is persisted before
// returning. A declined charge is not an error: the returned payment is FAILED.
func (s *Service) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*domain.Payment, error) {
	return s.process(ctx, nil, req)
}

// ProcessPaymentAs is ProcessPayment on behalf of payer. A guest paying for a
// booking that is not theirs gets ErrNotFound, as if it did not exist.
func (s *Service) ProcessPaymentAs(ctx context.Context, payer domain.Principal, req ProcessPaymentRequest) (*domain.Payment, error) {
	return s.process(ctx, &payer, req)
}

func (s *Service) process(ctx context.Context, payer *domain.Principal, req ProcessPaymentRequest) (*domain.Payment, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.MethodCreditCard
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}
	if strings.IndexFunc(req.TransactionID, unicode.IsControl) >= 0 {
		return nil, fmt.Errorf("%w: transaction id contains control characters", ErrValidation)
	}

	b, err := s.bookings.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if payer != nil && !b.AccessibleBy(*payer) {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrNotFound, req.BookingID)
	}

	p := &domain.Payment{
		BookingID:     b.ID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.PaymentPending,
		TransactionID: strings.TrimSpace(req.TransactionID),
		Description:   req.Description,
		CustomerName:  firstNonEmpty(req.CustomerName, b.GuestName),
		CustomerEmail: strings.ToLower(firstNonEmpty(req.CustomerEmail, b.GuestEmail)),
	}
	if err := s.insert(ctx, p); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"payment_id":     p.ID,
		"booking_id":     p.BookingID,
		"transaction_id": p.TransactionID,
		"amount":         p.Amount,
	}).Info("processing payment")

	if err := s.charge(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// insert stores p, generating a transaction id when the caller gave none.
// Generated ids are retried on collision; caller ids are not.
func (s *Service) insert(ctx context.Context, p *domain.Payment) error {
	if p.TransactionID != "" {
		return s.payments.Create(ctx, p)
	}

	var err error
	for attempt := 0; attempt < maxTransactionIDAttempts; attempt++ {
		p.TransactionID = s.newTxnID()
		err = s.payments.Create(ctx, p)
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}

// charge moves p through PROCESSING to COMPLETED or FAILED.
func (s *Service) charge(ctx context.Context, p *domain.Payment) error {
	now := s.now().UTC()
	p.Status = domain.PaymentProcessing
	p.PaymentDate = &now
	if err := s.payments.Update(ctx, p); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	res, gwErr := s.gateway.Charge(callCtx, ChargeRequest{
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Method:        string(p.PaymentMethod),
		CustomerEmail: p.CustomerEmail,
	})
	cancel()

	if gwErr != nil {
		p.Status = domain.PaymentFailed
		p.FailureCode, p.FailureReason = describeFailure(gwErr)
		s.log.WithError(gwErr).WithField("payment_id", p.ID).Warn("payment failed at gateway")
	} else {
		p.Status = domain.PaymentCompleted
		p.GatewayTransactionID = res.TransactionID
		p.GatewayName = res.Name
		p.GatewayStatus = res.Status
		p.GatewayResponse = res.Response
		p.FailureCode, p.FailureReason = "", ""
	}

	// the caller may have gone away; the outcome still has to land
	applied, err := s.record(context.WithoutCancel(ctx), p)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	if p.Status == domain.PaymentCompleted {
		s.log.WithFields(logrus.Fields{
			"payment_id":             p.ID,
			"gateway_transaction_id": p.GatewayTransactionID,
		}).Info("payment completed")
		s.notify(ctx, p, notification.TypePaymentCompleted, "")
	} else {
		s.notify(ctx, p, notification.TypePaymentFailed, p.FailureReason)
	}
	return nil
}

// record persists the gateway outcome carried by p. When the row moved on
// during the call (stale sweep, manual override) it is re-read and the
// outcome applied on top. A completed charge always lands since the money
// has moved; a decline never overwrites a row that already left the
// in-flight states. It reports false when the stored row wins.
func (s *Service) record(ctx context.Context, p *domain.Payment) (bool, error) {
	err := s.payments.Update(ctx, p)
	for attempt := 1; errors.Is(err, domain.ErrConflict) && attempt < maxWriteAttempts; attempt++ {
		cur, gerr := s.payments.GetByID(ctx, p.ID)
		if gerr != nil {
			return false, gerr
		}
		fields := logrus.Fields{"payment_id": p.ID, "found": cur.Status, "outcome": p.Status}
		if !outcomeApplies(cur.Status, p.Status) {
			s.log.WithFields(fields).Warn("gateway outcome superseded by a concurrent update")
			*p = *cur
			return false, nil
		}
		s.log.WithFields(fields).Warn("payment changed during gateway call, reconciling")

		outcome := *p
		*p = *cur
		p.Status = outcome.Status
		p.PaymentDate = outcome.PaymentDate
		p.GatewayTransactionID = outcome.GatewayTransactionID
		p.GatewayName = outcome.GatewayName
		p.GatewayStatus = outcome.GatewayStatus
		p.GatewayResponse = outcome.GatewayResponse
		p.FailureCode = outcome.FailureCode
		p.FailureReason = outcome.FailureReason
		err = s.payments.Update(ctx, p)
	}
	return err == nil, err
}

func outcomeApplies(found, outcome domain.PaymentStatus) bool {
	if domain.IsPaymentPending(found) {
		return true
	}
	return outcome == domain.PaymentCompleted &&
		(found == domain.PaymentFailed || found == domain.PaymentCancelled)
}

func describeFailure(err error) (string, string) {
	var gwErr *GatewayError
	switch {
	case errors.As(err, &gwErr):
		return gwErr.Code, gwErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "GATEWAY_TIMEOUT", "Payment gateway timeout"
	default:
		return "GATEWAY_ERROR", err.Error()
	}
}

// RefundPayment refunds amount of a COMPLETED payment and closes it as REFUNDED.
func (s *Service) RefundPayment(ctx context.Context, id, amount int64, reason string) (*domain.Payment, error) {
	return s.refund(ctx, id, amount, reason, false)
}

// PartialRefund adds amount to the refunds of a COMPLETED or already partially
// refunded payment. The running total may never exceed the original charge.
func (s *Service) PartialRefund(ctx context.Context, id, amount int64, reason string) (*domain.Payment, error) {
	return s.refund(ctx, id, amount, reason, true)
}

func (s *Service) refund(ctx context.Context, id, amount int64, reason string, partial bool) (*domain.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: refund amount must be positive", ErrValidation)
	}

	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := *p

	total := amount
	next := domain.PaymentRefunded
	if partial {
		if p.Status != domain.PaymentCompleted && p.Status != domain.PaymentPartiallyRefunded {
			return nil, fmt.Errorf("%w: cannot refund a %s payment", ErrInvalidState, p.Status)
		}
		total = p.RefundAmount + amount
		next = domain.PaymentPartiallyRefunded
	} else if p.Status != domain.PaymentCompleted {
		return nil, fmt.Errorf("%w: cannot refund a %s payment", ErrInvalidState, p.Status)
	}
	if total > p.Amount {
		return nil, fmt.Errorf("%w: %d requested, %d refundable", ErrRefundTooHigh, amount, domain.RefundableAmount(p))
	}

	// The refund is claimed under the version check before the gateway sees
	// it, so two racing refunds can never both pass the cap.
	now := s.now().UTC()
	p.Status = next
	p.RefundAmount = total
	p.RefundDate = &now
	p.RefundReason = reason
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	res, err := s.gateway.Refund(callCtx, RefundRequest{
		TransactionID:        p.TransactionID,
		GatewayTransactionID: p.GatewayTransactionID,
		Amount:               amount,
	})
	cancel()
	if err != nil {
		s.log.WithError(err).WithField("payment_id", p.ID).Error("refund failed at gateway")
		s.releaseRefund(ctx, p, amount, &prev)
		return nil, fmt.Errorf("%w: refund of payment %d: %v", ErrGateway, p.ID, err)
	}

	if res != nil && res.Response != "" {
		p.GatewayResponse = res.Response
		if err := s.payments.Update(context.WithoutCancel(ctx), p); err != nil {
			s.log.WithError(err).WithField("payment_id", p.ID).Warn("refund recorded without gateway response")
			if fresh, gerr := s.payments.GetByID(context.WithoutCancel(ctx), p.ID); gerr == nil {
				p = fresh
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"payment_id":    p.ID,
		"amount":        amount,
		"refund_amount": p.RefundAmount,
		"status":        p.Status,
	}).Info("payment refunded")
	s.notify(ctx, p, notification.TypePaymentRefunded, reason)
	return p, nil
}

// releaseRefund gives back a refund claim the gateway rejected. When nothing
// touched the row since the claim, the previous refund fields are restored
// as they were; otherwise only the claimed amount is taken off again.
func (s *Service) releaseRefund(ctx context.Context, claimed *domain.Payment, amount int64, prev *domain.Payment) {
	ctx = context.WithoutCancel(ctx)
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		cur, err := s.payments.GetByID(ctx, claimed.ID)
		if err != nil {
			s.log.WithError(err).WithField("payment_id", claimed.ID).Error("refund claim not released")
			return
		}

		if cur.Version == claimed.Version {
			cur.Status = prev.Status
			cur.RefundAmount = prev.RefundAmount
			cur.RefundDate = prev.RefundDate
			cur.RefundReason = prev.RefundReason
		} else {
			cur.RefundAmount -= amount
			if cur.RefundAmount <= 0 {
				cur.RefundAmount = 0
				cur.Status = domain.PaymentCompleted
				cur.RefundDate = nil
				cur.RefundReason = ""
			}
		}

		err = s.payments.Update(ctx, cur)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrConflict) {
			s.log.WithError(err).WithField("payment_id", claimed.ID).Error("refund claim not released")
			return
		}
	}
	s.log.WithFields(logrus.Fields{
		"payment_id": claimed.ID,
		"amount":     amount,
	}).Error("refund claim not released after repeated conflicts")
}

// CancelPayment abandons a payment that has not reached the gateway outcome yet.
func (s *Service) CancelPayment(ctx context.Context, id int64, reason string) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.IsPaymentPending(p.Status) {
		return nil, fmt.Errorf("%w: cannot cancel a %s payment", ErrInvalidState, p.Status)
	}

	p.Status = domain.PaymentCancelled
	p.FailureReason = reason
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}
	s.log.WithField("payment_id", p.ID).Info("payment cancelled")
	return p, nil
}

// RetryPayment clears the failure of a FAILED payment and charges it again.
func (s *Service) RetryPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.IsPaymentFailed(p.Status) {
		return nil, fmt.Errorf("%w: only failed payments can be retried", ErrInvalidState)
	}

	// a fresh attempt date keeps the stale sweep off the retry
	now := s.now().UTC()
	p.Status = domain.PaymentPending
	p.PaymentDate = &now
	p.FailureCode = ""
	p.FailureReason = ""
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	s.log.WithField("payment_id", p.ID).Info("retrying payment")
	if err := s.charge(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStatus is the manual reconciliation override. It skips the state
// machine on purpose; only the version check applies.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus, gatewayResponse string) (*domain.Payment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, status)
	}

	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := p.Status
	p.Status = status
	if gatewayResponse != "" {
		p.GatewayResponse = gatewayResponse
	}
	if status == domain.PaymentCompleted && p.PaymentDate == nil {
		now := s.now().UTC()
		p.PaymentDate = &now
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"from":       from,
		"to":         status,
	}).Warn("payment status overridden")
	return p, nil
}

// FailStalePayments marks payments stuck in PENDING or PROCESSING for longer
// than olderThan as FAILED. Rows that moved on concurrently are skipped.
func (s *Service) FailStalePayments(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.StalePayments(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	failed := 0
	for i := range stale {
		p := &stale[i]
		p.Status = domain.PaymentFailed
		p.FailureCode = "STALE"
		p.FailureReason = "payment did not complete in time"
		if err := s.payments.Update(ctx, p); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				s.log.WithField("payment_id", p.ID).Warn("stale payment changed during sweep, skipping")
				continue
			}
			return failed, err
		}
		failed++
		s.notify(ctx, p, notification.TypePaymentFailed, p.FailureReason)
	}
	return failed, nil
}

func (s *Service) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *Service) GetByTransactionID(ctx context.Context, txnID string) (*domain.Payment, error) {
	return s.payments.GetByTransactionID(ctx, strings.TrimSpace(txnID))
}

func (s *Service) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	return s.payments.ListByBooking(ctx, bookingID)
}

func (s *Service) TotalPaidForBooking(ctx context.Context, bookingID int64) (int64, error) {
	return s.payments.TotalPaidForBooking(ctx, bookingID)
}

func (s *Service) StalePayments(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	return s.payments.ListStale(ctx, cutoff)
}

func (s *Service) Stats(ctx context.Context) (*domain.PaymentStats, error) {
	return s.payments.Stats(ctx)
}

func (s *Service) notify(ctx context.Context, p *domain.Payment, eventType, reason string) {
	if s.notifs == nil {
		return
	}
	e := notification.Event{
		Type:          eventType,
		BookingID:     p.BookingID,
		PaymentID:     p.ID,
		Status:        string(p.Status),
		GuestName:     p.CustomerName,
		GuestEmail:    p.CustomerEmail,
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
		Reason:        reason,
		OccurredAt:    s.now().UTC(),
	}
	if eventType == notification.TypePaymentRefunded {
		e.Amount = p.RefundAmount
	}
	if err := s.notifs.Notify(ctx, e); err != nil {
		s.log.WithError(err).WithField("payment_id", p.ID).Warn("payment notification failed")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
