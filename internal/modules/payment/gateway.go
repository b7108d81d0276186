package payment

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type ChargeRequest struct {
	TransactionID string
	Amount        int64
	Method        string
	CustomerEmail string
}

type RefundRequest struct {
	TransactionID        string
	GatewayTransactionID string
	Amount               int64
}

// GatewayResult carries the audit fields stored on the payment row.
type GatewayResult struct {
	TransactionID string
	Name          string
	Status        string
	Response      string
}

// GatewayError is a decline or processing error reported by the gateway.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string { return e.Code + ": " + e.Message }

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*GatewayResult, error)
	Refund(ctx context.Context, req RefundRequest) (*GatewayResult, error)
}

const simulatedGatewayName = "MockGateway"

// SimulatedGateway approves charges except for a configurable share that it
// fails as timeouts. Refunds always succeed.
type SimulatedGateway struct {
	failureRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulatedGateway(failureRate float64, src rand.Source) *SimulatedGateway {
	return &SimulatedGateway{failureRate: failureRate, rnd: rand.New(src)}
}

func (g *SimulatedGateway) roll() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (*GatewayResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.roll() < g.failureRate {
		return nil, &GatewayError{Code: "GATEWAY_TIMEOUT", Message: "Payment gateway timeout"}
	}
	return &GatewayResult{
		TransactionID: "GTW-" + shortID(),
		Name:          simulatedGatewayName,
		Status:        "SUCCESS",
		Response:      fmt.Sprintf("Payment of %d processed successfully", req.Amount),
	}, nil
}

func (g *SimulatedGateway) Refund(ctx context.Context, req RefundRequest) (*GatewayResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &GatewayResult{
		TransactionID: req.GatewayTransactionID,
		Name:          simulatedGatewayName,
		Status:        "REFUNDED",
		Response:      fmt.Sprintf("Refund of %d processed successfully", req.Amount),
	}, nil
}

func shortID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
