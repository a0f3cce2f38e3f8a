package zota

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/zotapay/deposit-gateway/internal/domain"
)

// MockGateway simulates the deposit processor for tests and local runs.
// Statuses returned by OrderStatus can be scripted per merchant order id.
type MockGateway struct {
	// FailureRate is the probability (0.0 to 1.0) that Deposit fails with a
	// processor rejection.
	FailureRate float64
	// Delay is slept on every call to simulate network latency.
	Delay time.Duration

	mu       sync.Mutex
	statuses map[string]string
	deposits int
}

// NewMockGateway creates a MockGateway that never fails and answers
// immediately.
func NewMockGateway() *MockGateway {
	return &MockGateway{statuses: make(map[string]string)}
}

// SetStatus scripts the processor status reported for a merchant order id.
func (g *MockGateway) SetStatus(merchantOrderID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[merchantOrderID] = status
}

// Deposits returns how many deposit submissions the mock has accepted.
func (g *MockGateway) Deposits() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deposits
}

// Deposit simulates a deposit submission.
func (g *MockGateway) Deposit(ctx context.Context, req *DepositRequest) (*DepositResult, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	if rand.Float64() < g.FailureRate {
		return nil, &domain.SubmissionError{Code: "103", Message: "Invalid amount"}
	}

	g.mu.Lock()
	g.deposits++
	n := g.deposits
	if _, ok := g.statuses[req.MerchantOrderID]; !ok {
		g.statuses[req.MerchantOrderID] = domain.ProcessorStatusCreated
	}
	g.mu.Unlock()

	processorID := fmt.Sprintf("MOCK-%s-%05d", time.Now().Format("20060102"), n)
	return &DepositResult{
		DepositURL:       "https://pay.example/checkout/" + processorID,
		MerchantOrderID:  req.MerchantOrderID,
		ProcessorOrderID: processorID,
	}, nil
}

// OrderStatus reports the scripted status, or UNKNOWN for orders the mock
// never saw.
func (g *MockGateway) OrderStatus(ctx context.Context, req *OrderStatusRequest) (*OrderStatusResult, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	status, ok := g.statuses[req.MerchantOrderID]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no such order: %s", req.MerchantOrderID)
	}

	return &OrderStatusResult{
		Status:           status,
		MerchantOrderID:  req.MerchantOrderID,
		ProcessorOrderID: req.ProcessorOrderID,
	}, nil
}

func (g *MockGateway) wait(ctx context.Context) error {
	if g.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(g.Delay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gateway call canceled: %w", ctx.Err())
	}
}
