package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/docgraph-io/docgraph/pkg/alert"
	"github.com/docgraph-io/docgraph/pkg/config"
)

// CircuitBreakerClient wraps a Client with circuit breaking so a failing
// provider degrades retrieval instead of stalling it.
type CircuitBreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// NewCircuitBreakerClient creates a new circuit breaker client.
func NewCircuitBreakerClient(client Client, cfg config.CircuitBreakerConfig, alerter alert.Alerter, name string) *CircuitBreakerClient {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen && alerter != nil {
				msg := fmt.Sprintf("Circuit breaker %q changed state from %s to %s. Too many failures detected.", name, from, to)
				_ = alerter.Alert(fmt.Sprintf("URGENT: Circuit Breaker Tripped - %s", name), msg)
			}
		},
	}

	return &CircuitBreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

// Chat implements Client.
func (c *CircuitBreakerClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Chat(ctx, messages)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Response), nil
}

// ChatStream implements Client. The breaker guards stream establishment;
// failures mid-stream count against the next request.
func (c *CircuitBreakerClient) ChatStream(ctx context.Context, messages []Message) (<-chan StreamDelta, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.ChatStream(ctx, messages)
	})
	if err != nil {
		return nil, err
	}
	return result.(<-chan StreamDelta), nil
}

// Close implements Client.
func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}

var _ Client = (*CircuitBreakerClient)(nil)
