// Package push maintains the real-time channel to the backend. The
// server emits a payment-approved frame whenever an admin or gateway
// confirms a payment for the registered tenant. The channel is a
// best-effort producer: the poll fallback keeps correctness whenever
// it is down, so every failure here is retried, never surfaced.
package push

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
	"github.com/kariuki-dev/tenant-payment-agent/internal/session"
)

// registerFrame is sent by the client after every connect. The server
// scopes the subscription to the registered tenant; re-registration is
// mandatory after every reconnect, not only the first.
type registerFrame struct {
	Event    string `json:"event"`
	TenantID string `json:"tenantId"`
}

// serverFrame is a message received from the backend.
type serverFrame struct {
	Event   string               `json:"event"`
	Payment *model.PaymentRecord `json:"payment,omitempty"`
}

// Subscriber owns one persistent subscription scoped to the tenant
// identity, reconnecting with capped exponential backoff.
type Subscriber struct {
	url        string
	sessions   session.Store
	onRecord   func(model.PaymentRecord)
	onStatus   func(connected bool)
	dialer     *websocket.Dialer
	reregister chan struct{}
}

// NewSubscriber creates a subscriber that delivers payment-approved
// records through onRecord and connection transitions through onStatus.
func NewSubscriber(url string, sessions session.Store, onRecord func(model.PaymentRecord), onStatus func(connected bool)) *Subscriber {
	return &Subscriber{
		url:        url,
		sessions:   sessions,
		onRecord:   onRecord,
		onStatus:   onStatus,
		dialer:     websocket.DefaultDialer,
		reregister: make(chan struct{}, 1),
	}
}

// Reregister drops the active connection so the next connect registers
// with the currently installed tenant identity. Called on a session
// change; safe at any time. With no connection up the signal is
// consumed by the next one, which has read the fresh session already,
// so at worst it costs one extra reconnect.
func (s *Subscriber) Reregister() {
	select {
	case s.reregister <- struct{}{}:
	default:
	}
}

// Run connects, registers, and consumes frames until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		conn, err := s.connect(ctx)
		if err != nil {
			// connect only fails permanently on cancellation
			return err
		}

		s.onStatus(true)
		s.readLoop(ctx, conn)
		s.onStatus(false)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// connect dials and registers with exponential backoff until it
// succeeds or ctx is cancelled. Registration happens inside the retry
// so a connection that dies before the register frame is acknowledged
// is re-registered on the next attempt.
func (s *Subscriber) connect(ctx context.Context) (*websocket.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second

	return backoff.Retry(ctx, func() (*websocket.Conn, error) {
		sess, err := s.sessions.Get()
		if err != nil {
			// no session yet; keep retrying until one is installed
			return nil, err
		}

		conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, err
		}

		if err := conn.WriteJSON(registerFrame{Event: "register", TenantID: sess.TenantID}); err != nil {
			conn.Close()
			return nil, err
		}

		return conn, nil
	}, backoff.WithBackOff(b))
}

// readLoop consumes frames until the connection drops or ctx is
// cancelled. Frames other than payment-approved are ignored.
func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-s.reregister:
			log.Printf("push: tenant changed, re-registering")
			conn.Close()
		case <-done:
		}
	}()

	for {
		var frame serverFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() == nil {
				log.Printf("push: connection lost: %v", err)
			}
			conn.Close()
			return
		}

		if frame.Event == "payment-approved" && frame.Payment != nil {
			s.onRecord(*frame.Payment)
		}
	}
}
