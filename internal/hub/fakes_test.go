package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"wisefido-vitals-hub/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	id string

	mu      sync.Mutex
	open    bool
	full    bool
	sent    [][]byte
	pings   int
	closes  int
	pingErr error
	onPing  func()
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, open: true}
}

func (c *fakeConn) ID() string { return c.id }
func (c *fakeConn) RemoteAddr() string { return "test:" + c.id }

func (c *fakeConn) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || c.full {
		return false
	}
	c.sent = append(c.sent, data)
	return true
}

func (c *fakeConn) Ping() error {
	c.mu.Lock()
	c.pings++
	err, onPing := c.pingErr, c.onPing
	c.mu.Unlock()
	if onPing != nil {
		onPing()
	}
	return err
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.closes++
	return nil
}

func (c *fakeConn) messages(t *testing.T) []map[string]interface{} {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(c.sent))
	for _, raw := range c.sent {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}

func (c *fakeConn) counts() (pings, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings, c.closes
}

type fakePersister struct {
	mu       sync.Mutex
	readings []models.Reading
}

func (p *fakePersister) Persist(r models.Reading) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readings = append(p.readings, r)
}

func (p *fakePersister) all() []models.Reading {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Reading(nil), p.readings...)
}

type fakeSink struct {
	mu        sync.Mutex
	snapshots []models.ReadingSnapshot
}

func (s *fakeSink) Publish(snap models.ReadingSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

type fakeVerifier map[string]models.Identity

func (v fakeVerifier) Verify(_ context.Context, token string) (models.Identity, error) {
	id, ok := v[token]
	if !ok {
		return models.Identity{}, errors.New("invalid token")
	}
	return id, nil
}

type testHub struct {
	*Hub
	persister *fakePersister
	sink      *fakeSink
}

func newTestHub(t *testing.T) *testHub {
	t.Helper()
	return newTestHubWithPing(t, time.Hour)
}

// newTestHubWithPing runs liveness sweeps every pingInterval.
func newTestHubWithPing(t *testing.T, pingInterval time.Duration) *testHub {
	t.Helper()
	persister := &fakePersister{}
	sink := &fakeSink{}
	verifier := fakeVerifier{
		"good-token":  {UserID: "42", Username: "maria"},
		"other-token": {UserID: "7", Username: "juan"},
	}
	h := New(Options{PingInterval: pingInterval, StatusInterval: time.Hour}, verifier, persister, sink, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return &testHub{Hub: h, persister: persister, sink: sink}
}

// stats doubles as a barrier: every event queued before it has been handled.
func (th *testHub) stats(t *testing.T) models.HubStats {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := th.Stats(ctx)
	require.NoError(t, err)
	return s
}

func (th *testHub) send(conn Conn, msg string) {
	th.Receive(context.Background(), conn, []byte(msg))
}
