package hub

import (
	"testing"
	"time"

	"wisefido-vitals-hub/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBroadcaster_Broadcast(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	r := NewRegistry()

	open := newFakeConn("open")
	closed := newFakeConn("closed")
	full := newFakeConn("full")
	_ = closed.Close()
	full.full = true
	for _, c := range []*fakeConn{open, closed, full} {
		r.RegisterObserver(r.Track(c, time.Now()))
	}

	n := b.Broadcast(r.Observers(), models.NewDeviceStatusEvent("pulso", models.StatusConnected, "d1"))
	assert.Equal(t, 1, n)
	assert.Len(t, open.messages(t), 1)
	assert.Empty(t, closed.messages(t))
	assert.Empty(t, full.messages(t))
}

func TestBroadcaster_NoObservers(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	assert.Equal(t, 0, b.Broadcast(nil, models.NewDevicesStatusEvent(true, false)))
}

func TestBroadcaster_UnmarshalableEvent(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	r := NewRegistry()
	conn := newFakeConn("c")
	cl := r.Track(conn, time.Now())

	assert.False(t, b.Unicast(cl, map[string]interface{}{"bad": make(chan int)}))
	assert.Empty(t, conn.messages(t))
}
