package hub

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Broadcaster 将事件序列化一次后非阻塞地发送给观察者
type Broadcaster struct {
	logger *zap.Logger
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{logger: logger}
}

// Broadcast sends event to every observer and returns how many accepted it.
// Observers that are closed or whose buffer is full are skipped; removing
// them is left to the disconnect path.
func (b *Broadcaster) Broadcast(observers []*client, event interface{}) int {
	if len(observers) == 0 {
		return 0
	}
	data, ok := b.encode(event)
	if !ok {
		return 0
	}

	delivered := 0
	for _, obs := range observers {
		if obs.conn.Send(data) {
			delivered++
			continue
		}
		b.logger.Debug("Skipping observer not ready for write",
			zap.String("conn_id", obs.conn.ID()),
		)
	}
	return delivered
}

// Unicast sends event to a single connection.
func (b *Broadcaster) Unicast(cl *client, event interface{}) bool {
	data, ok := b.encode(event)
	if !ok {
		return false
	}
	if !cl.conn.Send(data) {
		b.logger.Debug("Unicast dropped", zap.String("conn_id", cl.conn.ID()))
		return false
	}
	return true
}

func (b *Broadcaster) encode(event interface{}) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Error marshaling event", zap.Error(err))
		return nil, false
	}
	return data, true
}
