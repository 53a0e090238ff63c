package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wisefido-vitals-hub/internal/models"

	"go.uber.org/zap"
)

// ReadingPersister accepts readings for asynchronous storage. Persist must not block.
type ReadingPersister interface {
	Persist(r models.Reading)
}

// SnapshotSink receives every snapshot change. Publish must not block.
type SnapshotSink interface {
	Publish(s models.ReadingSnapshot)
}

// Options 中心运行参数
type Options struct {
	PingInterval   time.Duration
	StatusInterval time.Duration
	VerifyTimeout  time.Duration
	EventBuffer    int
	Now            func() time.Time
}

func (o *Options) setDefaults() {
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.StatusInterval <= 0 {
		o.StatusInterval = 30 * time.Second
	}
	if o.VerifyTimeout <= 0 {
		o.VerifyTimeout = 5 * time.Second
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 256
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type (
	connectEvent    struct{ conn Conn }
	disconnectEvent struct{ conn Conn }
	pongEvent       struct{ conn Conn }
	messageEvent    struct {
		conn     Conn
		msg      *models.InboundMessage
		identity *models.Identity
	}
	statsQuery struct{ reply chan models.HubStats }
)

// Hub owns the registry, the reading snapshot and the active session. Every
// mutation happens on the goroutine running Run; transports talk to it through
// Connect, Receive, Pong and Disconnect.
type Hub struct {
	opts        Options
	logger      *zap.Logger
	registry    *Registry
	aggregator  *Aggregator
	session     *SessionGate
	broadcaster *Broadcaster
	persister   ReadingPersister
	sink        SnapshotSink

	events   chan interface{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a hub. persister and sink may be nil.
func New(opts Options, verifier TokenVerifier, persister ReadingPersister, sink SnapshotSink, logger *zap.Logger) *Hub {
	opts.setDefaults()
	return &Hub{
		opts:        opts,
		logger:      logger,
		registry:    NewRegistry(),
		aggregator:  NewAggregator(opts.Now),
		session:     NewSessionGate(verifier, opts.VerifyTimeout),
		broadcaster: NewBroadcaster(logger),
		persister:   persister,
		sink:        sink,
		events:      make(chan interface{}, opts.EventBuffer),
		done:        make(chan struct{}),
	}
}

// Run processes events and timers until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer h.stop()

	pingTicker := time.NewTicker(h.opts.PingInterval)
	defer pingTicker.Stop()
	statusTicker := time.NewTicker(h.opts.StatusInterval)
	defer statusTicker.Stop()

	h.logger.Info("Hub started",
		zap.Duration("ping_interval", h.opts.PingInterval),
		zap.Duration("status_interval", h.opts.StatusInterval),
	)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub stopped, closing connections",
				zap.Int("connections", h.registry.ConnectionCount()),
			)
			for _, cl := range h.registry.Clients() {
				_ = cl.conn.Close()
			}
			return nil
		case ev := <-h.events:
			h.handle(ev)
		case <-pingTicker.C:
			h.sweep()
		case <-statusTicker.C:
			h.logStatus()
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Connect starts tracking a new transport connection.
func (h *Hub) Connect(conn Conn) {
	h.enqueue(connectEvent{conn: conn})
}

// Receive parses one raw message from conn and queues it. Malformed payloads
// are logged and dropped. Tokens are verified here, on the caller's goroutine,
// so a slow verifier never stalls the hub; per-connection order is preserved
// because each transport calls Receive sequentially.
func (h *Hub) Receive(ctx context.Context, conn Conn, raw []byte) {
	msg, err := models.ParseInbound(raw)
	if err != nil {
		h.logger.Warn("Dropping malformed message",
			zap.String("conn_id", conn.ID()),
			zap.Int("size", len(raw)),
			zap.Error(err),
		)
		return
	}

	ev := messageEvent{conn: conn, msg: msg}
	if msg.Type == models.TypeWebClient && msg.Token != "" {
		id, err := h.session.Verify(ctx, msg.Token)
		if err != nil {
			h.logger.Warn("Web client token rejected, continuing unauthenticated",
				zap.String("conn_id", conn.ID()),
				zap.Error(err),
			)
		} else {
			ev.identity = &id
		}
	}
	h.enqueue(ev)
}

// Pong records a liveness acknowledgment.
func (h *Hub) Pong(conn Conn) {
	h.enqueue(pongEvent{conn: conn})
}

// Disconnect unregisters conn and reclaims the state it owned.
func (h *Hub) Disconnect(conn Conn) {
	h.enqueue(disconnectEvent{conn: conn})
}

// Stats returns the current registry, session and snapshot state.
func (h *Hub) Stats(ctx context.Context) (models.HubStats, error) {
	q := statsQuery{reply: make(chan models.HubStats, 1)}
	select {
	case h.events <- q:
	case <-h.done:
		return models.HubStats{}, ErrStopped
	case <-ctx.Done():
		return models.HubStats{}, ctx.Err()
	}
	select {
	case s := <-q.reply:
		return s, nil
	case <-h.done:
		return models.HubStats{}, ErrStopped
	case <-ctx.Done():
		return models.HubStats{}, ctx.Err()
	}
}

func (h *Hub) enqueue(ev interface{}) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) handle(ev interface{}) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Recovered from panic in hub event handler",
				zap.String("event", fmt.Sprintf("%T", ev)),
				zap.Any("panic", r),
			)
		}
	}()

	switch e := ev.(type) {
	case connectEvent:
		h.registry.Track(e.conn, h.opts.Now())
		h.logger.Info("New connection",
			zap.String("conn_id", e.conn.ID()),
			zap.String("remote_addr", e.conn.RemoteAddr()),
		)
	case messageEvent:
		h.handleMessage(e)
	case pongEvent:
		if cl, ok := h.registry.Get(e.conn.ID()); ok {
			cl.alive = true
		}
	case disconnectEvent:
		h.handleDisconnect(e.conn)
	case statsQuery:
		e.reply <- h.stats()
	default:
		h.logger.Error("Unknown hub event", zap.String("event", fmt.Sprintf("%T", ev)))
	}
}

func (h *Hub) handleMessage(e messageEvent) {
	cl := h.registry.Track(e.conn, h.opts.Now())

	switch e.msg.Type {
	case models.TypeDevice, models.TypeWebClient:
		if cl.role != RoleUnclassified {
			h.logger.Debug("Ignoring repeated classification",
				zap.String("conn_id", e.conn.ID()),
				zap.String("role", cl.role.String()),
				zap.String("type", e.msg.Type),
			)
			return
		}
		if e.msg.Type == models.TypeDevice {
			h.registerDevice(cl, e.msg)
		} else {
			h.registerObserver(cl, e.identity)
		}
	case models.TypeSensorData:
		h.handleSensorData(cl, e.msg.Report())
	}
}

func (h *Hub) registerDevice(cl *client, msg *models.InboundMessage) {
	deviceID := msg.DeviceID
	if deviceID == "" {
		deviceID = models.UnknownDeviceID
	}

	if prev := h.registry.RegisterDevice(cl, msg.DeviceType, deviceID); prev != nil {
		h.logger.Warn("Device ID registered again, replacing previous connection",
			zap.String("device_id", deviceID),
			zap.String("previous_conn_id", prev.conn.ID()),
			zap.String("conn_id", cl.conn.ID()),
		)
	}
	h.logger.Info("Device connected",
		zap.String("device_id", deviceID),
		zap.String("device_type", msg.DeviceType),
		zap.String("conn_id", cl.conn.ID()),
	)

	h.broadcaster.Broadcast(h.registry.Observers(),
		models.NewDeviceStatusEvent(msg.DeviceType, models.StatusConnected, deviceID))
}

func (h *Hub) registerObserver(cl *client, identity *models.Identity) {
	h.registry.RegisterObserver(cl)

	if identity != nil {
		h.session.Activate(*identity)
		h.logger.Info("Web client connected",
			zap.String("conn_id", cl.conn.ID()),
			zap.String("user_id", identity.UserID),
			zap.String("username", identity.Username),
		)
	} else {
		h.logger.Info("Web client connected (unauthenticated)", zap.String("conn_id", cl.conn.ID()))
	}

	h.broadcaster.Unicast(cl, models.NewDevicesStatusEvent(
		h.registry.ClassConnected(models.DeviceClassTemperature),
		h.registry.ClassConnected(models.DeviceClassPulse),
	))
	if snap := h.aggregator.Snapshot(); snap.HasData() {
		h.broadcaster.Unicast(cl, models.NewSensorDataEvent(snap))
	}
}

func (h *Hub) handleSensorData(cl *client, report models.SensorReport) {
	snap, hasNewData := h.aggregator.Apply(report)

	h.logger.Debug("Sensor data updated",
		zap.String("conn_id", cl.conn.ID()),
		zap.Bool("has_new_data", hasNewData),
		zap.Any("temperature", snap.Temperature),
		zap.Any("pulse", snap.Pulse),
		zap.Any("spo2", snap.SpO2),
	)

	if hasNewData {
		h.persist(cl, report, snap)
	}

	h.broadcaster.Broadcast(h.registry.Observers(), models.NewSensorDataEvent(snap))

	if hasNewData && h.sink != nil {
		h.sink.Publish(snap)
	}
}

// persist hands the full snapshot to the persister when a user is active.
func (h *Hub) persist(cl *client, report models.SensorReport, snap models.ReadingSnapshot) {
	user, ok := h.session.Active()
	if !ok {
		h.logger.Debug("No active user, reading not persisted")
		return
	}
	if h.persister == nil {
		return
	}

	deviceID := report.DeviceID
	if deviceID == "" {
		deviceID = cl.deviceID
	}
	if deviceID == "" {
		deviceID = models.UnknownDeviceID
	}

	h.persister.Persist(models.Reading{
		UserID:      user.UserID,
		HeartRate:   snap.Pulse,
		SpO2:        snap.SpO2,
		Temperature: snap.Temperature,
		DeviceID:    deviceID,
		RecordedAt:  snap.UpdatedAt,
	})
}

func (h *Hub) handleDisconnect(conn Conn) {
	cl, ok := h.registry.Unregister(conn.ID())
	if !ok {
		return
	}

	switch cl.role {
	case RoleDevice:
		snap, cleared := h.aggregator.Clear(cl.deviceClass)
		h.logger.Info("Device disconnected",
			zap.String("device_id", cl.deviceID),
			zap.String("device_type", cl.deviceType),
			zap.Bool("snapshot_cleared", cleared),
		)
		h.broadcaster.Broadcast(h.registry.Observers(),
			models.NewDeviceStatusEvent(cl.deviceType, models.StatusDisconnected, cl.deviceID))
		if cleared && h.sink != nil {
			h.sink.Publish(snap)
		}
	case RoleObserver:
		h.logger.Info("Web client disconnected",
			zap.String("conn_id", conn.ID()),
			zap.Int("observers", h.registry.ObserverCount()),
		)
		if h.session.DeactivateIfEmpty(h.registry.ObserverCount()) {
			h.logger.Info("No web clients left, active user cleared")
		}
	default:
		h.logger.Info("Connection closed", zap.String("conn_id", conn.ID()))
	}
}
