package hub

import (
	"sort"
	"time"

	"wisefido-vitals-hub/internal/models"
)

// Role is fixed by the first classification message on a connection.
type Role int

const (
	RoleUnclassified Role = iota
	RoleDevice
	RoleObserver
)

func (r Role) String() string {
	switch r {
	case RoleDevice:
		return "device"
	case RoleObserver:
		return "web-client"
	default:
		return "unclassified"
	}
}

type client struct {
	conn        Conn
	role        Role
	deviceType  string
	deviceClass models.DeviceClass
	deviceID    string
	connectedAt time.Time

	// liveness
	alive      bool
	terminated bool
}

// Registry 当前连接的设备与观察者集合，只能由 hub 工作协程访问
type Registry struct {
	clients   map[string]*client // connID -> client（包含未分类连接）
	devices   map[string]*client // deviceID -> client
	observers map[string]*client // connID -> client
}

func NewRegistry() *Registry {
	return &Registry{
		clients:   make(map[string]*client),
		devices:   make(map[string]*client),
		observers: make(map[string]*client),
	}
}

// Track starts tracking conn; tracking an already known connection returns its entry.
func (r *Registry) Track(conn Conn, now time.Time) *client {
	if cl, ok := r.clients[conn.ID()]; ok {
		return cl
	}
	cl := &client{conn: conn, connectedAt: now, alive: true}
	r.clients[conn.ID()] = cl
	return cl
}

func (r *Registry) Get(connID string) (*client, bool) {
	cl, ok := r.clients[connID]
	return cl, ok
}

// RegisterDevice classifies cl as a device. An existing entry with the same
// deviceID is overwritten and returned.
func (r *Registry) RegisterDevice(cl *client, deviceType, deviceID string) *client {
	cl.role = RoleDevice
	cl.deviceType = deviceType
	cl.deviceClass = models.ParseDeviceClass(deviceType)
	cl.deviceID = deviceID

	prev := r.devices[deviceID]
	r.devices[deviceID] = cl
	if prev == cl {
		return nil
	}
	return prev
}

// RegisterObserver classifies cl as a web client.
func (r *Registry) RegisterObserver(cl *client) {
	cl.role = RoleObserver
	r.observers[cl.conn.ID()] = cl
}

// Unregister removes the connection. A device entry is only removed while it is
// still owned by this connection.
func (r *Registry) Unregister(connID string) (*client, bool) {
	cl, ok := r.clients[connID]
	if !ok {
		return nil, false
	}
	delete(r.clients, connID)

	switch cl.role {
	case RoleDevice:
		if r.devices[cl.deviceID] == cl {
			delete(r.devices, cl.deviceID)
		}
	case RoleObserver:
		delete(r.observers, connID)
	}
	return cl, true
}

// ClassConnected reports whether any registered device belongs to class.
func (r *Registry) ClassConnected(class models.DeviceClass) bool {
	for _, d := range r.devices {
		if d.deviceClass == class {
			return true
		}
	}
	return false
}

func (r *Registry) Observers() []*client {
	out := make([]*client, 0, len(r.observers))
	for _, cl := range r.observers {
		out = append(out, cl)
	}
	return out
}

func (r *Registry) ObserverCount() int {
	return len(r.observers)
}

func (r *Registry) ConnectionCount() int {
	return len(r.clients)
}

func (r *Registry) Clients() []*client {
	out := make([]*client, 0, len(r.clients))
	for _, cl := range r.clients {
		out = append(out, cl)
	}
	return out
}

// Devices lists the registered devices ordered by deviceID.
func (r *Registry) Devices() []models.DeviceInfo {
	out := make([]models.DeviceInfo, 0, len(r.devices))
	for id, d := range r.devices {
		out = append(out, models.DeviceInfo{
			DeviceID:    id,
			DeviceType:  d.deviceType,
			ConnectedAt: d.connectedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}
