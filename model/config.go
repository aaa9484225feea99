package model

import (
	"bytes"
	"net"
	"slices"
	"strconv"
	"sync"
	"time"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = 6379
	DefaultTimeout = 60 * time.Second
)

// Node is an additional sentinel or cluster node.
type Node struct {
	Host string
	Port int
}

// String returns the node as host:port.
func (n Node) String() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// Values is a snapshot of every field of a ConnectionConfig.
// Which fields are meaningful depends on the topology, see RulesFor.
type Values struct {
	Topology         Topology
	Host             string
	Port             int
	SocketPath       string
	SentinelMasterID string
	ExtraNodes       []Node
	Database         int
	ClientName       string
	Username         string
	Password         []byte
	TLSEnabled       bool
	VerifyPeer       bool
	StartTLS         bool
	Timeout          time.Duration
}

// DefaultValues returns the values of a fresh configuration.
func DefaultValues() Values {
	return Values{
		Topology:   Standalone,
		Host:       DefaultHost,
		Port:       DefaultPort,
		VerifyPeer: true,
		Timeout:    DefaultTimeout,
	}
}

func (v Values) clone() Values {
	if v.ExtraNodes != nil {
		v.ExtraNodes = slices.Clone(v.ExtraNodes)
	}

	if len(v.Password) == 0 {
		v.Password = nil
	} else {
		v.Password = bytes.Clone(v.Password)
	}

	v.Timeout = v.Timeout.Truncate(time.Second)

	return v
}

// ConnectionConfig is the mutable description of how to reach the service.
// It is changed only through its setters; every effective change is announced
// to the registered observers.
type ConnectionConfig struct {
	v Values

	mu        sync.Mutex
	nextID    int
	observers []observer
}

type observer struct {
	id int
	fn func(Field)
}

// NewConnectionConfig returns a configuration holding DefaultValues.
func NewConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{v: DefaultValues()}
}

// NewConnectionConfigFromValues returns a configuration holding a copy of v.
func NewConnectionConfigFromValues(v Values) *ConnectionConfig {
	return &ConnectionConfig{v: v.clone()}
}

// Values returns a copy of the current values.
func (c *ConnectionConfig) Values() Values {
	return c.v.clone()
}

// Topology returns the selected topology.
func (c *ConnectionConfig) Topology() Topology {
	return c.v.Topology
}

// Subscribe registers fn to be called with the changed field after every effective
// mutation. The returned func removes the registration.
func (c *ConnectionConfig) Subscribe(fn func(Field)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, observer{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.observers = slices.DeleteFunc(c.observers, func(o observer) bool {
			return o.id == id
		})
	}
}

func (c *ConnectionConfig) notify(f Field) {
	c.mu.Lock()
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, o := range observers {
		o.fn(f)
	}
}

func set[T comparable](c *ConnectionConfig, dst *T, value T, f Field) {
	if *dst == value {
		return
	}

	*dst = value
	c.notify(f)
}

func (c *ConnectionConfig) SetTopology(t Topology) { set(c, &c.v.Topology, t, FieldTopology) }

func (c *ConnectionConfig) SetHost(host string) { set(c, &c.v.Host, host, FieldHost) }

func (c *ConnectionConfig) SetPort(port int) { set(c, &c.v.Port, port, FieldPort) }

func (c *ConnectionConfig) SetSocketPath(path string) { set(c, &c.v.SocketPath, path, FieldSocket) }

func (c *ConnectionConfig) SetSentinelMasterID(id string) {
	set(c, &c.v.SentinelMasterID, id, FieldSentinelMasterID)
}

func (c *ConnectionConfig) SetDatabase(db int) { set(c, &c.v.Database, db, FieldDatabase) }

func (c *ConnectionConfig) SetClientName(name string) { set(c, &c.v.ClientName, name, FieldClientName) }

func (c *ConnectionConfig) SetUsername(username string) { set(c, &c.v.Username, username, FieldUsername) }

func (c *ConnectionConfig) SetTLSEnabled(enabled bool) { set(c, &c.v.TLSEnabled, enabled, FieldTLS) }

func (c *ConnectionConfig) SetVerifyPeer(verify bool) { set(c, &c.v.VerifyPeer, verify, FieldVerifyPeer) }

func (c *ConnectionConfig) SetStartTLS(startTLS bool) { set(c, &c.v.StartTLS, startTLS, FieldStartTLS) }

// SetTimeout sets the network timeout. It is kept at second granularity.
func (c *ConnectionConfig) SetTimeout(d time.Duration) {
	set(c, &c.v.Timeout, d.Truncate(time.Second), FieldTimeout)
}

// SetPassword stores a copy of password. An empty password clears it.
func (c *ConnectionConfig) SetPassword(password []byte) {
	if bytes.Equal(c.v.Password, password) {
		return
	}

	if len(password) == 0 {
		c.v.Password = nil
	} else {
		c.v.Password = bytes.Clone(password)
	}

	c.notify(FieldPassword)
}

// SetExtraNodes replaces the additional node list.
func (c *ConnectionConfig) SetExtraNodes(nodes []Node) {
	if slices.Equal(c.v.ExtraNodes, nodes) {
		return
	}

	if len(nodes) == 0 {
		c.v.ExtraNodes = nil
	} else {
		c.v.ExtraNodes = slices.Clone(nodes)
	}

	c.notify(FieldNodes)
}

// AddExtraNode appends one node to the additional node list.
func (c *ConnectionConfig) AddExtraNode(n Node) {
	c.v.ExtraNodes = append(c.v.ExtraNodes, n)
	c.notify(FieldNodes)
}
