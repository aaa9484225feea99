package model

import (
	"bytes"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// AuthMode is how a connection authenticates.
type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthPassword
	AuthUserPassword
)

func (m AuthMode) String() string {
	switch m {
	case AuthPassword:
		return "password"
	case AuthUserPassword:
		return "username+password"
	default:
		return "none"
	}
}

// Auth holds resolved credentials.
type Auth struct {
	Mode     AuthMode
	Username string
	Password []byte
}

// TLS holds the transport security flags.
type TLS struct {
	Enabled    bool
	VerifyPeer bool
	StartTLS   bool
}

const (
	NetworkTCP  = "tcp"
	NetworkUnix = "unix"
)

// Descriptor is a validated, topology-correct connection target.
// Descriptors are produced by descriptor.Build and must be treated as read-only.
type Descriptor struct {
	Topology Topology
	// Network is NetworkTCP or NetworkUnix.
	Network string
	// Addrs holds the primary address first, then the extra nodes.
	// For unix sockets it holds the socket path.
	Addrs      []string
	MasterName string
	Database   int
	ClientName string
	Auth       Auth
	TLS        TLS
	Timeout    time.Duration
}

// Equal reports whether two descriptors designate the same target with the same settings.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Topology == o.Topology &&
		d.Network == o.Network &&
		slices.Equal(d.Addrs, o.Addrs) &&
		d.MasterName == o.MasterName &&
		d.Database == o.Database &&
		d.ClientName == o.ClientName &&
		d.Auth.Mode == o.Auth.Mode &&
		d.Auth.Username == o.Auth.Username &&
		bytes.Equal(d.Auth.Password, o.Auth.Password) &&
		d.TLS == o.TLS &&
		d.Timeout == o.Timeout
}

// Primary returns the first address, or "" when there is none.
func (d Descriptor) Primary() string {
	if len(d.Addrs) == 0 {
		return ""
	}

	return d.Addrs[0]
}

// String renders the descriptor as a URI for previews. The password is redacted.
func (d Descriptor) String() string {
	scheme := "redis"
	switch d.Topology {
	case UnixSocket:
		scheme = "redis-socket"
	case Sentinel:
		scheme = "redis-sentinel"
	case Cluster:
		scheme = "redis-cluster"
	}

	if d.TLS.Enabled {
		scheme += "s"
	}

	var user string
	switch d.Auth.Mode {
	case AuthUserPassword:
		user = url.User(d.Auth.Username).String() + ":***@"
	case AuthPassword:
		user = ":***@"
	}

	q := url.Values{}
	if d.MasterName != "" {
		q.Set("master", d.MasterName)
	}
	if d.ClientName != "" {
		q.Set("client", d.ClientName)
	}
	if d.Timeout > 0 {
		q.Set("timeout", d.Timeout.String())
	}
	if d.TLS.Enabled && !d.TLS.VerifyPeer {
		q.Set("verify", "false")
	}

	var b strings.Builder
	b.WriteString(scheme + "://" + user)

	if d.Network == NetworkUnix {
		q.Set("db", fmt.Sprint(d.Database))
		b.WriteString(d.Primary())
	} else {
		b.WriteString(strings.Join(d.Addrs, ","))
		fmt.Fprintf(&b, "/%d", d.Database)
	}

	if len(q) > 0 {
		b.WriteString("?" + q.Encode())
	}

	return b.String()
}
