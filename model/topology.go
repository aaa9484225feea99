package model

import "strings"

// Topology is the deployment shape of the service a connection points at.
type Topology int

const (
	Standalone Topology = iota
	UnixSocket
	Sentinel
	Cluster
)

var topologyNames = map[Topology]string{
	Standalone: "STANDALONE",
	UnixSocket: "UNIX_SOCKET",
	Sentinel:   "SENTINEL",
	Cluster:    "CLUSTER",
}

// Topologies lists every topology in presentation order.
func Topologies() []Topology {
	return []Topology{Standalone, UnixSocket, Sentinel, Cluster}
}

// String returns the persisted name of the topology.
func (t Topology) String() string {
	if name, ok := topologyNames[t]; ok {
		return name
	}

	return "UNKNOWN"
}

// IsNetwork reports whether the topology is reached over TCP with host and port.
func (t Topology) IsNetwork() bool {
	return t != UnixSocket
}

// ParseTopology resolves a persisted topology name, case-insensitively.
// The second return value is false when the name is not recognised.
func ParseTopology(name string) (Topology, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))

	for t, n := range topologyNames {
		if n == name {
			return t, true
		}
	}

	return Standalone, false
}
