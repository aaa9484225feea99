package model

// Field names a connection configuration field. The same names are used as
// persisted keys, in validation errors and in change notifications.
type Field string

const (
	FieldTopology         Field = "connectionType"
	FieldHost             Field = "host"
	FieldPort             Field = "port"
	FieldSocket           Field = "socket"
	FieldSentinelMasterID Field = "sentinelMasterId"
	FieldNodes            Field = "nodes"
	FieldDatabase         Field = "database"
	FieldClientName       Field = "clientName"
	FieldUsername         Field = "username"
	FieldPassword         Field = "password"
	FieldTLS              Field = "ssl"
	FieldVerifyPeer       Field = "verifyPeer"
	FieldStartTLS         Field = "startTls"
	FieldTimeout          Field = "timeout"
)

// Rules is the field matrix of one topology.
type Rules struct {
	Topology Topology
	// Required fields must be present for the descriptor to build.
	Required []Field
	// Forbidden fields are not read by the topology.
	Forbidden []Field
	// Conditional maps a field to the field whose presence makes it required.
	Conditional map[Field]Field
}

var (
	tlsFields    = []Field{FieldTLS, FieldVerifyPeer, FieldStartTLS}
	commonFields = []Field{FieldUsername, FieldPassword, FieldDatabase, FieldClientName, FieldTimeout}
)

var rulesByTopology = map[Topology]func() Rules{
	Standalone: standaloneRules,
	UnixSocket: unixSocketRules,
	Sentinel:   sentinelRules,
	Cluster:    clusterRules,
}

func standaloneRules() Rules {
	return Rules{
		Topology:  Standalone,
		Required:  []Field{FieldHost, FieldPort},
		Forbidden: []Field{FieldSocket, FieldSentinelMasterID, FieldNodes},
	}
}

func unixSocketRules() Rules {
	forbidden := []Field{FieldHost, FieldPort, FieldSentinelMasterID, FieldNodes}

	return Rules{
		Topology:  UnixSocket,
		Required:  []Field{FieldSocket},
		Forbidden: append(forbidden, tlsFields...),
	}
}

func sentinelRules() Rules {
	return Rules{
		Topology:    Sentinel,
		Required:    []Field{FieldHost, FieldPort},
		Forbidden:   []Field{FieldSocket},
		Conditional: map[Field]Field{FieldSentinelMasterID: FieldNodes},
	}
}

func clusterRules() Rules {
	return Rules{
		Topology:  Cluster,
		Required:  []Field{FieldHost, FieldPort},
		Forbidden: []Field{FieldSocket, FieldSentinelMasterID},
	}
}

// RulesFor returns the field matrix of t. Unknown topologies get the standalone rules.
func RulesFor(t Topology) Rules {
	fn, ok := rulesByTopology[t]
	if !ok {
		fn = standaloneRules
	}

	return fn()
}

// IsRequired reports whether f is unconditionally required.
func (r Rules) IsRequired(f Field) bool {
	return containsField(r.Required, f)
}

// IsForbidden reports whether f is not read by the topology.
func (r Rules) IsForbidden(f Field) bool {
	return containsField(r.Forbidden, f)
}

// Visible returns the fields the topology reads, in presentation order.
func (r Rules) Visible() []Field {
	ordered := []Field{FieldHost, FieldPort, FieldSocket, FieldSentinelMasterID, FieldNodes}
	ordered = append(ordered, commonFields...)
	ordered = append(ordered, tlsFields...)

	visible := make([]Field, 0, len(ordered))
	for _, f := range ordered {
		if !r.IsForbidden(f) {
			visible = append(visible, f)
		}
	}

	return visible
}

func containsField(fields []Field, f Field) bool {
	for _, candidate := range fields {
		if candidate == f {
			return true
		}
	}

	return false
}
