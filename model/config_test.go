package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConnectionConfig_Defaults(t *testing.T) {
	cfg := NewConnectionConfig()

	assert.Equal(t, Values{
		Topology:   Standalone,
		Host:       "localhost",
		Port:       6379,
		VerifyPeer: true,
		Timeout:    60 * time.Second,
	}, cfg.Values())
}

func TestConnectionConfig_Subscribe(t *testing.T) {
	cfg := NewConnectionConfig()

	var changed []Field
	unsubscribe := cfg.Subscribe(func(f Field) {
		changed = append(changed, f)
	})

	cfg.SetHost("redis.internal")
	cfg.SetHost("redis.internal") // unchanged, no event
	cfg.SetPort(6380)
	cfg.SetTopology(Sentinel)
	cfg.SetPassword([]byte("secret"))
	cfg.SetPassword([]byte("secret"))
	cfg.AddExtraNode(Node{Host: "10.0.0.2", Port: 26379})
	cfg.SetTimeout(1500 * time.Millisecond)

	assert.Equal(t, []Field{
		FieldHost, FieldPort, FieldTopology, FieldPassword, FieldNodes, FieldTimeout,
	}, changed)

	unsubscribe()
	cfg.SetDatabase(3)
	assert.Len(t, changed, 6)
	assert.Equal(t, time.Second, cfg.Values().Timeout)
}

func TestConnectionConfig_MultipleObservers(t *testing.T) {
	cfg := NewConnectionConfig()

	var a, b int
	unsubA := cfg.Subscribe(func(Field) { a++ })
	cfg.Subscribe(func(Field) { b++ })

	cfg.SetClientName("browser")
	unsubA()
	cfg.SetUsername("admin")

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestConnectionConfig_ValuesAreCopies(t *testing.T) {
	cfg := NewConnectionConfig()
	cfg.SetPassword([]byte("secret"))
	cfg.SetExtraNodes([]Node{{Host: "a", Port: 1}})

	v := cfg.Values()
	v.Password[0] = 'X'
	v.ExtraNodes[0].Host = "changed"

	assert.Equal(t, []byte("secret"), cfg.Values().Password)
	assert.Equal(t, "a", cfg.Values().ExtraNodes[0].Host)
}

func TestConnectionConfig_EmptyValuesNormalised(t *testing.T) {
	cfg := NewConnectionConfigFromValues(Values{Password: []byte{}, ExtraNodes: nil})

	assert.Nil(t, cfg.Values().Password)

	cfg.SetExtraNodes([]Node{{Host: "a", Port: 1}})
	cfg.SetExtraNodes([]Node{})
	assert.Nil(t, cfg.Values().ExtraNodes)
}

func TestNode_String(t *testing.T) {
	assert.Equal(t, "10.0.0.1:6379", Node{Host: "10.0.0.1", Port: 6379}.String())
	assert.Equal(t, "[::1]:6379", Node{Host: "::1", Port: 6379}.String())
}

func TestParseTopology(t *testing.T) {
	tcs := []struct {
		name     string
		given    string
		expected Topology
		ok       bool
	}{
		{name: "standalone", given: "STANDALONE", expected: Standalone, ok: true},
		{name: "unix_lowercase", given: "unix_socket", expected: UnixSocket, ok: true},
		{name: "sentinel_spaces", given: " SENTINEL ", expected: Sentinel, ok: true},
		{name: "cluster", given: "CLUSTER", expected: Cluster, ok: true},
		{name: "unknown", given: "MESH", expected: Standalone, ok: false},
		{name: "empty", given: "", expected: Standalone, ok: false},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseTopology(tc.given)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, tc.ok, ok)
		})
	}

	for _, topology := range Topologies() {
		got, ok := ParseTopology(topology.String())
		assert.True(t, ok)
		assert.Equal(t, topology, got)
	}
}

func TestTopology_IsNetwork(t *testing.T) {
	assert.True(t, Standalone.IsNetwork())
	assert.True(t, Sentinel.IsNetwork())
	assert.True(t, Cluster.IsNetwork())
	assert.False(t, UnixSocket.IsNetwork())
}

func TestRulesFor(t *testing.T) {
	standalone := RulesFor(Standalone)
	assert.True(t, standalone.IsRequired(FieldHost))
	assert.True(t, standalone.IsForbidden(FieldSocket))
	assert.True(t, standalone.IsForbidden(FieldNodes))
	assert.False(t, standalone.IsForbidden(FieldTLS))

	unix := RulesFor(UnixSocket)
	assert.True(t, unix.IsRequired(FieldSocket))
	assert.True(t, unix.IsForbidden(FieldHost))
	assert.True(t, unix.IsForbidden(FieldVerifyPeer))
	assert.NotContains(t, unix.Visible(), FieldPort)
	assert.Contains(t, unix.Visible(), FieldPassword)

	sentinel := RulesFor(Sentinel)
	assert.Equal(t, FieldNodes, sentinel.Conditional[FieldSentinelMasterID])
	assert.Contains(t, sentinel.Visible(), FieldSentinelMasterID)

	cluster := RulesFor(Cluster)
	assert.True(t, cluster.IsForbidden(FieldSentinelMasterID))
	assert.Contains(t, cluster.Visible(), FieldNodes)

	assert.Equal(t, Standalone, RulesFor(Topology(42)).Topology)
}
