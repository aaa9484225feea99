// Package codec converts connection configurations to and from their flat
// key=value persisted form. Decoding never fails: unknown keys are ignored and
// missing or malformed values fall back to the defaults.
package codec

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/TykTechnologies/keyscope/model"
)

const (
	sealedPrefix   = "sealed:"
	plainPrefix    = "plain:"
	nodesSeparator = ";"

	// legacyStandaloneSSL is an older topology name meaning standalone over TLS.
	legacyStandaloneSSL = "STANDALONE_SSL"
)

// Keys lists every persisted key in the order they are written.
var Keys = []model.Field{
	model.FieldTopology,
	model.FieldHost,
	model.FieldSocket,
	model.FieldSentinelMasterID,
	model.FieldClientName,
	model.FieldUsername,
	model.FieldPassword,
	model.FieldPort,
	model.FieldDatabase,
	model.FieldTLS,
	model.FieldVerifyPeer,
	model.FieldStartTLS,
	model.FieldTimeout,
	model.FieldNodes,
}

// Encode returns the persisted form of cfg. Every key is written, so that empty
// values survive a round trip. With model.WithSealer the password is sealed.
func Encode(cfg *model.ConnectionConfig, options ...model.Option) (map[string]string, error) {
	bcfg := model.NewBaseConfig(options...)
	v := cfg.Values()

	password, err := encodePassword(v.Password, bcfg.Sealer)
	if err != nil {
		return nil, err
	}

	nodes := make([]string, 0, len(v.ExtraNodes))
	for _, n := range v.ExtraNodes {
		nodes = append(nodes, n.String())
	}

	return map[string]string{
		string(model.FieldTopology):         v.Topology.String(),
		string(model.FieldHost):             v.Host,
		string(model.FieldSocket):           v.SocketPath,
		string(model.FieldSentinelMasterID): v.SentinelMasterID,
		string(model.FieldClientName):       v.ClientName,
		string(model.FieldUsername):         v.Username,
		string(model.FieldPassword):         password,
		string(model.FieldPort):             strconv.Itoa(v.Port),
		string(model.FieldDatabase):         strconv.Itoa(v.Database),
		string(model.FieldTLS):              strconv.FormatBool(v.TLSEnabled),
		string(model.FieldVerifyPeer):       strconv.FormatBool(v.VerifyPeer),
		string(model.FieldStartTLS):         strconv.FormatBool(v.StartTLS),
		string(model.FieldTimeout):          strconv.FormatInt(int64(v.Timeout/time.Second), 10),
		string(model.FieldNodes):            strings.Join(nodes, nodesSeparator),
	}, nil
}

func encodePassword(password []byte, sealer model.Sealer) (string, error) {
	if len(password) == 0 {
		return "", nil
	}

	if sealer == nil {
		// a clear-text value must not be mistaken for a marked one on decode
		if strings.HasPrefix(string(password), sealedPrefix) || strings.HasPrefix(string(password), plainPrefix) {
			return plainPrefix + string(password), nil
		}

		return string(password), nil
	}

	sealed, err := sealer.Seal(password)
	if err != nil {
		return "", fmt.Errorf("seal password: %w", err)
	}

	return sealedPrefix + sealed, nil
}

// Decode builds a configuration from its persisted form.
func Decode(m map[string]string, options ...model.Option) *model.ConnectionConfig {
	bcfg := model.NewBaseConfig(options...)
	d := decoder{m: m, log: bcfg.Logger}
	defaults := model.DefaultValues()

	v := defaults
	v.Topology = d.topology()
	v.Host = d.str(model.FieldHost, defaults.Host)
	v.SocketPath = d.str(model.FieldSocket, "")
	v.SentinelMasterID = d.str(model.FieldSentinelMasterID, "")
	v.ClientName = d.str(model.FieldClientName, "")
	v.Username = d.str(model.FieldUsername, "")
	v.Password = d.password(bcfg.Sealer)
	v.Port = d.integer(model.FieldPort, defaults.Port, 0, 65535)
	v.Database = d.integer(model.FieldDatabase, defaults.Database, 0, -1)
	v.TLSEnabled = d.boolean(model.FieldTLS, d.legacySSL)
	v.VerifyPeer = d.boolean(model.FieldVerifyPeer, defaults.VerifyPeer)
	v.StartTLS = d.boolean(model.FieldStartTLS, defaults.StartTLS)
	v.Timeout = time.Duration(d.integer(model.FieldTimeout, int(defaults.Timeout/time.Second), 0, -1)) * time.Second
	v.ExtraNodes = d.nodes()

	d.reportUnknown()

	return model.NewConnectionConfigFromValues(v)
}

type decoder struct {
	m         map[string]string
	log       *zap.Logger
	legacySSL bool
}

func (d *decoder) lookup(f model.Field) (string, bool) {
	value, ok := d.m[string(f)]
	return value, ok
}

func (d *decoder) str(f model.Field, fallback string) string {
	value, ok := d.lookup(f)
	if !ok {
		return fallback
	}

	return value
}

func (d *decoder) topology() model.Topology {
	value, ok := d.lookup(model.FieldTopology)
	if !ok {
		return model.Standalone
	}

	if strings.EqualFold(strings.TrimSpace(value), legacyStandaloneSSL) {
		d.legacySSL = true
		return model.Standalone
	}

	t, known := model.ParseTopology(value)
	if !known {
		d.log.Warn("unknown connection type, using standalone", zap.String("value", value))
	}

	return t
}

// integer parses f, falling back when it is absent, malformed or outside
// [lower, upper]. A negative upper means unbounded.
func (d *decoder) integer(f model.Field, fallback, lower, upper int) int {
	value, ok := d.lookup(f)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < lower || (upper >= 0 && n > upper) {
		d.log.Warn("malformed value, using default",
			zap.String("key", string(f)), zap.String("value", value), zap.Int("default", fallback))
		return fallback
	}

	return n
}

func (d *decoder) boolean(f model.Field, fallback bool) bool {
	value, ok := d.lookup(f)
	if !ok {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}

	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		d.log.Warn("malformed flag, using default", zap.String("key", string(f)), zap.String("value", value))
		return fallback
	}

	return b
}

func (d *decoder) password(sealer model.Sealer) []byte {
	value, ok := d.lookup(model.FieldPassword)
	if !ok || value == "" {
		return nil
	}

	if strings.HasPrefix(value, plainPrefix) {
		return []byte(strings.TrimPrefix(value, plainPrefix))
	}

	if !strings.HasPrefix(value, sealedPrefix) {
		return []byte(value)
	}

	if sealer == nil {
		d.log.Warn("sealed password found but no sealer configured, password dropped")
		return nil
	}

	plain, err := sealer.Open(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		d.log.Warn("cannot open sealed password, password dropped", zap.Error(err))
		return nil
	}

	return plain
}

func (d *decoder) nodes() []model.Node {
	value, ok := d.lookup(model.FieldNodes)
	if !ok {
		return nil
	}

	var nodes []model.Node
	for _, entry := range strings.Split(value, nodesSeparator) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		host, portStr, err := net.SplitHostPort(entry)
		if err != nil {
			d.log.Warn("skipping malformed node", zap.String("node", entry), zap.Error(err))
			continue
		}

		port, err := strconv.Atoi(portStr)
		if err != nil || port < 0 || port > 65535 {
			d.log.Warn("skipping node with malformed port", zap.String("node", entry))
			continue
		}

		nodes = append(nodes, model.Node{Host: host, Port: port})
	}

	return nodes
}

func (d *decoder) reportUnknown() {
	keys := maps.Keys(d.m)
	slices.Sort(keys)

	for _, k := range keys {
		if !slices.Contains(Keys, model.Field(k)) {
			d.log.Debug("ignoring unknown key", zap.String("key", k))
		}
	}
}
