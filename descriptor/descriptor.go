// Package descriptor turns a connection configuration into a validated,
// topology-correct model.Descriptor.
//
// Build checks, in order, the fields the topology requires, the numeric ranges
// and the cross-field rules, and stops at the first violation. Fields the
// topology forbids are ignored rather than rejected. Build performs no I/O.
package descriptor

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/TykTechnologies/keyscope/internal/helper"
	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("field")
	})
}

// ranges carries the numeric fields checked by the validator.
type ranges struct {
	Port     int           `field:"port" validate:"gte=0,lte=65535"`
	Database int           `field:"database" validate:"gte=0"`
	Timeout  time.Duration `field:"timeout" validate:"gte=0"`
}

// Build validates cfg and returns its descriptor.
func Build(cfg *model.ConnectionConfig) (model.Descriptor, error) {
	if cfg == nil {
		return model.Descriptor{}, invalid(model.FieldTopology, "configuration is missing")
	}

	v := cfg.Values()
	if _, known := model.ParseTopology(v.Topology.String()); !known {
		return model.Descriptor{}, invalid(model.FieldTopology, fmt.Sprintf("unknown topology %d", v.Topology))
	}

	rules := model.RulesFor(v.Topology)

	if err := checkRequired(v, rules); err != nil {
		return model.Descriptor{}, err
	}

	if err := checkRanges(v, rules); err != nil {
		return model.Descriptor{}, err
	}

	desc := model.Descriptor{
		Topology:   v.Topology,
		Network:    model.NetworkTCP,
		Database:   v.Database,
		ClientName: strings.TrimSpace(v.ClientName),
		Auth:       resolveAuth(v),
		// TLS flags are applied for every topology, unix sockets included.
		TLS: model.TLS{
			Enabled:    v.TLSEnabled,
			VerifyPeer: v.VerifyPeer,
			StartTLS:   v.StartTLS,
		},
		Timeout: v.Timeout,
	}

	if !v.Topology.IsNetwork() {
		desc.Network = model.NetworkUnix
		desc.Addrs = []string{strings.TrimSpace(v.SocketPath)}

		return desc, nil
	}

	switch v.Topology {
	case model.Sentinel:
		desc.MasterName = strings.TrimSpace(v.SentinelMasterID)
		desc.Addrs = helper.GetRedisAddrs(v.Host, v.Port, v.ExtraNodes)
	case model.Cluster:
		desc.Addrs = helper.GetRedisAddrs(v.Host, v.Port, v.ExtraNodes)
	default:
		desc.Addrs = helper.GetRedisAddrs(v.Host, v.Port, nil)
	}

	return desc, nil
}

// Validate reports the first rule cfg violates, or nil.
func Validate(cfg *model.ConnectionConfig) error {
	_, err := Build(cfg)
	return err
}

func checkRequired(v model.Values, rules model.Rules) error {
	for _, f := range rules.Required {
		if !present(v, f) {
			return invalid(f, "is required for "+rules.Topology.String())
		}
	}

	for f, trigger := range rules.Conditional {
		if present(v, trigger) && !present(v, f) {
			return invalid(f, fmt.Sprintf("is required when %s is set", trigger))
		}
	}

	if rules.IsForbidden(model.FieldNodes) {
		return nil
	}

	for i, n := range v.ExtraNodes {
		if strings.TrimSpace(n.Host) == "" {
			return invalid(model.FieldNodes, fmt.Sprintf("node %d: host is required", i+1))
		}
	}

	return nil
}

func present(v model.Values, f model.Field) bool {
	switch f {
	case model.FieldHost:
		return strings.TrimSpace(v.Host) != ""
	case model.FieldSocket:
		return strings.TrimSpace(v.SocketPath) != ""
	case model.FieldSentinelMasterID:
		return strings.TrimSpace(v.SentinelMasterID) != ""
	case model.FieldNodes:
		return len(v.ExtraNodes) > 0
	case model.FieldPort:
		// numeric fields always carry a value; their range is checked separately
		return true
	default:
		return false
	}
}

func checkRanges(v model.Values, rules model.Rules) error {
	r := ranges{Database: v.Database, Timeout: v.Timeout}
	if !rules.IsForbidden(model.FieldPort) {
		r.Port = v.Port
	}

	if err := validate.Struct(r); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return invalid(model.Field(e.Field()), reason(e.Tag(), e.Param()))
		}

		return invalid(model.FieldPort, err.Error())
	}

	if rules.IsForbidden(model.FieldNodes) {
		return nil
	}

	for i, n := range v.ExtraNodes {
		if err := validate.Var(n.Port, "gte=0,lte=65535"); err != nil {
			return invalid(model.FieldNodes, fmt.Sprintf("node %d: port must be between 0 and 65535", i+1))
		}
	}

	return nil
}

func reason(tag, param string) string {
	switch tag {
	case "gte":
		return "must be at least " + param
	case "lte":
		return "must be at most " + param
	default:
		return "failed " + tag
	}
}

// resolveAuth picks the authentication mode: username and password when both
// are set, password only when the username is empty, none without a password.
func resolveAuth(v model.Values) model.Auth {
	if len(v.Password) == 0 {
		return model.Auth{Mode: model.AuthNone}
	}

	password := append([]byte(nil), v.Password...)

	if strings.TrimSpace(v.Username) == "" {
		return model.Auth{Mode: model.AuthPassword, Password: password}
	}

	return model.Auth{
		Mode:     model.AuthUserPassword,
		Username: strings.TrimSpace(v.Username),
		Password: password,
	}
}

func invalid(f model.Field, why string) error {
	return &keyerr.ValidationError{Field: string(f), Reason: why}
}
