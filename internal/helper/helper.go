package helper

import (
	"crypto/tls"
	"net"
	"strconv"
	"strings"

	"github.com/TykTechnologies/keyscope/model"
)

// GetRedisAddrs returns the primary host:port followed by every extra node.
func GetRedisAddrs(host string, port int, nodes []model.Node) (addrs []string) {
	addrs = make([]string, 0, len(nodes)+1)
	addrs = append(addrs, net.JoinHostPort(strings.TrimSpace(host), strconv.Itoa(port)))

	for _, n := range nodes {
		addrs = append(addrs, net.JoinHostPort(strings.TrimSpace(n.Host), strconv.Itoa(n.Port)))
	}

	return addrs
}

// HandleTLS returns the client TLS configuration for desc, or nil when TLS is off.
func HandleTLS(desc model.Descriptor) *tls.Config {
	if !desc.TLS.Enabled {
		return nil
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !desc.TLS.VerifyPeer, //nolint:gosec // operator chose not to verify the peer
	}

	if desc.Network == model.NetworkTCP {
		if host, _, err := net.SplitHostPort(desc.Primary()); err == nil {
			cfg.ServerName = host
		}
	}

	return cfg
}
