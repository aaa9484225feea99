package main

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/TykTechnologies/keyscope/model"
)

// connFlags holds the connection flags shared by every command that reaches a server.
type connFlags struct {
	topology   string
	host       string
	port       int
	socket     string
	master     string
	nodes      string
	database   int
	clientName string
	username   string
	password   string
	ssl        bool
	verifyPeer bool
	startTLS   bool
	timeout    time.Duration
}

func (c *connFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.topology, "type", "", "connection type: STANDALONE, UNIX_SOCKET, SENTINEL or CLUSTER")
	fs.StringVar(&c.host, "host", "", "host name")
	fs.IntVar(&c.port, "port", model.DefaultPort, "port")
	fs.StringVar(&c.socket, "socket", "", "unix socket path")
	fs.StringVar(&c.master, "master", "", "sentinel master id")
	fs.StringVar(&c.nodes, "nodes", "", "extra nodes, host:port separated by ';' or ','")
	fs.IntVar(&c.database, "db", 0, "database index")
	fs.StringVar(&c.clientName, "client", "", "client name")
	fs.StringVar(&c.username, "user", "", "username")
	fs.StringVar(&c.password, "password", "", "password, defaults to $KEYSCOPE_PASSWORD")
	fs.BoolVar(&c.ssl, "ssl", false, "use TLS")
	fs.BoolVar(&c.verifyPeer, "verify-peer", true, "verify the server certificate")
	fs.BoolVar(&c.startTLS, "starttls", false, "request STARTTLS")
	fs.DurationVar(&c.timeout, "timeout", model.DefaultTimeout, "connect and command timeout, whole seconds")
}

// apply copies the flags that were set explicitly onto cfg.
func (c *connFlags) apply(fs *flag.FlagSet, cfg *model.ConnectionConfig) error {
	var err error

	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}

		switch f.Name {
		case "type":
			t, ok := model.ParseTopology(c.topology)
			if !ok {
				err = fmt.Errorf("unknown connection type %q", c.topology)
				return
			}
			cfg.SetTopology(t)
		case "host":
			cfg.SetHost(c.host)
		case "port":
			cfg.SetPort(c.port)
		case "socket":
			cfg.SetSocketPath(c.socket)
		case "master":
			cfg.SetSentinelMasterID(c.master)
		case "nodes":
			var nodes []model.Node
			if nodes, err = parseNodes(c.nodes); err == nil {
				cfg.SetExtraNodes(nodes)
			}
		case "db":
			cfg.SetDatabase(c.database)
		case "client":
			cfg.SetClientName(c.clientName)
		case "user":
			cfg.SetUsername(c.username)
		case "password":
			cfg.SetPassword([]byte(c.password))
		case "ssl":
			cfg.SetTLSEnabled(c.ssl)
		case "verify-peer":
			cfg.SetVerifyPeer(c.verifyPeer)
		case "starttls":
			cfg.SetStartTLS(c.startTLS)
		case "timeout":
			cfg.SetTimeout(c.timeout)
		}
	})

	return err
}

func parseNodes(s string) ([]model.Node, error) {
	var nodes []model.Node

	for _, entry := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		host, portStr, err := net.SplitHostPort(entry)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", entry, err)
		}

		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("node %q: invalid port", entry)
		}

		nodes = append(nodes, model.Node{Host: host, Port: port})
	}

	return nodes, nil
}
