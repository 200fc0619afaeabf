package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pcesar22/domesctl/internal/config"
	"github.com/pcesar22/domesctl/internal/observability"
	"github.com/pcesar22/domesctl/internal/trace"
	"github.com/pcesar22/domesctl/internal/transport"
)

const connectTimeout = 5 * time.Second

var (
	flagConfig  string
	flagPorts   []string
	flagAddrs   []string
	flagBaud    int
	flagNames   string
	flagTimeout time.Duration
	flagVerbose bool

	cfg config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "domesctl",
	Short:         "Control and dump the DOMES firmware tracing subsystem",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = observability.InitLogger("domesctl")
		if flagVerbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		var err error
		cfg, err = config.Load(flagConfig)
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "domesctl: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to domesctl.toml")
	pf.StringArrayVarP(&flagPorts, "port", "p", nil, "serial port (repeatable)")
	pf.StringArrayVarP(&flagAddrs, "addr", "a", nil, "TCP address host:port (repeatable)")
	pf.IntVarP(&flagBaud, "baud", "b", 0, "serial baud rate (default 115200)")
	pf.StringVarP(&flagNames, "names", "n", "", "JSON span-name table")
	pf.DurationVar(&flagTimeout, "timeout", 0, "per-reply timeout (default 5s)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

// endpoint is one resolved connection target.
type endpoint struct {
	name string
	port string
	addr string
}

func (e endpoint) open() (transport.Conn, error) {
	if e.addr != "" {
		return transport.DialTCP(e.addr, connectTimeout)
	}
	baud := flagBaud
	if baud == 0 {
		baud = cfg.Serial.Baud
	}
	return transport.OpenSerial(e.port, baud)
}

// endpoints resolves targets from flags, falling back to the config file's
// device list when no flags were given.
func endpoints() ([]endpoint, error) {
	var eps []endpoint
	for _, p := range flagPorts {
		eps = append(eps, endpoint{name: p, port: p})
	}
	for _, a := range flagAddrs {
		eps = append(eps, endpoint{name: a, addr: a})
	}
	if len(eps) == 0 {
		for _, dev := range cfg.Devices {
			eps = append(eps, endpoint{name: dev.Name, port: dev.Port, addr: dev.Addr})
		}
	}
	if len(eps) == 0 {
		return nil, errors.New("no device specified: use --port/--addr or a config file")
	}
	return eps, nil
}

func sessionConfig() trace.Config {
	return trace.Config{ReplyTimeout: flagTimeout}
}

// singleSession opens a session to the one configured device; commands that
// are single-target reject multiple endpoints.
func singleSession() (*trace.Session, func(), error) {
	eps, err := endpoints()
	if err != nil {
		return nil, nil, err
	}
	if len(eps) != 1 {
		return nil, nil, fmt.Errorf("expected exactly one device, got %d", len(eps))
	}
	conn, err := eps[0].open()
	if err != nil {
		return nil, nil, err
	}
	session := trace.NewSession(conn, sessionConfig(), log.With().Str("device", eps[0].name).Logger())
	return session, func() { _ = conn.Close() }, nil
}

// nameTable loads the span-name table from --names or the config file.
func nameTable() (*trace.NameTable, error) {
	path := flagNames
	if path == "" {
		path = cfg.Names
	}
	if path == "" {
		return nil, nil
	}
	return trace.LoadNameTable(path)
}
