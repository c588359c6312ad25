// Package adminctl is the committee-side command line tool: phase control,
// live tallies, audit review, and ledger exports against a running server.
package adminctl

import (
	"flag"
	"os"
)

type Config struct {
	ServerEndpointAddr string
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://localhost:8080"
}

// LoadConfig parses flags from args and returns the config plus the
// remaining positional arguments.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if addr := os.Getenv("CDSVOTE_ADDR"); addr != "" {
		cfg.ServerEndpointAddr = addr
	}

	fs := flag.NewFlagSet("adminctl", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "server endpoint address")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return cfg, fs.Args(), nil
}
