// Package config parses the small operator-facing configuration surface
// for the server: listen address, worker pool size, and the read
// deadline each session applies per recv. The surface is deliberately
// tiny, so it is parsed with the standard flag package rather than a
// third-party config library — see DESIGN.md for why this corner stays
// on the standard library.
package config

import (
	"flag"
	"time"
)

type Config struct {
	Address     string
	Port        int
	Workers     int
	ReadTimeout time.Duration
}

// Default matches the defaults called out in §6 (port 5555) and §4.4/§5
// (a moderate worker count and a short recv deadline to avoid a busy
// loop on non-blocking sockets).
func Default() Config {
	return Config{
		Address:     "0.0.0.0",
		Port:        5555,
		Workers:     32,
		ReadTimeout: 200 * time.Millisecond,
	}
}

// Parse reads args (normally os.Args[1:]) into a Config seeded with
// Default.
func Parse(args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("orderbook-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "address", cfg.Address, "listen address")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "worker pool size")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "per-recv deadline on idle sessions")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
