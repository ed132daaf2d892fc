// Command orderbook-server runs the matching engine behind the binary
// session protocol described in this project's wire package.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/struccomaker/simple-orderbook-v1/internal/config"
	"github.com/struccomaker/simple-orderbook-v1/internal/engine"
	orderbooknet "github.com/struccomaker/simple-orderbook-v1/internal/net"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw := engine.NewGateway()
	srv := orderbooknet.New(cfg.Address, cfg.Port, gw, cfg.Workers, cfg.ReadTimeout)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		srv.Shutdown()
		if err := <-errCh; err != nil {
			log.Error().Err(err).Msg("server exited with error")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}
}
