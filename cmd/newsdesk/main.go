package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/nmoram/newsdesk/cmd/newsdesk/accounts"
	"github.com/nmoram/newsdesk/cmd/newsdesk/serve"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "newsdesk",
		Usage: "Tiny multi-tenant news service with token-gated publishing",
		Commands: []*cli.Command{
			serve.Cmd(),
			accounts.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
