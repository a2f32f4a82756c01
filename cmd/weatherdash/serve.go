package main

import (
	"log"
	"time"

	"github.com/lox/weatherdash/internal/api"
	"github.com/lox/weatherdash/internal/dashboard"
)

type ServeCmd struct {
	Port             string        `env:"PORT" default:"8080" help:"HTTP server port."`
	Refresh          time.Duration `env:"WEATHERDASH_REFRESH" default:"10m" help:"Re-fetch the selected location this often (0 disables)."`
	PayloadRetention int           `name:"payload-retention-days" default:"30" help:"Delete captured error payloads older than this."`
}

func (cmd *ServeCmd) Run(cli *CLI) error {
	st, closeDB, err := cli.openStore()
	if err != nil {
		return err
	}
	defer closeDB()
	log.Println("database migrated")

	if n, err := st.CleanupOldRawPayloads(cmd.PayloadRetention); err != nil {
		log.Printf("cleanup payloads: %v", err)
	} else if n > 0 {
		log.Printf("removed %d old payloads", n)
	}

	ctrl, err := cli.newController(st)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	go ctrl.Mount(ctx)

	if cmd.Refresh > 0 {
		refresher := dashboard.NewRefresher(ctrl, cmd.Refresh)
		go refresher.Run(ctx)
	} else {
		log.Println("refresh disabled")
	}

	server := api.NewServer(ctrl, st, cmd.Port)
	log.Printf("starting server on :%s", cmd.Port)
	return server.Run(ctx)
}
