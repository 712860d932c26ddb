package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/openvideos/yt-commons/app/api"
	"github.com/openvideos/yt-commons/app/cfg"
	"github.com/openvideos/yt-commons/app/database"
)

type serveCommand struct {
	cfg.StoreOptions
	Port string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
}

func registerServeCommand(parser *flags.Parser) {
	parser.AddCommand("serve", "Serve catalog statistics over HTTP",
		"Exposes /stats and /health endpoints over the catalog database.",
		&serveCommand{})
}

func (c *serveCommand) Execute(_ []string) error {
	db, err := database.Open(c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	handler := api.NewHandler(database.NewChannelRepository(db), database.NewVideoRepository(db), cfg.GetVersion())

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	select {
	case <-appCtx.Done():
		slog.Info("Shutting down HTTP server")
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
