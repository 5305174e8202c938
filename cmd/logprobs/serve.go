package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ncecere/logprobs/config"
	"github.com/ncecere/logprobs/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scoring API",
	Long: `Serve exposes:

  POST /v1/logprobs   {"model": "<name>", "prompt": "<text>"}
  GET  /v1/models
  GET  /healthz

A caller's "Authorization: Bearer <key>" header is forwarded upstream;
without one the configured key is used.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	reg, err := buildRegistry(cfg, verbose)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Registry:     reg,
		DefaultModel: cfg.DefaultModel,
		Timeout:      cfg.Timeout,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("logprobs listening on %s (models: %v, default: %s)", cfg.Listen, reg.Names(), cfg.DefaultModel)
	return srv.Listen(cfg.Listen)
}
