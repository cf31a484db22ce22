package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp091 "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/patsnet/petri/amqp"
	"github.com/patsnet/petri/couch"
	"github.com/patsnet/petri/env"
	"github.com/patsnet/petri/history"
	"github.com/patsnet/petri/server"
	"github.com/patsnet/petri/service"
	"github.com/patsnet/petri/sim"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	environment := env.LoadEnv(logger)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simOpts := make([]sim.Option, 0, 1)
	if environment.StrictCapacity {
		simOpts = append(simOpts, sim.WithCapacityPolicy(sim.StrictCap))
	}

	engineOpts := make([]service.Option, 0, 3)
	engineOpts = append(engineOpts, service.WithSimulator(sim.New(simOpts...)))

	var store *history.Store
	if environment.HistoryPath != "" {
		store, err = history.New(environment.HistoryPath, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			logger.Fatal("opening step log", zap.Error(err))
		}
		defer func() {
			_ = store.Close()
		}()
		engineOpts = append(engineOpts, service.WithObserver(store))
	}

	hub := server.NewHub(logger)
	engineOpts = append(engineOpts, service.WithObserver(hub))

	engine := service.New(logger, engineOpts...)
	srv := server.New(engine, logger)
	srv.Hub = hub
	if store != nil {
		srv.WithHistory(store)
	}

	if environment.CouchURI != "" {
		pages, err := couch.Open(environment.CouchURI, environment.CouchDB)
		if err != nil {
			logger.Fatal("connecting to couchdb", zap.Error(err))
		}
		defer func() {
			_ = pages.Close()
		}()
		srv.WithPages(pages)
	}

	if environment.AMQPURI != "" {
		conn, err := amqp091.Dial(environment.AMQPURI)
		if err != nil {
			logger.Fatal("connecting to rabbitmq", zap.Error(err))
		}
		defer func() {
			_ = conn.Close()
		}()
		rpc, err := amqp.NewServer(conn, engine, environment.Exchange, logger)
		if err != nil {
			logger.Fatal("starting amqp server", zap.Error(err))
		}
		defer rpc.Close()
		go func() {
			if err := rpc.Serve(ctx); err != nil {
				logger.Error("amqp server stopped", zap.Error(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:    environment.HTTPAddr,
		Handler: srv.Handler(),
	}
	go func() {
		logger.Info("listening", zap.String("addr", environment.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutting down http server", zap.Error(err))
	}
}
