package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	pb "github.com/ponyo877/roomwatch/grpc"
	"github.com/ponyo877/roomwatch/server/adaptor"
	"github.com/ponyo877/roomwatch/server/domain"
	"github.com/ponyo877/roomwatch/server/repository"
	"github.com/ponyo877/roomwatch/server/usecase"
	"google.golang.org/grpc"
)

// App is the wired operator server: fleet state, use cases, the kiosk gRPC
// service, the HTTP API and the liveness sweeper.
type App struct {
	cfg Config

	Registry    *domain.KioskRegistry
	Hub         *domain.EventHub
	Dispatcher  *adaptor.Dispatcher
	Fleet       *usecase.FleetUsecase
	Coordinator *usecase.AssignmentCoordinator
	Sweeper     *usecase.LivenessSweeper

	db         *sql.DB
	mqttClient mqtt.Client
	grpcServer *grpc.Server
	httpServer *http.Server
}

func New(cfg Config) (*App, error) {
	db, err := repository.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	rp := repository.NewRepository(db)

	registry := domain.NewKioskRegistry()
	hub := domain.NewEventHub()
	dispatcher := adaptor.NewDispatcher(registry)

	a := &App{
		cfg:        cfg,
		Registry:   registry,
		Hub:        hub,
		Dispatcher: dispatcher,
		db:         db,
	}

	var notifier domain.Notifier = dispatcher
	if cfg.MQTTBroker != "" {
		hostname, _ := os.Hostname()
		mn, client, err := adaptor.DialMQTT(cfg.MQTTBroker, "roomwatch-"+hostname, cfg.MQTTTopicPrefix)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.mqttClient = client
		notifier = domain.MultiNotifier{dispatcher, mn}
	}

	a.Fleet = usecase.NewFleetUsecase(registry, cfg.Rooms, hub, notifier, rp)
	a.Coordinator = usecase.NewAssignmentCoordinator(registry, cfg.Rooms, hub, notifier, rp)
	a.Sweeper = usecase.NewLivenessSweeper(registry, hub, rp, cfg.LivenessDeadline, cfg.SweepInterval)

	a.grpcServer = grpc.NewServer()
	pb.RegisterKioskServiceServer(a.grpcServer, adaptor.NewAdaptor(a.Fleet, dispatcher))

	if cfg.HTTPListen != "" {
		api := adaptor.NewAPI(a.Fleet, a.Coordinator, adaptor.NewFeed(hub, cfg.Rooms))
		a.httpServer = &http.Server{
			Addr:              cfg.HTTPListen,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	return a, nil
}

func (a *App) Rooms() domain.RoomTable {
	return a.cfg.Rooms
}

// Run serves until ctx is done or a listener fails, then stops everything.
func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.cfg.GRPCListen)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errs := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Kiosk service is running on %s", lis.Addr())
		if err := a.grpcServer.Serve(lis); err != nil {
			errs <- fmt.Errorf("failed to serve grpc: %w", err)
		}
	}()

	if a.httpServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("HTTP API is running on %s", a.httpServer.Addr)
			if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("failed to serve http: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Sweeper.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errs:
		cancel()
	}

	if a.httpServer != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		a.httpServer.Shutdown(shutdownCtx)
		done()
	}
	// subscribe streams only end with their clients, so no graceful stop
	a.grpcServer.Stop()
	wg.Wait()
	return runErr
}

func (a *App) Close() {
	a.Hub.Close()
	if a.mqttClient != nil && a.mqttClient.IsConnected() {
		a.mqttClient.Disconnect(250)
	}
	if err := a.db.Close(); err != nil {
		log.Printf("Error closing db: %v", err)
	}
}
