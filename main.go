package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/wfunc/spyarena/agent"
	"github.com/wfunc/spyarena/arena"
	"github.com/wfunc/spyarena/broadcast"
	"github.com/wfunc/spyarena/config"
	"github.com/wfunc/spyarena/game"
	"github.com/wfunc/spyarena/logger"
	"github.com/wfunc/spyarena/models"
	"github.com/wfunc/spyarena/monitor"
	"github.com/wfunc/spyarena/persistence"
	"github.com/wfunc/spyarena/prompts"
	"github.com/wfunc/spyarena/server"
	"github.com/wfunc/spyarena/services"
	"github.com/wfunc/spyarena/session"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	logger.Init()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.InitWithLevel(cfg.Logging.Level, cfg.Logging.Development)

	var mon *monitor.Monitor
	if cfg.Monitor.Enabled {
		mon = monitor.NewMonitor("spyarena")
		mon.StartServer(cfg.Monitor.Address)
	}

	sink, err := buildSink(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize persistence: %v", err)
	}
	defer sink.Close()

	builder, err := prompts.NewBuilder(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to load prompt templates: %v", err)
	}

	var agentMetrics agent.Metrics
	var gameMetrics game.Metrics
	if mon != nil {
		agentMetrics = mon
		gameMetrics = mon
	}
	roster := agent.NewRoster(cfg, agentMetrics)

	var broadcaster game.Broadcaster = game.NopBroadcaster{}
	if cfg.Watch.Enabled {
		sessions := session.NewManager()
		watchServer := server.NewWatchServer(cfg.Watch.Address, sessions)
		watchServer.Start()
		defer watchServer.Shutdown()
		broadcaster = broadcast.NewEventBroadcaster(sessions)
	}

	// An interrupt cancels at the next atomic engine step; completed
	// rounds are preserved and persisted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := arena.New(cfg, roster, builder, sink, broadcaster, gameMetrics)
	gs, err := a.Run(ctx)
	if err != nil {
		os.Exit(1)
	}

	summary := services.Summarize(gs)
	logger.Log.Infow("Game summary",
		"game_id", summary.GameID,
		"status", summary.Status,
		"winner", summary.Winner,
		"rounds", summary.RoundsPlayed,
		"vote_accuracy", summary.VoteAccuracy,
	)

	if gs.Status == models.StatusError {
		os.Exit(1)
	}
}

func buildSink(cfg *config.Config) (persistence.Sink, error) {
	jsonSink, err := persistence.NewJSONFileSink(cfg.Logging.OutputDir)
	if err != nil {
		return nil, err
	}

	if !cfg.Database.Enabled {
		return jsonSink, nil
	}

	pg := cfg.Database.Postgres
	var db persistence.Sink
	switch cfg.Database.Driver {
	case "pq":
		db, err = persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		db, err = persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Database connection successful.")
	return persistence.MultiSink{jsonSink, db}, nil
}
