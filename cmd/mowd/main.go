package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wheelibin/mowd/internal/automower"
	commanddispatcher "github.com/wheelibin/mowd/internal/commandDispatcher"
	"github.com/wheelibin/mowd/internal/config"
	connectionsupervisor "github.com/wheelibin/mowd/internal/connectionSupervisor"
	"github.com/wheelibin/mowd/internal/constants"
	"github.com/wheelibin/mowd/internal/repos"
	"github.com/wheelibin/mowd/internal/sink"
	statemerger "github.com/wheelibin/mowd/internal/stateMerger"
)

func main() {

	logger := log.NewWithOptions(&lumberjack.Logger{
		Filename: "logs/mowd.log",
		MaxAge:   3,
	}, log.Options{
		Level:      log.InfoLevel,
		TimeFormat: "2006/01/02 15:04:05",
	})
	logger.Info("mowd starting")

	// read the config file
	if err := config.InitialiseConfig(); err != nil {
		logger.Fatal("Error reading config", "error", err)
	}
	cfg, err := config.ReadConfig()
	if err != nil {
		logger.Fatal("Invalid config", "error", err)
	}

	// the registry is rebuilt from the first snapshot on every run
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		logger.Fatal("Error opening registry database", "error", err)
	}
	defer db.Close()

	mowerRepo, err := repos.NewMowerRepo(logger, db)
	if err != nil {
		logger.Fatal("Error initialising registry", "error", err)
	}

	mqttSink, err := sink.NewMQTTSink(logger, cfg.MQTT)
	if err != nil {
		logger.Fatal("Error connecting to MQTT broker", "error", err)
	}
	defer mqttSink.Close()

	// create/wire up services
	credentials := automower.NewCredentialManager(logger, *cfg, constants.AuthBaseURL)
	api := automower.NewAutomowerAPIService(logger, cfg.ApplicationKey, constants.APIBaseURL, credentials)
	stream := automower.NewEventStream(logger, constants.StreamURL)
	merger := statemerger.NewStateMerger(logger, mqttSink, mowerRepo)

	pollInterval := time.Duration(cfg.StatisticsIntervalMinutes) * time.Minute
	supervisor := connectionsupervisor.NewConnectionSupervisor(logger, credentials, api, stream, merger, pollInterval)

	dispatcher := commanddispatcher.NewCommandDispatcher(logger, api, mqttSink, mowerRepo, credentials, supervisor)
	mqttSink.SubscribeExternal(dispatcher.HandleExternalWrite)

	// metrics endpoint
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
			logger.Error("Metrics server stopped", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quitChannel
		logger.Info("mowd is closing")
		cancel()
	}()

	if err := supervisor.Run(ctx); err != nil {
		logger.Fatal("mowd stopped", "error", err)
	}
}
