package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	aulogging "github.com/StephanHCB/go-autumn-logging"
	auzerolog "github.com/StephanHCB/go-autumn-logging-zerolog"

	"github.com/binarydesk/deposit-service/internal/config"
	"github.com/binarydesk/deposit-service/internal/interaction"
	"github.com/binarydesk/deposit-service/internal/logging"
	"github.com/binarydesk/deposit-service/internal/repository/database"
	"github.com/binarydesk/deposit-service/internal/repository/database/inmemory"
	"github.com/binarydesk/deposit-service/internal/repository/database/mysql"
	"github.com/binarydesk/deposit-service/internal/repository/downstreams/xgate"
	"github.com/binarydesk/deposit-service/internal/server"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the yaml configuration file")
	envFile := flag.String("env", ".env", "optional file with secrets in KEY=value form")
	flag.Parse()

	auzerolog.SetupPlaintextLogging()

	if err := config.LoadDotEnv(*envFile); err != nil {
		aulogging.Logger.NoCtx().Error().Printf("could not read %s: %v", *envFile, err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configFile, func(format string, v ...interface{}) {
		aulogging.Logger.NoCtx().Error().Printf(format, v...)
	})
	if err != nil {
		aulogging.Logger.NoCtx().Error().Printf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	if conf.Logging.Style == "json" {
		auzerolog.SetupJsonLogging(conf.Service.Name)
	}
	logging.SetSeverity(conf.Logging.Severity)

	logger := logging.NewLogger()

	repo, err := createRepository(conf.Database, logger)
	if err != nil {
		logger.Fatal("failed to set up the database: %v", err)
	}

	gateway, err := xgate.New(conf.Gateway)
	if err != nil {
		logger.Fatal("failed to set up the payment gateway client: %v", err)
	}

	i, err := interaction.NewServiceInteractor(repo, gateway, conf.Security.Oidc.AdminRole, logger)
	if err != nil {
		logger.Fatal("failed to set up the service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.NewServer(ctx, &conf.Server, server.CreateRouter(i, &conf.Security))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
		aulogging.Logger.NoCtx().Info().Printf("Stopping services now")

		tCtx, tcancel := context.WithTimeout(context.Background(), time.Second*5)
		defer tcancel()

		if err := srv.Shutdown(tCtx); err != nil {
			aulogging.Logger.NoCtx().Error().Printf("Couldn't shutdown server gracefully: %v", err)
		}
	}()

	aulogging.Logger.NoCtx().Info().Printf("%s listening on %s", conf.Service.Name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed: %v", err)
	}
}

func createRepository(conf config.DatabaseConfig, logger logging.Logger) (database.Repository, error) {
	var repo database.Repository
	if conf.Use == config.Mysql {
		var err error
		repo, err = mysql.NewMySQLConnector(conf, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("using the in-memory database, deposits are lost on restart")
		repo = inmemory.NewInMemoryProvider()
	}

	return repo, repo.Migrate()
}
