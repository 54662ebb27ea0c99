package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/libwork/apps/api/echo"
	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/auth"
	"github.com/trezcool/libwork/core/lifecycle"
	logsvc "github.com/trezcool/libwork/services/logger"
	"github.com/trezcool/libwork/storage/database"
	inmemdb "github.com/trezcool/libwork/storage/database/inmem"
	sqlxrepos "github.com/trezcool/libwork/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	store, closeStore, err := setUpStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up store: %v", err), err)
	}
	defer func() {
		if err = closeStore(); err != nil {
			logger.Error("Failed to close store", err)
		}
	}()

	secret, err := lifecycle.NewAdminSecret(conf.AdminSecret)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading admin secret: %v", err), err)
	}

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)

	repos := store.Repos()
	authSvc := auth.NewService(repos.Settings, repos.Students, validate, conf)
	lifecycleSvc := lifecycle.NewService(store, secret, validate, translator, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("store").Set(conf.Database.Store)

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Deps{
		Conf:         conf,
		Logger:       logger,
		AuthSvc:      authSvc,
		LifecycleSvc: lifecycleSvc,
		Translator:   translator,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStore returns the store selected by conf.Database.Store and its close func.
func setUpStore(conf *core.Config) (lifecycle.Store, func() error, error) {
	switch conf.Database.Store {
	case core.StoreMemory:
		return inmemdb.NewDB(), func() error { return nil }, nil

	case core.StorePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlxrepos.NewStore(db), db.Close, nil

	default:
		return nil, nil, errors.Errorf("unknown store %q", conf.Database.Store)
	}
}
