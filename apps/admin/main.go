package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/auth"
	"github.com/trezcool/libwork/core/lifecycle"
	logsvc "github.com/trezcool/libwork/services/logger"
	"github.com/trezcool/libwork/storage/database"
	inmemdb "github.com/trezcool/libwork/storage/database/inmem"
	sqlxrepos "github.com/trezcool/libwork/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	store, db, err := setUpStore(conf)
	if err != nil {
		logger.Fatal("setting up store", err)
	}

	secret, err := lifecycle.NewAdminSecret(conf.AdminSecret)
	if err != nil {
		logger.Fatal("loading admin secret", err)
	}
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	repos := store.Repos()

	cli := commandLine{
		db:      db,
		out:     os.Stdout,
		sess:    auth.OwnerSession(conf.OwnerMobile),
		svc:     lifecycle.NewService(store, secret, validate, translator, logger),
		authSvc: auth.NewService(repos.Settings, repos.Students, validate, conf),
	}
	err = cli.run(os.Args)
	if db != nil {
		_ = db.Close()
	}
	logger.Close()
	if err != nil {
		if err != errHelp {
			log.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// setUpStore opens the configured store. The returned *sql.DB is nil with the memory store.
func setUpStore(conf *core.Config) (lifecycle.Store, *sql.DB, error) {
	switch conf.Database.Store {
	case core.StoreMemory:
		return inmemdb.NewDB(), nil, nil
	case core.StorePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, err
		}
		return sqlxrepos.NewStore(db), db.DB, nil
	default:
		return nil, nil, errors.Errorf("unknown store %q", conf.Database.Store)
	}
}
