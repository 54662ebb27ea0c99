package main

import (
	"github.com/pressly/goose/v3"

	"github.com/trezcool/libwork/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseRunFunc(args[0], cli.db, database.MigrationsDir, arguments...)
}
