package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"example.com/finance-tracker-bot/backend/internal/config"
	"example.com/finance-tracker-bot/backend/internal/database"
)

func main() {
	down := flag.Int("down", 0, "number of migrations to roll back instead of applying")
	flag.Parse()

	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadDatabase()
	if err != nil {
		logrus.WithError(err).Fatal("config.LoadDatabase")
		return
	}

	var result database.MigrationResult
	if *down > 0 {
		result, err = database.Rollback(cfg.DSN(), *down)
	} else {
		result, err = database.Migrate(cfg.DSN())
	}
	if err != nil {
		logrus.WithError(err).Fatal("migration failed")
		return
	}

	logrus.WithFields(logrus.Fields{
		"preMigrationVersion":  result.FromVersion,
		"postMigrationVersion": result.ToVersion,
		"dirty":                result.Dirty,
	}).Info("Migration status")
}
