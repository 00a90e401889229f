package main

import (
	"fmt"

	"precinct/internal/config"
	"precinct/internal/database"
	"precinct/internal/logger"
	"precinct/internal/service"
	"precinct/internal/workflow"
)

// connect loads the configuration and opens the database it names
func connect() (*config.Config, *database.Database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: "text"})

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newEnv(cfg *config.Config, db *database.Database) service.Env {
	rules := workflow.DefaultRules()
	rules.MaxCadetRejections = cfg.Workflow.MaxCadetRejections
	rules.IntensivePursuitDays = cfg.Workflow.IntensivePursuitDays
	rules.RewardUnit = cfg.Workflow.RewardUnit
	return service.NewEnv(db.DB, rules, nil)
}
