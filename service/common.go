package service

import (
	"teamboard/app/config"
)

// Database path - variable to allow testing with different paths
var dbPath = config.DefaultDataDir

// backupDir is where "db backup" writes when no file is given.
var backupDir = "data/backups"

// loadConfig reads settings from the environment. The badger path follows
// TEAMBOARD_DATA_DIR unless a test has pointed dbPath elsewhere.
var loadConfig = func() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != config.DefaultDataDir {
		cfg.DataDir = dbPath
	}
	return cfg, nil
}

// dataPath is the badger directory used by the db commands.
func dataPath() string {
	cfg, err := loadConfig()
	if err != nil {
		return dbPath
	}
	return cfg.DataDir
}
