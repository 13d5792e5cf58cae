package configdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// ConfigDB holds the operator-editable configuration: detection zones and the
// alert severity policy. The perception pipeline itself never touches disk;
// it consumes snapshots of this configuration at the start of each cycle.
type ConfigDB struct {
	Log logs.Log
	DB  *gorm.DB
}

func NewConfigDB(logger logs.Log, dbFilename string) (*ConfigDB, error) {
	os.MkdirAll(filepath.Dir(dbFilename), 0777)
	db, err := dbh.OpenDB(logger, dbh.MakeSqliteConfig(dbFilename), Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open database %v: %w", dbFilename, err)
	}
	return &ConfigDB{
		Log: logger,
		DB:  db,
	}, nil
}
