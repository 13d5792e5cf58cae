package configdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE zone(
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			camera TEXT NOT NULL,
			enabled INT NOT NULL DEFAULT 1,
			alert_on_entry INT NOT NULL DEFAULT 1,
			sensitivity TEXT NOT NULL DEFAULT 'medium',
			vertices TEXT NOT NULL
		);

		CREATE TABLE alert_policy(
			class TEXT PRIMARY KEY,
			severity TEXT NOT NULL
		);

		INSERT INTO alert_policy (class, severity) VALUES
			('person', 'high'),
			('car', 'medium'),
			('motorcycle', 'medium'),
			('bicycle', 'low'),
			('dog', 'low'),
			('cat', 'low');
	`))

	return migs
}
