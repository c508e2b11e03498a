package db

import (
	"github.com/pkg/errors"

	"github.com/seminote/seminote/internal/profile"
	"github.com/seminote/seminote/store"
	"github.com/seminote/seminote/store/db/postgres"
	"github.com/seminote/seminote/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// PostgreSQL is the production target: similarity runs database-side through
// pgvector. SQLite serves development and testing with an in-process
// similarity scan. The score formula and threshold are identical in both.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
