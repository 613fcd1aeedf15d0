package db

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/go-rel/migration"
	"github.com/go-rel/mysql"
	"github.com/go-rel/rel"
	_ "github.com/go-sql-driver/mysql"

	"github.com/obgateway/consent-cms/db/migrations"
	"github.com/obgateway/consent-cms/logging"
)

var logger = logging.Log()

/**
* Opens the mysql backed repository from the environment. The connection
* parameters follow the usual MYSQL_* variables.
 */
func Connect() (rel.Repository, error) {

	mysqlHost := os.Getenv("MYSQL_HOST")
	if mysqlHost == "" {
		return nil, fmt.Errorf("no mysql host configured")
	}
	mySqlPort := 3306
	mysqlPortEnv := os.Getenv("MYSQL_PORT")
	if mysqlPortEnv != "" {
		parsedPort, err := strconv.Atoi(mysqlPortEnv)
		if err != nil {
			logger.Fatalf("Invalid mysql port configured: %s", mysqlPortEnv)
		}
		mySqlPort = parsedPort
	}
	mysqlDb := os.Getenv("MYSQL_DATABASE")
	if mysqlDb == "" {
		return nil, fmt.Errorf("no mysql db configured")
	}

	mysqlUser := os.Getenv("MYSQL_USERNAME")
	mysqlPassword := os.Getenv("MYSQL_PASSWORD")
	if mysqlUser == "" {
		logger.Infof("No user configured for mySql, will try to connect as root.")
		mysqlUser = "root"
	}

	var connectionString string
	if mysqlPassword != "" {
		connectionString = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", mysqlUser, mysqlPassword, mysqlHost, mySqlPort, mysqlDb)
	} else {
		logger.Infof("No password configured for mySql, will try to connect without credentials.")
		connectionString = fmt.Sprintf("%s@tcp(%s:%d)/%s", mysqlUser, mysqlHost, mySqlPort, mysqlDb)
	}

	adapter, err := mysql.Open(connectionString)
	if err != nil {
		return nil, fmt.Errorf("was not able to connect to db %s:%d/%s as user %s: %w", mysqlHost, mySqlPort, mysqlDb, mysqlUser, err)
	}
	return rel.New(adapter), nil
}

/**
* Applies the schema migrations on startup.
 */
func Migrate(ctx context.Context, repository rel.Repository) {
	m := migration.New(repository)
	m.Register(1, migrations.MigrateCreateConsents, migrations.RollbackCreateConsents)
	m.Register(2, migrations.MigrateCreateAccesses, migrations.RollbackCreateAccesses)
	m.Register(3, migrations.MigrateCreateUsages, migrations.RollbackCreateUsages)
	m.Register(4, migrations.MigrateCreateAuthorisations, migrations.RollbackCreateAuthorisations)
	m.Migrate(ctx)
}
