package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/tomventa/mdsql/internal/config"
	"github.com/tomventa/mdsql/internal/logger"
)

// Supported drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Database executes statements against one configured database.
type Database struct {
	db     *sql.DB
	driver string
	mysql  *mysql.Config
	path   string
}

// Open prepares a connection pool for cfg. No connection is made until the
// first statement runs or Ping is called.
func Open(cfg config.DatabaseConfig) (*Database, error) {
	switch cfg.Driver {
	case DriverSQLite:
		path := cfg.DSN
		if path == "" {
			path = cfg.Name
		}
		db, err := sql.Open(DriverSQLite, path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return &Database{db: db, driver: DriverSQLite, path: path}, nil

	case DriverMySQL, "":
		mc, err := mysqlConfig(cfg)
		if err != nil {
			return nil, err
		}
		connector, err := mysql.NewConnector(mc)
		if err != nil {
			return nil, fmt.Errorf("failed to configure mysql connector: %w", err)
		}
		return &Database{db: sql.OpenDB(connector), driver: DriverMySQL, mysql: mc}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// NewWithDB wraps an existing pool.
func NewWithDB(db *sql.DB, driver string) *Database {
	return &Database{db: db, driver: driver}
}

func mysqlConfig(cfg config.DatabaseConfig) (*mysql.Config, error) {
	var mc *mysql.Config
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid database dsn: %w", err)
		}
		mc = parsed
	} else {
		mc = mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Name
	}

	if mc.Timeout == 0 && cfg.ConnectionTimeout > 0 {
		mc.Timeout = time.Duration(cfg.ConnectionTimeout) * time.Second
	}
	mc.ParseTime = true
	if strings.EqualFold(cfg.AuthPlugin, "mysql_clear_password") {
		mc.AllowCleartextPasswords = true
	}
	return mc, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// Driver returns the driver name.
func (d *Database) Driver() string {
	return d.driver
}

// Ping checks that a connection can be established.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return &ConnectionError{Err: err}
	}
	return nil
}

// Info describes the connection target for display.
type Info struct {
	Driver   string
	User     string
	Host     string
	Port     string
	Database string
}

// Info returns the connection target. Fields that do not apply are "?".
func (d *Database) Info() Info {
	info := Info{Driver: d.driver, User: "?", Host: "?", Port: "?", Database: "?"}
	switch {
	case d.mysql != nil:
		if d.mysql.User != "" {
			info.User = d.mysql.User
		}
		if host, port, err := net.SplitHostPort(d.mysql.Addr); err == nil {
			info.Host, info.Port = host, port
		} else if d.mysql.Addr != "" {
			info.Host = d.mysql.Addr
		}
		if d.mysql.DBName != "" {
			info.Database = d.mysql.DBName
		}
	case d.path != "":
		info.Database = d.path
	}
	return info
}

// Schema returns the table definitions, formatted for inclusion in a prompt.
// Tables whose definition cannot be read are skipped.
func (d *Database) Schema(ctx context.Context) (string, error) {
	var defs []tableDef
	var err error
	if d.driver == DriverSQLite {
		defs, err = d.sqliteTables(ctx)
	} else {
		defs, err = d.mysqlTables(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get schema: %w", err)
	}

	var schema strings.Builder
	schema.WriteString("Database Schema:\n\n")
	for _, t := range defs {
		schema.WriteString(fmt.Sprintf("Table: %s\n", t.name))
		schema.WriteString(t.create)
		schema.WriteString("\n\n")
	}
	return schema.String(), nil
}

type tableDef struct {
	name   string
	create string
}

func (d *Database) mysqlTables(ctx context.Context) ([]tableDef, error) {
	rows, err := d.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	defs := make([]tableDef, 0, len(tables))
	for _, name := range tables {
		// MySQL returns the table name as the first column.
		var table, create string
		q := "SHOW CREATE TABLE `" + strings.ReplaceAll(name, "`", "``") + "`"
		if err := d.db.QueryRowContext(ctx, q).Scan(&table, &create); err != nil {
			log.Debug().Err(err).Str("table", name).Msg("skipping table definition")
			continue
		}
		defs = append(defs, tableDef{name: name, create: create})
	}
	return defs, nil
}

func (d *Database) sqliteTables(ctx context.Context) ([]tableDef, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []tableDef
	for rows.Next() {
		var def tableDef
		if err := rows.Scan(&def.name, &def.create); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}
