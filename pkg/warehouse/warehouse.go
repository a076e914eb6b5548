package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ds124wfegd/fleet-insight/config"
	"github.com/ds124wfegd/fleet-insight/internal/entity"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	sf "github.com/snowflakedb/gosnowflake"
)

const (
	DriverSnowflake = "snowflake"
	DriverPostgres  = "postgres"
)

// Dialect holds the few statements and bind styles that differ between drivers.
type Dialect struct {
	Driver       string
	VersionQuery string
	numbered     bool
}

func NewDialect(driver string) (Dialect, error) {
	switch driver {
	case DriverSnowflake:
		return Dialect{Driver: driver, VersionQuery: "SELECT CURRENT_VERSION()"}, nil
	case DriverPostgres:
		return Dialect{Driver: driver, VersionQuery: "SELECT version()", numbered: true}, nil
	default:
		return Dialect{}, fmt.Errorf("%w: unsupported warehouse driver %q", entity.ErrInvalidInput, driver)
	}
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// DSN builds the driver connection string from configuration.
func DSN(cfg *config.WarehouseConfig) (string, error) {
	switch cfg.Driver {
	case DriverSnowflake:
		return sf.DSN(&sf.Config{
			Account:        cfg.Account,
			User:           cfg.User,
			Password:       cfg.Password,
			Warehouse:      cfg.Warehouse,
			Database:       cfg.Database,
			Schema:         cfg.Schema,
			Role:           cfg.Role,
			LoginTimeout:   cfg.QueryTimeout,
			RequestTimeout: cfg.QueryTimeout,
		})
	case DriverPostgres:
		q := url.Values{}
		q.Set("sslmode", cfg.SSLMode)
		q.Set("connect_timeout", strconv.Itoa(int(cfg.QueryTimeout.Seconds())))
		if cfg.Schema != "" {
			q.Set("search_path", cfg.Schema)
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Path:     "/" + cfg.Database,
			RawQuery: q.Encode(),
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("%w: unsupported warehouse driver %q", entity.ErrInvalidInput, cfg.Driver)
	}
}

// NewWarehouseDB opens the connection pool. No connection is made until the
// first Ping or query.
func NewWarehouseDB(cfg *config.WarehouseConfig) (*sql.DB, Dialect, error) {
	dialect, err := NewDialect(cfg.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to build dsn: %w", err)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("%w: failed to open database: %v", entity.ErrConnection, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, dialect, nil
}

// Ping verifies connectivity within timeout.
func Ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("%w: failed to ping database: %v", entity.ErrConnection, err)
	}

	logrus.Info("Successfully connected to warehouse")
	return nil
}
