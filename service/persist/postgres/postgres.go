package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/log/logrusadapter"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mikeydub/go-gallery-layout/env"
	"github.com/mikeydub/go-gallery-layout/service/logger"
	"github.com/mikeydub/go-gallery-layout/service/tracing"
	"github.com/mikeydub/go-gallery-layout/util/retry"
)

var DefaultConnectRetry = retry.Retry{MinWait: 2, MaxWait: 4, MaxRetries: 3}

type ErrRoleDoesNotExist struct {
	role string
}

func (e ErrRoleDoesNotExist) Error() string {
	return fmt.Sprintf("role '%s' does not exist", e.role)
}

type connectionParams struct {
	user     string
	password string
	dbname   string
	host     string
	port     int
	appname  string
	maxConns int32
	retry    *retry.Retry
}

func (c *connectionParams) toConnectionString() string {
	port := c.port
	if port == 0 {
		port = 5432
	}

	connStr := fmt.Sprintf("user=%s dbname=%s host=%s port=%d", c.user, c.dbname, c.host, port)

	// Empty passwords should be omitted so they don't interfere with other parameters
	// (e.g. "password= dbname=something" causes Postgres to ignore the dbname)
	if c.password != "" {
		connStr += fmt.Sprintf(" password=%s", c.password)
	}

	return connStr
}

func newConnectionParamsFromEnv(ctx context.Context) connectionParams {
	return connectionParams{
		user:     env.GetString(ctx, "POSTGRES_USER"),
		password: env.GetString(ctx, "POSTGRES_PASSWORD"),
		dbname:   env.GetString(ctx, "POSTGRES_DB"),
		host:     env.GetString(ctx, "POSTGRES_HOST"),
		port:     env.GetInt(ctx, "POSTGRES_PORT"),
		maxConns: 10,

		// Retry connections by default
		retry: &DefaultConnectRetry,
	}
}

type ConnectionOption func(params *connectionParams)

func WithUser(user string) ConnectionOption {
	return func(params *connectionParams) {
		params.user = user
	}
}

func WithPassword(password string) ConnectionOption {
	return func(params *connectionParams) {
		params.password = password
	}
}

func WithDBName(dbname string) ConnectionOption {
	return func(params *connectionParams) {
		params.dbname = dbname
	}
}

func WithHost(host string) ConnectionOption {
	return func(params *connectionParams) {
		params.host = host
	}
}

func WithPort(port int) ConnectionOption {
	return func(params *connectionParams) {
		params.port = port
	}
}

func WithAppName(appName string) ConnectionOption {
	return func(params *connectionParams) {
		params.appname = appName
	}
}

func WithMaxConns(maxConns int32) ConnectionOption {
	return func(params *connectionParams) {
		params.maxConns = maxConns
	}
}

func WithRetries(r retry.Retry) ConnectionOption {
	return func(params *connectionParams) {
		params.retry = &r
	}
}

func WithNoRetries() ConnectionOption {
	return func(params *connectionParams) {
		params.retry = nil
	}
}

// NewPgxClient creates a new Postgres client via pgx. By default, it will try to connect 3 times before returning an error.
func NewPgxClient(ctx context.Context, opts ...ConnectionOption) (*pgxpool.Pool, error) {
	params := newConnectionParamsFromEnv(ctx)
	for _, opt := range opts {
		opt(&params)
	}

	config, err := pgxpool.ParseConfig(params.toConnectionString())
	if err != nil {
		return nil, fmt.Errorf("could not parse pgx connection string: %w", err)
	}

	if params.appname != "" {
		config.ConnConfig.RuntimeParams["application_name"] = params.appname
	}

	if params.maxConns > 0 {
		config.MaxConns = params.maxConns
	}

	config.ConnConfig.Logger = &pgxTracer{
		next:         logrusadapter.NewLogger(logger.For(ctx)),
		continueOnly: true,
	}
	config.ConnConfig.LogLevel = pgx.LogLevelInfo

	var db *pgxpool.Pool

	connectF := func(ctx context.Context) error {
		var err error
		db, err = pgxpool.ConnectConfig(ctx, config)
		return err
	}

	if params.retry != nil {
		err = retry.RetryFunc(ctx, connectF, func(err error) bool { return !isRoleDoesNotExist(err, params.user) }, *params.retry)
	} else {
		err = connectF(ctx)
	}

	if isRoleDoesNotExist(err, params.user) {
		return nil, ErrRoleDoesNotExist{params.user}
	}
	if err != nil {
		return nil, fmt.Errorf("could not open database connection: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func isRoleDoesNotExist(err error, role string) bool {
	return err != nil && strings.Contains(err.Error(), fmt.Sprintf("role \"%s\" does not exist", role))
}

// pgxTracer records database operations as Sentry spans and forwards log lines to the next logger
type pgxTracer struct {
	next         pgx.Logger
	continueOnly bool
}

func (l *pgxTracer) Log(ctx context.Context, level pgx.LogLevel, msg string, data map[string]interface{}) {
	if l.next != nil && level <= pgx.LogLevelWarn {
		l.next.Log(ctx, level, msg, data)
	}

	if data == nil {
		return
	}

	// Get the current time before we do anything else, since this is our best approximation
	// of when the operation "finished"
	endTime := time.Now()

	if l.continueOnly && sentry.TransactionFromContext(ctx) == nil {
		return
	}

	// Only trace things that have a duration
	duration, ok := data["time"].(time.Duration)
	if !ok {
		return
	}

	operation := "other"
	if strings.EqualFold(msg, "query") {
		operation = "query"
	} else if strings.EqualFold(msg, "exec") {
		operation = "exec"
	}

	description := msg
	spanData := map[string]interface{}{
		"logMessage": msg,
	}

	if sqlStr, ok := data["sql"].(string); ok {
		description = sqlStr
		spanData["sql"] = sqlStr
	}

	if rows, ok := data["rowCount"]; ok {
		spanData["rowCount"] = rows
	}

	span, _ := tracing.StartSpan(ctx, "db."+operation, description)
	tracing.AddEventDataToSpan(span, spanData)

	// pgx calls the logger after the operation happens, so move the span back to when it started
	span.StartTime = endTime.Add(-duration)
	span.EndTime = endTime
	tracing.FinishSpan(span)
}
