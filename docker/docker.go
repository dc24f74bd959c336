package docker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
)

const (
	postgresRepository = "postgres"
	postgresTag        = "14"
	postgresUser       = "postgres"
	postgresPassword   = "postgres"
	postgresDB         = "postgres"
)

// Postgres is a disposable database container
type Postgres struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string

	pool     *dockertest.Pool
	resource *dockertest.Resource
}

func configureContainerCleanup(config *docker.HostConfig) {
	config.AutoRemove = true
	config.RestartPolicy = docker.RestartPolicy{Name: "no"}
}

// InitPostgres starts a Postgres container and blocks until it accepts connections
func InitPostgres() (*Postgres, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not connect to docker: %w", err)
	}
	pool.MaxWait = 3 * time.Minute

	resource, err := pool.RunWithOptions(
		&dockertest.RunOptions{
			Repository: postgresRepository,
			Tag:        postgresTag,
			Env: []string{
				"POSTGRES_USER=" + postgresUser,
				"POSTGRES_PASSWORD=" + postgresPassword,
				"POSTGRES_DB=" + postgresDB,
			},
		}, configureContainerCleanup,
	)
	if err != nil {
		return nil, fmt.Errorf("could not start postgres: %w", err)
	}

	pg := &Postgres{
		User:     postgresUser,
		Password: postgresPassword,
		DBName:   postgresDB,
		pool:     pool,
		resource: resource,
	}

	hostAndPort := strings.Split(resource.GetHostPort("5432/tcp"), ":")
	if len(hostAndPort) != 2 {
		pg.Close()
		return nil, fmt.Errorf("unexpected postgres address %q", resource.GetHostPort("5432/tcp"))
	}
	pg.Host = hostAndPort[0]
	pg.Port, err = strconv.Atoi(hostAndPort[1])
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("unexpected postgres port %q: %w", hostAndPort[1], err)
	}

	if err = pool.Retry(pg.ping); err != nil {
		pg.Close()
		return nil, fmt.Errorf("could not connect to postgres: %w", err)
	}

	return pg, nil
}

// ConnectionString returns a libpq style connection string for the container
func (p *Postgres) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", p.Host, p.Port, p.User, p.Password, p.DBName)
}

// Close removes the container
func (p *Postgres) Close() error {
	return p.pool.Purge(p.resource)
}

func (p *Postgres) ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, p.ConnectionString())
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	return conn.Ping(ctx)
}
