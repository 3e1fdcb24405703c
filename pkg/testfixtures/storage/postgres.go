package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/assets"
	"github.com/mindsurve/taskgen/pkg/testutils"
)

const postgresImage = "postgres:17"

type postgresTestContainer struct {
	addr     string
	version  int64
	username string
	password string
}

// NewPostgresTestContainer returns an unstarted postgres test container. Call
// RunPostgresTestContainer to boot it.
func NewPostgresTestContainer() *postgresTestContainer {
	return &postgresTestContainer{}
}

func (p *postgresTestContainer) GetDatabaseSchemaVersion() int64 {
	return p.version
}

// RunPostgresTestContainer starts a postgres docker container, waits until it
// accepts connections and migrates it to the latest schema.
func (p *postgresTestContainer) RunPostgresTestContainer(t testing.TB) DatastoreTestContainer {
	dockerClient, err := testutils.NewDockerClient()
	require.NoError(t, err)
	t.Cleanup(func() {
		dockerClient.Close()
	})

	err = dockerClient.PullImage(context.Background(), postgresImage)
	require.NoError(t, err)

	containerCfg := container.Config{
		Env: []string{
			"POSTGRES_DB=taskgen",
			"POSTGRES_PASSWORD=secret",
		},
		ExposedPorts: nat.PortSet{
			nat.Port("5432/tcp"): {},
		},
		Image: postgresImage,
	}

	hostCfg := container.HostConfig{
		AutoRemove:      true,
		PublishAllPorts: true,
		ExtraHosts:      []string{"host.docker.internal:host-gateway"},
	}

	name := fmt.Sprintf("postgres-%s", ulid.Make().String())

	cont, err := dockerClient.RunContainer(context.Background(), &containerCfg, &hostCfg, name)
	require.NoError(t, err, "failed to run postgres docker container")

	t.Cleanup(func() {
		t.Logf("stopping %s", name)

		if err := dockerClient.StopContainer(context.Background(), cont.ID, 5*time.Second); err != nil {
			t.Logf("stop postgres container: %v", err)
		}

		t.Logf("stopped %s", name)
	})

	ports, ok := cont.NetworkSettings.Ports["5432/tcp"]
	if !ok || len(ports) == 0 {
		require.Fail(t, "no host port mapping for the postgres container")
	}

	ctr := &postgresTestContainer{
		addr:     "localhost:" + ports[0].HostPort,
		username: "postgres",
		password: "secret",
	}

	uri := fmt.Sprintf("postgres://%s:%s@%s/taskgen?sslmode=disable", ctr.username, ctr.password, ctr.addr)

	db, err := sql.Open("pgx", uri)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(db.Ping, policy)
	require.NoError(t, err, "postgres container did not become ready")

	fsys, err := fs.Sub(assets.EmbedMigrations, assets.PostgresMigrationDir)
	require.NoError(t, err)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	require.NoError(t, err)

	_, err = provider.Up(context.Background())
	require.NoError(t, err)

	version, err := provider.GetDBVersion(context.Background())
	require.NoError(t, err)
	ctr.version = version

	return ctr
}

// GetConnectionURI returns the URI of the running postgres instance.
func (p *postgresTestContainer) GetConnectionURI(includeCredentials bool) string {
	var creds string
	if includeCredentials {
		creds = p.username + ":" + p.password + "@"
	}

	return fmt.Sprintf("postgres://%s%s/taskgen?sslmode=disable", creds, p.addr)
}

func (p *postgresTestContainer) GetUsername() string {
	return p.username
}

func (p *postgresTestContainer) GetPassword() string {
	return p.password
}
