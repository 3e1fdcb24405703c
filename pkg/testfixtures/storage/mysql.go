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
	"github.com/go-sql-driver/mysql"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/assets"
	"github.com/mindsurve/taskgen/pkg/testutils"
)

const (
	mySQLImage = "mysql:8"

	expireTimeout = 10 * time.Minute
)

type mySQLTestContainer struct {
	addr     string
	version  int64
	username string
	password string
}

// NewMySQLTestContainer returns an unstarted mysql test container. Call
// RunMySQLTestContainer to boot it.
func NewMySQLTestContainer() *mySQLTestContainer {
	return &mySQLTestContainer{}
}

func (m *mySQLTestContainer) GetDatabaseSchemaVersion() int64 {
	return m.version
}

// RunMySQLTestContainer starts a mysql docker container, waits until it
// accepts connections and migrates it to the latest schema.
func (m *mySQLTestContainer) RunMySQLTestContainer(t testing.TB) DatastoreTestContainer {
	dockerClient, err := testutils.NewDockerClient()
	require.NoError(t, err)
	t.Cleanup(func() {
		dockerClient.Close()
	})

	err = dockerClient.PullImage(context.Background(), mySQLImage)
	require.NoError(t, err)

	containerCfg := container.Config{
		Env: []string{
			"MYSQL_DATABASE=taskgen",
			"MYSQL_ROOT_PASSWORD=secret",
		},
		ExposedPorts: nat.PortSet{
			nat.Port("3306/tcp"): {},
		},
		Image: mySQLImage,
	}

	hostCfg := container.HostConfig{
		AutoRemove:      true,
		PublishAllPorts: true,
	}

	name := "mysql-" + ulid.Make().String()

	cont, err := dockerClient.RunContainer(context.Background(), &containerCfg, &hostCfg, name)
	require.NoError(t, err, "failed to run mysql docker container")

	stop := func() {
		t.Logf("stopping %s", name)

		if err := dockerClient.StopContainer(context.Background(), cont.ID, 5*time.Second); err != nil {
			t.Logf("stop mysql container: %v", err)
		}

		t.Logf("stopped %s", name)
	}
	t.Cleanup(stop)

	p, ok := cont.NetworkSettings.Ports["3306/tcp"]
	if !ok || len(p) == 0 {
		t.Fatalf("no host port mapping for the mysql container")
	}

	// Stop the container if a hung test never reaches the cleanup above.
	expire := time.AfterFunc(expireTimeout, func() {
		t.Logf("expiring container %s", name)
		if err := dockerClient.StopContainer(context.Background(), cont.ID, 0); err != nil {
			t.Logf("expire mysql container: %v", err)
		}
	})
	t.Cleanup(func() { expire.Stop() })

	ctr := &mySQLTestContainer{
		addr:     "localhost:" + p[0].HostPort,
		username: "root",
		password: "secret",
	}

	uri := fmt.Sprintf("%s:%s@tcp(%s)/taskgen?parseTime=true", ctr.username, ctr.password, ctr.addr)

	err = mysql.SetLogger(&mysql.NopLogger{})
	require.NoError(t, err)

	db, err := sql.Open("mysql", uri)
	require.NoError(t, err)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute
	err = backoff.Retry(db.Ping, policy)
	if err != nil {
		stop()
		t.Fatalf("mysql container did not become ready: %v", err)
	}

	fsys, err := fs.Sub(assets.EmbedMigrations, assets.MySQLMigrationDir)
	require.NoError(t, err)

	provider, err := goose.NewProvider(goose.DialectMySQL, db, fsys)
	require.NoError(t, err)

	_, err = provider.Up(context.Background())
	require.NoError(t, err)

	version, err := provider.GetDBVersion(context.Background())
	require.NoError(t, err)
	ctr.version = version

	err = db.Close()
	require.NoError(t, err)

	return ctr
}

// GetConnectionURI returns the URI of the running mysql instance.
func (m *mySQLTestContainer) GetConnectionURI(includeCredentials bool) string {
	creds := ""
	if includeCredentials {
		creds = m.username + ":" + m.password + "@"
	}

	return fmt.Sprintf("%stcp(%s)/taskgen?parseTime=true", creds, m.addr)
}

func (m *mySQLTestContainer) GetUsername() string {
	return m.username
}

func (m *mySQLTestContainer) GetPassword() string {
	return m.password
}
