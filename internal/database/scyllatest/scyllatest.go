// Package scyllatest démarre un nœud ScyllaDB jetable pour les tests d'intégration.
package scyllatest

import (
	"context"
	"testing"
	"time"

	"storefront_back_end/internal/database"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image    = "scylladb/scylla:6.2"
	keyspace = "storefront_test"
)

// Session démarre un conteneur, crée le keyspace et applique les schémas demandés.
// Le test est ignoré en mode -short.
func Session(t *testing.T, schemas ...[]string) *gocql.Session {
	t.Helper()
	if testing.Short() {
		t.Skip("intégration ScyllaDB ignorée en mode -short")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"9042/tcp"},
			Cmd:          []string{"--smp", "1", "--memory", "512M", "--overprovisioned", "1", "--developer-mode", "1"},
			WaitingFor:   wait.ForListeningPort("9042/tcp").WithStartupTimeout(3 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9042")
	require.NoError(t, err)

	hosts := []string{host + ":" + port.Port()}

	// Le port CQL peut s'ouvrir avant que le nœud accepte les requêtes.
	require.Eventually(t, func() bool {
		return database.EnsureKeyspace(hosts, keyspace, 10*time.Second) == nil
	}, 2*time.Minute, 2*time.Second)

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.One
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = 10 * time.Second
	cluster.DisableInitialHostLookup = true

	session, err := cluster.CreateSession()
	require.NoError(t, err)
	t.Cleanup(session.Close)

	for _, schema := range schemas {
		require.NoError(t, database.ApplyStatements(session, schema))
	}
	return session
}
