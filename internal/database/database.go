package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront_back_end/internal/config"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// --- Configuration ScyllaDB ---
type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

type ScyllaManager struct {
	sessions map[string]*gocql.Session // keyspace → session
	configs  map[string]ScyllaKeyspaceConfig
	mu       sync.Mutex
}

// Connections regroupe les clients ouverts au démarrage.
type Connections struct {
	Scylla *ScyllaManager
	Redis  *redis.Client
}

func (c *Connections) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

// NewScyllaManager prépare les sessions des keyspaces commandes et produits.
func NewScyllaManager(cfg config.Scylla) (*ScyllaManager, error) {
	sm := &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  keyspaceConfigs(cfg),
	}

	for keyspace := range sm.configs {
		if _, err := sm.GetSession(keyspace); err != nil {
			sm.Close()
			return nil, fmt.Errorf("échec initialisation keyspace %s: %w", keyspace, err)
		}
	}
	return sm, nil
}

func keyspaceConfigs(cfg config.Scylla) map[string]ScyllaKeyspaceConfig {
	base := ScyllaKeyspaceConfig{
		Hosts:       cfg.Hosts,
		SSLEnabled:  cfg.SSLEnabled,
		CACertPath:  cfg.CACertPath,
		Timeout:     cfg.Timeout,
		NumConns:    cfg.NumConns,
		Consistency: gocql.Quorum,
	}

	configs := make(map[string]ScyllaKeyspaceConfig)

	orders := base
	orders.Keyspace = cfg.OrdersKeyspace
	orders.Username = cfg.OrdersRole
	orders.Password = cfg.OrdersPassword
	configs[orders.Keyspace] = orders

	// Un seul keyspace peut servir les deux si l'opérateur le souhaite.
	if cfg.ProductsKeyspace != cfg.OrdersKeyspace {
		products := base
		products.Keyspace = cfg.ProductsKeyspace
		products.Username = cfg.ProductsRole
		products.Password = cfg.ProductsPassword
		configs[products.Keyspace] = products
	}
	return configs
}

// createScyllaCluster crée une configuration de cluster pour un keyspace
func createScyllaCluster(cfg ScyllaKeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = cfg.Consistency
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = cfg.Timeout
	cluster.NumConns = cfg.NumConns

	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	if cfg.SSLEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.CACertPath,
			EnableHostVerification: cfg.CACertPath != "",
		}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// GetSession retourne une session pour un keyspace donné
func (sm *ScyllaManager) GetSession(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cfg, exists := sm.configs[keyspace]
	if !exists {
		return nil, fmt.Errorf("keyspace '%s' non configuré", keyspace)
	}

	if session, exists := sm.sessions[keyspace]; exists {
		if err := session.Query("SELECT now() FROM system.local").Exec(); err == nil {
			return session, nil
		}
		// Si la session est invalide, la recréer
		session.Close()
	}

	session, err := createScyllaCluster(cfg).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	zap.L().Info("✅ Nouvelle session ScyllaDB",
		zap.String("keyspace", keyspace),
		zap.String("role", cfg.Username))

	return session, nil
}

// Close ferme toutes les sessions ScyllaDB
func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for keyspace, session := range sm.sessions {
		session.Close()
		zap.L().Info("🔌 Session ScyllaDB fermée", zap.String("keyspace", keyspace))
	}
	sm.sessions = make(map[string]*gocql.Session)
}

// ConnectRedis ouvre le client Redis et vérifie la connexion.
func ConnectRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connexion Redis: %w", err)
	}
	zap.L().Info("✅ Connecté à Redis", zap.String("addr", cfg.Host))
	return client, nil
}

// Connect ouvre Redis et, si le driver l'exige, ScyllaDB.
func Connect(ctx context.Context, cfg *config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{}

	client, err := ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	conns.Redis = client

	if cfg.StorageDriver == config.StorageScylla {
		manager, err := NewScyllaManager(cfg.Scylla)
		if err != nil {
			conns.Close()
			return nil, err
		}
		conns.Scylla = manager

		if cfg.Scylla.CreateSchema {
			if err := conns.ApplySchema(cfg.Scylla); err != nil {
				conns.Close()
				return nil, err
			}
		}
	}

	zap.L().Info("✅ Toutes les bases de données sont connectées",
		zap.String("storage", cfg.StorageDriver))
	return conns, nil
}

func (c *Connections) OrdersSession(cfg config.Scylla) (*gocql.Session, error) {
	return c.Scylla.GetSession(cfg.OrdersKeyspace)
}

func (c *Connections) ProductsSession(cfg config.Scylla) (*gocql.Session, error) {
	return c.Scylla.GetSession(cfg.ProductsKeyspace)
}
