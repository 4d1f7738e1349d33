package config_test

import (
	"fmt"
	"log"
	"time"

	"github.com/ajitpratap0/memstore/pkg/config"
)

// ExampleDefaultStoreConfig demonstrates the defaults used when no file or
// environment override is present.
func ExampleDefaultStoreConfig() {
	cfg := config.DefaultStoreConfig()

	fmt.Printf("Max Connections: %d\n", cfg.Pool.MaxConnections)
	fmt.Printf("Acquire Timeout: %s\n", cfg.Pool.AcquireTimeout)
	fmt.Printf("Retention: %s\n", cfg.Retention.Horizon())
	fmt.Printf("Swept: %v\n", cfg.Maintenance.Collections)

	// Output:
	// Max Connections: 20
	// Acquire Timeout: 5s
	// Retention: 2160h0m0s
	// Swept: [products customers orders reviews]
}

// ExampleStoreConfig_Validate shows how to validate a configuration
// before using it.
func ExampleStoreConfig_Validate() {
	cfg := config.DefaultStoreConfig()

	cfg.Pool.MaxConnections = 64
	cfg.Pool.AcquireTimeout = 2 * time.Second
	cfg.Snapshot.Compression = "lz4"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	fmt.Println("Configuration is valid!")

	cfg.Pool.MaxConnections = 0
	fmt.Println(cfg.Validate())

	// Output:
	// Configuration is valid!
	// config: max_connections must be positive
}

// ExampleEnvVar shows the variable that overrides a configuration key.
func ExampleEnvVar() {
	fmt.Println(config.EnvVar("pool.max_connections"))
	fmt.Println(config.EnvVar("observability.log_level"))

	// Output:
	// MEMSTORE_POOL_MAX_CONNECTIONS
	// MEMSTORE_OBSERVABILITY_LOG_LEVEL
}
