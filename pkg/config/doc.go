// Package config provides configuration management for memstore.
//
// # Key Features
//
// - StoreConfig: one structure for pool, retention, maintenance, retry,
// observability and snapshot settings
// - Environment variable substitution with ${VAR_NAME} syntax inside YAML
// - MEMSTORE_* environment overrides layered on top of the file
// - Defaults and validation
//
// # Usage
//
// ## Loading
//
//	cfg, err := config.LoadStoreConfig("memstore.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// ## Environment Variable Substitution
//
//	# memstore.yaml
//	name: catalog
//	observability:
//	  metrics_addr: ${METRICS_ADDR}
//
// ## Environment Overrides
//
// Every key can be overridden by an upper-cased, underscore-separated
// variable carrying the MEMSTORE prefix:
//
//	MEMSTORE_POOL_MAX_CONNECTIONS=50
//	MEMSTORE_RETENTION_HORIZON_DAYS=30
//	MEMSTORE_MAINTENANCE_COLLECTIONS=orders,reviews
//
// Precedence, lowest first: DefaultStoreConfig, the YAML file, the
// environment. The merged result is validated before it is returned.
package config
