// Package config loads the dashboard configuration.
//
// # Configuration Sources
//
// Values are layered in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// The file is taken from DROPOUT_CONFIG_FILE, or the first of config.yaml,
// configs/config.yaml, ../configs/config.yaml that exists.
//
// # Environment Variables
//
// Variables follow the pattern DROPOUT_<SECTION>_<FIELD>:
//
//	DROPOUT_SERVER_PORT=8080
//	DROPOUT_DATASET_WORKBOOK=data/jumlah-siswa-putus-sekolah-updated.xlsx
//	DROPOUT_DATASET_LEVEL_COLUMNS=Jumlah Putus SD,Jumlah Putus SMP,Jumlah Putus SMA,Jumlah Putus SMK
//	DROPOUT_CLUSTERING_SEED=42
//	DROPOUT_LOGGING_LEVEL=debug
//
// # Validation
//
// The merged configuration is checked with validator struct tags: the
// server port range, exactly four level columns, MinK <= DefaultK <= MaxK
// within [2, 10], and at least ten k-means initializations.
package config
