// Package config loads the settings of the backup-config command from an
// optional YAML file, BACKUP_CONFIG_* environment variables and command line
// flags, and validates them before use.
package config
