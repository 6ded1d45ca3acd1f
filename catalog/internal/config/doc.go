// Package config loads the catalog service configuration.
//
// The catalog reads the `catalog:` section of config.yaml; the `viewer:` key
// in the same file is ignored. Missing fields are filled with defaults before
// validation. The API key itself is never stored in the file: auth.key_env
// names the environment variable that holds it.
package config
