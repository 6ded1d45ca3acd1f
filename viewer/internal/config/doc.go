// Package config loads and watches the viewer configuration file (config.yaml).
//
// Top-level types:
//   - Config{Viewer}: the `viewer:` section; other sections are ignored
//   - Source: endpoint, timeout, auth, tls
//   - AuthConfig: mode (apikey|bearer|basic|none); Key(), Token() and
//     Password() resolve secrets from environment variables
//   - ViewConfig: title, currency symbol, and the gjson paths of the
//     key/name/category/value columns
//
// Load(path) reads the YAML file, applies defaults (endpoint
// http://localhost:3000/api/v1/cars.json, port 8080, no timeout), then
// validates. LoadOrDefault treats a missing file as "use defaults".
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config.
package config
