// Package lottery provides embedded assets for the lottery binary.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML], which cmd/lottery copies into the data directory on
// first run.
package lottery

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
