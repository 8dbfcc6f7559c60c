// Package configs holds the configuration documents shipped with the binaries.
package configs

import _ "embed"

// DefaultSchema is the canonical exercise schema (version 2).
//
//go:embed schema.yaml
var DefaultSchema []byte

// SampleConfig is the reference config.yaml, used by tests and as documentation.
//
//go:embed config.yaml
var SampleConfig []byte
