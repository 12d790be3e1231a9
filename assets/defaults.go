package assets

import (
	"embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultShieldYAML contains the embedded default shield rules.
//
//go:embed defaults/shield.yaml
var DefaultShieldYAML []byte

// Catalog holds the built-in action definitions, one YAML file per category.
//
//go:embed catalog/*.yaml
var Catalog embed.FS

// CatalogDir is the directory of Catalog that holds the YAML files.
const CatalogDir = "catalog"
