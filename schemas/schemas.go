// Package schemas embeds the JSON schemas for benchgate's YAML files.
package schemas

import _ "embed"

// ConfigSchemaJSON is the schema for .benchgate.yaml.
//
//go:embed config.schema.json
var ConfigSchemaJSON string
