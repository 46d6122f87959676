// Package embeddedConfig carries the configuration used when no file is
// found.
package embeddedConfig

import _ "embed"

//go:embed keyweaver.conf
var Toml string
