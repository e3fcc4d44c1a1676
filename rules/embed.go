// Package rules holds the built-in lint rules. Each top-level .risor file
// is one rule, named after the file.
package rules

import "embed"

// FS contains the built-in rule scripts.
//
//go:embed *.risor
var FS embed.FS
