// Package migrations holds the subset of the Signal Desktop schema the exporter reads.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
