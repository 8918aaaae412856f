// Package schemas holds the JSON Schema definitions for on-disk file
// formats, embedded so validation never depends on the working directory.
package schemas

import _ "embed"

// FailureLedger is the schema for per-work failure ledger files.
//
//go:embed failure_ledger.schema.json
var FailureLedger []byte
