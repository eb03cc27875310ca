// =============================================================================
// Billing Note Emitter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Billing Note Emitter. It delegates to
// the Cobra commands in the cmd package.
//
// USAGE:
//   emissor generate    - Render the notes of a dataset into a ZIP archive
//   emissor validate    - Check a dataset's columns and totals
//   emissor preview     - Show the note values of the first rows
//   emissor templates   - List the available note templates
//   emissor serve       - Start the HTTP front-end
//   emissor version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Parsing, note building, rendering and the HTTP server
//   - pkg/           : Shared file utilities
//   - templates/     : Note templates (HTML)
//
// =============================================================================

package main

import (
	"github.com/hube-energy/emissor/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
