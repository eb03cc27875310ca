// =============================================================================
// Billing Note Emitter - Version Command
// =============================================================================
//
// This file defines the 'version' command, which displays the application
// version and build information.
//
// COMMAND USAGE:
//   emissor version
//
// OUTPUT:
//   Billing Note Emitter
//   Version:    1.0.0
//   Build Date: 2025-03-07
//   Commit:     3f9c2e1a7b04
//   Module:     github.com/hube-energy/emissor
//   Template:   nota_padrao.html (embedded)
//   Go Version: go1.25.5
//
// Commit comes from the VCS stamp Go embeds in the binary; "unknown" when
// the build carries none.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/hube-energy/emissor/internal/render"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/hube-energy/emissor/cmd.Version=1.0.0' \
//     -X 'github.com/hube-energy/emissor/cmd.BuildDate=2025-03-07'"

// Version is the application version.
// Set at build time using ldflags.
var Version = "1.0.0"

// BuildDate is the date the application was built.
// Set at build time using ldflags.
var BuildDate = "unknown"

// modulePath is reported when the binary carries no build information.
const modulePath = "github.com/hube-energy/emissor"

// =============================================================================
// VERSION COMMAND DEFINITION
// =============================================================================

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, VCS commit, the embedded note template and the Go runtime version.`,
	Run: func(cmd *cobra.Command, args []string) {
		writeVersion(cmd.OutOrStdout())
	},
}

func writeVersion(w io.Writer) {
	module, commit := buildStamp()

	fmt.Fprintln(w, "Billing Note Emitter")
	fmt.Fprintf(w, "Version:    %s\n", Version)
	fmt.Fprintf(w, "Build Date: %s\n", BuildDate)
	fmt.Fprintf(w, "Commit:     %s\n", commit)
	fmt.Fprintf(w, "Module:     %s\n", module)
	fmt.Fprintf(w, "Template:   %s (embedded)\n", render.EmbeddedTemplateName)
	fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
}

// buildStamp reads the main module path and the short VCS revision from the
// binary's build information.
func buildStamp() (module, commit string) {
	module, commit = modulePath, "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return module, commit
	}
	if info.Main.Path != "" {
		module = info.Main.Path
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			commit = setting.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		}
	}
	return module, commit
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the version command with the root command.
func init() {
	rootCmd.AddCommand(versionCmd)
}
