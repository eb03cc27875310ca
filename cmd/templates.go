package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hube-energy/emissor/internal/render"
)

// templatesCmd lists the note templates in the templates directory.
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available note templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := templateStore().List()
		if err != nil {
			return err
		}

		def := app.cfg.DefaultTemplate
		if def == "" {
			def = render.EmbeddedTemplateName
		}

		fmt.Printf("Templates in %s:\n", app.cfg.TemplatesDir)
		if len(names) == 0 {
			fmt.Println("  (none)")
		}
		for _, name := range names {
			marker := " "
			if name == def {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, name)
		}
		fmt.Printf("\nDefault: %s\n", def)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
