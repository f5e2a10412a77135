package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fpt/go-expert-panel/internal/config"
	"github.com/fpt/go-expert-panel/internal/experts"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List expert domains and their experts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		for _, d := range catalog.Domains() {
			fmt.Printf("%s (%s)\n", d.Name, d.Key)
			if d.Description != "" {
				fmt.Printf("  %s\n", d.Description)
			}
			for _, e := range d.Experts {
				fmt.Printf("  - %-24s %s\n", e.Key, e.Name)
			}
			fmt.Println()
		}
		return nil
	},
}

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "List sample panel configurations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		for _, s := range catalog.Samples() {
			fmt.Printf("%s\n", s.Key)
			fmt.Printf("  Domain:  %s\n", s.Domain)
			fmt.Printf("  Focus:   %s\n", s.Focus)
			fmt.Printf("  Experts: %s\n", strings.Join(s.Experts, ", "))
			fmt.Printf("  Rounds:  %s\n\n", strings.Join(s.Rounds, " → "))
		}
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the panel YAML file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := config.PanelSchema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	},
}

// loadCatalog loads the built-in catalog plus any configured extra paths
func loadCatalog() (*experts.Catalog, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return experts.Load(append(settings.CatalogPaths, runOpts.catalogPaths...)...)
}
