package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fpt/go-expert-panel/internal/config"
)

var flagForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default settings file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultSettingsPath()
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !flagForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.SaveSettings(path, config.GetDefaultSettings()); err != nil {
			return err
		}
		fmt.Printf("✓ Settings written to %s\n", path)
		fmt.Println("💡 API keys are read from OPENAI_API_KEY, ANTHROPIC_API_KEY and GEMINI_API_KEY")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Overwrite an existing settings file")
}
