package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/app"
)

var matchCmd = &cobra.Command{
	Use:   "match <description>",
	Short: "Match a project description against indexed templates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := app.Setup(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("initializing application: %w", err)
		}
		defer func() { _ = a.Close() }()

		matches, err := a.Matcher.Match(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("no templates matched")
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
