package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/app"
)

var (
	ideaUserID string
	ideaTopic  string
)

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Get the next project idea",
	Long: `Prints the next idea for the given user as JSON. Without
--user the idea is drawn at random from the stored pool and no
exposure is recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		userID := uuid.Nil
		if ideaUserID != "" {
			userID, err = uuid.Parse(ideaUserID)
			if err != nil {
				return fmt.Errorf("--user must be a UUID: %w", err)
			}
		}

		a, err := app.Setup(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("initializing application: %w", err)
		}
		defer func() { _ = a.Close() }()

		next, err := a.Selector.Next(cmd.Context(), userID, ideaTopic)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(next)
	},
}

func init() {
	ideaCmd.Flags().StringVar(&ideaUserID, "user", "", "user UUID; omit for an anonymous random idea")
	ideaCmd.Flags().StringVar(&ideaTopic, "topic", "", "topic to draw from; omit to pick one at random")
	rootCmd.AddCommand(ideaCmd)
}
