package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/app"
)

// templateEntry is one record in the template catalog file.
type templateEntry struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

var embedTemplatesCmd = &cobra.Command{
	Use:   "embed-templates <catalog.json>",
	Short: "Embed a template catalog into the similarity index",
	Long: `Reads a JSON array of {"url", "description"} records, embeds
each description, and upserts the result into the template index.
Re-running with an updated catalog refreshes existing entries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading catalog: %w", err)
		}
		var entries []templateEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("parsing catalog: %w", err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("catalog is empty")
		}

		a, err := app.Setup(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("initializing application: %w", err)
		}
		defer func() { _ = a.Close() }()

		for i, entry := range entries {
			if entry.URL == "" || entry.Description == "" {
				return fmt.Errorf("catalog entry %d: url and description are required", i)
			}
			embedding, err := a.Matcher.EmbedText(cmd.Context(), entry.Description)
			if err != nil {
				return fmt.Errorf("embedding %s: %w", entry.URL, err)
			}
			if err := a.Index.Upsert(cmd.Context(), entry.URL, embedding); err != nil {
				return fmt.Errorf("indexing %s: %w", entry.URL, err)
			}
			logger.Debug("indexed template", "url", entry.URL)
		}

		total, err := a.Index.Count(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("template catalog indexed", "entries", len(entries), "total", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(embedTemplatesCmd)
}
