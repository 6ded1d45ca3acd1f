package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/showroom/viewer/internal/config"
	"github.com/obsidianstack/showroom/viewer/internal/fetcher"
	"github.com/obsidianstack/showroom/viewer/internal/store"
	"github.com/obsidianstack/showroom/viewer/internal/view"
)

// Output formats of the list command.
const (
	outputText = "text"
	outputJSON = "json"
	outputHTML = "html"
)

func newListCommand(root *rootOptions) *cobra.Command {
	var (
		output   string
		endpoint string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch the collection once and print it",
		Example: `  # Print the collection as a table
  viewer list

  # Print the JSON rows from another endpoint
  viewer list --endpoint http://localhost:3000/api/v1/cars.json --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch output {
			case outputText, outputJSON, outputHTML:
			default:
				return fmt.Errorf("invalid --output %q: want text, json or html", output)
			}

			cfg, err := config.LoadOrDefault(root.configPath)
			if err != nil {
				return err
			}
			if endpoint != "" {
				cfg.Viewer.Source.Endpoint = endpoint
			}

			f, err := fetcher.New(cfg.Viewer.Source)
			if err != nil {
				return err
			}
			// The failure is returned below; no separate log line.
			st := store.New(f, store.WithErrorHandler(func(error) {}))
			if err := st.Activate(cmd.Context()); err != nil {
				return err
			}
			defer st.Deactivate()

			if err := st.Wait(cmd.Context()); err != nil {
				return err
			}

			layout := view.LayoutFrom(cfg.Viewer.View)
			return render(cmd.OutOrStdout(), output, layout, st)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text|json|html)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "override the configured endpoint")
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{outputText, outputJSON, outputHTML}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func render(w io.Writer, output string, layout view.Layout, st *store.Store) error {
	records := st.Records()
	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view.BuildSnapshot(records, layout, time.Now()))
	case outputHTML:
		return view.RenderHTML(w, layout, view.Rows(records, layout))
	default:
		return view.RenderText(w, layout, view.Rows(records, layout))
	}
}
