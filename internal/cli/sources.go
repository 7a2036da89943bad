package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-harvest/internal/logger"
	"github.com/pfrederiksen/event-harvest/internal/source"
)

func newSourcesCmd(global *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseFormat(format, FormatText, FormatJSON)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, global)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			sources, err := a.store.LoadSources(ctx)
			if err != nil {
				return err
			}
			return eris.Wrap(WriteSources(cmd.OutOrStdout(), sources, f), "write output")
		},
	}
	cmd.Flags().StringVar(&format, "format", string(FormatText), "Output format: text or json")

	cmd.AddCommand(newSourcesImportCmd(global), newSourcesHandlersCmd(global))
	return cmd
}

// decodeSources accepts {"sources": [...]} or a bare array
func decodeSources(data []byte) ([]source.Descriptor, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var sources []source.Descriptor
		if err := json.Unmarshal(data, &sources); err != nil {
			return nil, eris.Wrap(err, "parse sources")
		}
		return sources, nil
	}

	var doc struct {
		Sources []source.Descriptor `json:"sources"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "parse sources")
	}
	return doc.Sources, nil
}

// checkSources validates every descriptor, rejects duplicate ids and makes
// sure custom handlers exist
func checkSources(sources []source.Descriptor, registry *source.Registry) error {
	seen := make(map[string]bool, len(sources))
	for i := range sources {
		d := &sources[i]
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.ID] {
			return eris.Errorf("duplicate source id %q", d.ID)
		}
		seen[d.ID] = true
		if h := d.Handler(); h != "" {
			if _, ok := registry.Lookup(h); !ok {
				return eris.Errorf("source %s: unknown handler %q", d.ID, h)
			}
		}
	}
	return nil
}

func newSourcesImportCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the source registry with a sources JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return eris.Wrap(err, "read sources file")
			}
			sources, err := decodeSources(data)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, global)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			if err := checkSources(sources, a.registry); err != nil {
				return err
			}
			if err := a.store.SaveSources(ctx, sources); err != nil {
				return err
			}

			logger.Info("Imported sources", logger.Fields{"file": args[0], "count": len(sources)})
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sources.\n", len(sources))
			return nil
		},
	}
}

func newSourcesHandlersCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: "List the custom handler ids sources may name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			for _, id := range a.registry.IDs() {
				o, _ := a.registry.Lookup(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, o.Organizer.Name)
			}
			return nil
		},
	}
}
