package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
)

// NewBackfillCommand creates the backfill command group.
func NewBackfillCommand(a App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Re-derive stored entity fields from reference data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newBackfillIndustriesCommand(a))
	cmd.AddCommand(newBackfillScrapedCommand(a))
	return cmd
}

func newBackfillIndustriesCommand(a App) *cobra.Command {
	return &cobra.Command{
		Use:   "industries",
		Short: "Rewrite stored industry fields as canonical taxonomy triples",
		Long: `Backfill industries pages the whole store, classifies each entity's
industry fields against the taxonomy master, and writes back the
canonical (large, middle, small) triple wherever one resolves.

Requires --taxonomy. Entities whose triple already matches the master
are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.Client()
			if err != nil {
				return err
			}
			stats, err := client.BackfillIndustries(cmd.Context(), a.BatchConfig())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
			return nil
		},
	}
}

func newBackfillScrapedCommand(a App) *cobra.Command {
	return &cobra.Command{
		Use:   "scraped <file.json>",
		Short: "Merge scraped homepage fields into the store",
		Long: `Backfill scraped reads a file of scraped homepage field maps, one JSON
object per company (a JSON array or concatenated objects), cleans the
fields, and merges them into matching entities. Scraped values only
ever fill gaps; they never overwrite existing data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scrapes, err := readScrapes(args[0])
			if err != nil {
				return err
			}
			client, err := a.Client()
			if err != nil {
				return err
			}
			stats, err := client.ImportScraped(cmd.Context(), scrapes, a.BatchConfig())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
			return nil
		},
	}
}

// readScrapes reads scraped field maps from a JSON file: either one
// array of objects or a stream of concatenated objects (JSON lines).
func readScrapes(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	var scrapes []map[string]string

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	if delim, ok := tok.(json.Delim); ok && delim == '[' {
		for dec.More() {
			var m map[string]string
			if err := dec.Decode(&m); err != nil {
				return nil, errors.WrapParse("json", path, err)
			}
			scrapes = append(scrapes, m)
		}
		return scrapes, nil
	}

	// not an array: rewind and decode a stream of objects
	if _, err := f.Seek(0, 0); err != nil {
		return nil, errors.WrapIO("seek", path, err)
	}
	dec = json.NewDecoder(f)
	for {
		var m map[string]string
		if err := dec.Decode(&m); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.WrapParse("json", path, err)
		}
		scrapes = append(scrapes, m)
	}
	return scrapes, nil
}
