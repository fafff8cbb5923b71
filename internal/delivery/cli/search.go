package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/roomscout/backend/config"
	"github.com/roomscout/backend/internal/bootstrap"
	"github.com/roomscout/backend/internal/domain"
)

func searchCmd() *cobra.Command {
	var itemsPath string
	var tierName string
	var enrich bool

	c := &cobra.Command{
		Use:   "search",
		Short: "Search products for the items in a JSON file",
		Long: "Reads items ({type, description, search_keywords}) from a JSON file, either a\n" +
			"bare array or an object with an \"items\" field, and prints the ranked results.\n" +
			"Use --items - to read from stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := readItems(cmd.InOrStdin(), itemsPath)
			if err != nil {
				return err
			}

			var tier domain.RegionTier
			if tierName != "" {
				var ok bool
				if tier, ok = domain.ParseRegionTier(tierName); !ok {
					return fmt.Errorf("unknown tier %q (want primary or regional)", tierName)
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := bootstrap.New(ctx, cfg, bootstrap.WithLogOutput(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer app.Close()

			var out any
			if tier != "" {
				out, err = app.Finder.FindForTier(ctx, items, tier, enrich)
			} else {
				out, err = app.Finder.FindProducts(ctx, items, enrich)
			}
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	c.Flags().StringVarP(&itemsPath, "items", "i", "", "JSON file with the items to search (required)")
	c.Flags().StringVarP(&tierName, "tier", "t", "", "Search one tier only: primary or regional")
	c.Flags().BoolVar(&enrich, "enrich", false, "Fetch product pages for images and prices")

	_ = c.MarkFlagRequired("items")
	return c
}

// readItems loads items from path ("-" for stdin)
func readItems(stdin io.Reader, path string) ([]domain.Item, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: items file is empty", domain.ErrInvalidRequest)
	}

	var items []domain.Item
	if data[0] == '[' {
		err = json.Unmarshal(data, &items)
	} else {
		var wrapped struct {
			Items []domain.Item `json:"items"`
		}
		err = json.Unmarshal(data, &wrapped)
		items = wrapped.Items
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode items: %v", domain.ErrInvalidRequest, err)
	}
	return items, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
