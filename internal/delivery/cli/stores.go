package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roomscout/backend/config"
	"github.com/roomscout/backend/internal/domain"
	"github.com/roomscout/backend/internal/usecase"
)

func storesCmd() *cobra.Command {
	var tierName string

	c := &cobra.Command{
		Use:   "stores",
		Short: "List the store table in lookup order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			entries := usecase.DefaultStores
			if len(cfg.Stores) > 0 {
				dir, err := usecase.NewStoreDirectory(cfg.Stores, usecase.DefaultTLDFallbacks)
				if err != nil {
					return err
				}
				entries = dir.Entries()
			}

			var tier domain.RegionTier
			if tierName != "" {
				var ok bool
				if tier, ok = domain.ParseRegionTier(tierName); !ok {
					return fmt.Errorf("unknown tier %q (want primary or regional)", tierName)
				}
			}

			return printStores(cmd.OutOrStdout(), entries, tier)
		},
	}

	c.Flags().StringVarP(&tierName, "tier", "t", "", "Only list stores of this tier")
	return c
}

func printStores(w io.Writer, entries []domain.StoreEntry, tier domain.RegionTier) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STORE\tDOMAIN\tTIER\tPROFILE")
	for _, e := range entries {
		if tier != "" && e.Tier != tier {
			continue
		}
		profile := e.Profile
		if profile == "" {
			profile = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.DisplayName, e.DomainSubstring, e.Tier, profile)
	}
	return tw.Flush()
}
