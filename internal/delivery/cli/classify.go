package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roomscout/backend/internal/usecase"
)

func classifyCmd() *cobra.Command {
	var title string
	var pageURL string

	c := &cobra.Command{
		Use:   "classify",
		Short: "Report whether a search result looks like a category page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reason, category := usecase.NewPageClassifier().Explain(title, pageURL)
			fmt.Fprintln(cmd.OutOrStdout(), verdict(reason, category))
			return nil
		},
	}

	c.Flags().StringVar(&title, "title", "", "Result title (required)")
	c.Flags().StringVar(&pageURL, "url", "", "Result URL (required)")

	_ = c.MarkFlagRequired("title")
	_ = c.MarkFlagRequired("url")
	return c
}

func verdict(reason string, category bool) string {
	if !category {
		return "product"
	}
	return fmt.Sprintf("category (%s)", reason)
}
