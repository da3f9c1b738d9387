package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"harmwatch/internal/classify"
	"harmwatch/internal/cli"
)

func taxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "List the harm-mechanism labels and their pattern counts",
		RunE: func(_ *cobra.Command, _ []string) error {
			taxonomy := classify.DefaultTaxonomy()

			// Compile up front so a broken pattern is reported here
			// instead of mid-analysis.
			if _, err := classify.NewClassifier(taxonomy); err != nil {
				return err
			}

			fmt.Println(cli.TitleStyle.Render("Harm Mechanism Taxonomy"))
			for _, lp := range taxonomy {
				fmt.Printf("  %s %s\n",
					cli.BoldStyle.Render(lp.Label),
					cli.SubtleStyle.Render(fmt.Sprintf("(%d patterns)", len(lp.Patterns))))
			}
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("\n%d labels; narratives may match several.", len(taxonomy))))
			return nil
		},
	}
	return cmd
}
