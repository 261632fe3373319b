package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagSource   string
	flagSelector string
)

func init() {
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check what a selector matches on a page",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := bootstrap()
			if err != nil {
				return err
			}
			defer d.close()

			res := d.orchestrator.ValidateSelector(cmd.Context(), flagSource, flagSelector)
			return writeJSON(os.Stdout, res)
		},
	}

	validateCmd.Flags().StringVar(&flagSource, "source", "", "page URL or local HTML file")
	validateCmd.Flags().StringVar(&flagSelector, "selector", "", "selector, with optional ::text, ::html or ::attr(name)")
	_ = validateCmd.MarkFlagRequired("source")
	_ = validateCmd.MarkFlagRequired("selector")

	rootCmd.AddCommand(validateCmd)
}
