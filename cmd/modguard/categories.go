package main

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the configured categories in score vector order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromContext(cmd.Context())
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Index", "Category"})
		table.SetBorder(true)
		for i, name := range cfg.Engine.Categories {
			table.Append([]string{strconv.Itoa(i), name})
		}
		table.Render()
		return nil
	},
}
