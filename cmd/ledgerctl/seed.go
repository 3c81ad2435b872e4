package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"financehub/internal/services"
)

var seedCmd = &cobra.Command{
	Use:   "seed-categories",
	Short: "Insert the system category catalog",
	Long:  "Insert any missing system income and expense categories. Safe to run repeatedly.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, dbManager, err := openDatabase()
		if err != nil {
			return err
		}
		defer dbManager.Close()

		n, err := services.NewCategoryService(dbManager.DB()).SeedSystemCategories(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %d system categories\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
