package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load modules, grade-band sequences and placement banks into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var (
			c   *catalog.Catalog
			err error
		)
		if file == "" {
			c, err = catalog.Default()
		} else {
			raw, rerr := os.ReadFile(file)
			if rerr != nil {
				return fmt.Errorf("read catalog: %w", rerr)
			}
			c, err = catalog.Load(raw)
		}
		if err != nil {
			return err
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		stats, err := catalog.NewSeeder(e.store.CatalogRepo(), e.store.PlacementRepo(), e.log).Seed(cmd.Context(), c)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d modules, %d sequences, %d placement questions.\n", stats.Modules, stats.Sequences, stats.Questions)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "Catalog YAML file (defaults to the built-in grades 3-5 catalog)")
}
