package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giygas/drugcost-api/ingest"
)

func newIngestCmd(a *app) *cobra.Command {
	var src ingest.Sources
	var productsDB, medicareDB string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build the SQLite catalogs from the Orange Book and Part D source files",
		Long: "Parses the Orange Book products.txt (tilde-delimited) and the Part D " +
			"spending-by-drug CSV and writes the products and medicare databases. " +
			"Each database is replaced atomically.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("orange-book") {
				src.OrangeBookFile = a.cfg.OrangeBookFile
			}
			if !cmd.Flags().Changed("partd") {
				src.PartDFile = a.cfg.PartDFile
			}
			if !cmd.Flags().Changed("products-db") {
				productsDB = a.cfg.ProductsDB
			}
			if !cmd.Flags().Changed("medicare-db") {
				medicareDB = a.cfg.MedicareDB
			}

			report, err := ingest.BuildSQLite(cmd.Context(), src, productsDB, medicareDB)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if a.output == "json" {
				return printJSON(out, report)
			}
			fmt.Fprintf(out, "Wrote %d products to %s (%d skipped lines, %d without TE code)\n",
				report.Products, productsDB, report.SkippedProductLines, report.ProductsWithoutTECode)
			fmt.Fprintf(out, "Wrote %d cost rows to %s (%d skipped rows), years %v\n",
				report.Costs, medicareDB, report.SkippedCostRows, report.Years)
			return nil
		},
	}

	cmd.Flags().StringVar(&src.OrangeBookFile, "orange-book", "", "Orange Book products.txt (default $ORANGE_BOOK_FILE)")
	cmd.Flags().StringVar(&src.PartDFile, "partd", "", "Part D spending CSV (default $PARTD_FILE)")
	cmd.Flags().StringVar(&productsDB, "products-db", "", "Output products database (default $PRODUCTS_DB)")
	cmd.Flags().StringVar(&medicareDB, "medicare-db", "", "Output medicare database (default $MEDICARE_DB)")
	return cmd
}
