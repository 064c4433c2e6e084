package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Bulk-add books from a CSV manifest (admin)",
	Long: `import reads a CSV manifest with a header row and the columns
barcode,title,author,copies and adds each row to the catalog. Rows that
fail are reported and skipped; the rest of the manifest still imports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAdmin(); err != nil {
			return err
		}

		f, err := os.Open(filepath.Clean(args[0]))
		if err != nil {
			return fmt.Errorf("open manifest: %w", err)
		}
		defer f.Close()

		r := csv.NewReader(f)
		r.FieldsPerRecord = 4
		rows, err := r.ReadAll()
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
		if len(rows) > 0 {
			rows = rows[1:] // header
		}

		successCount := 0
		errorCount := 0
		for i, row := range rows {
			barcode, title, author := row[0], row[1], row[2]
			copies, err := strconv.Atoi(row[3])
			if err != nil {
				fmt.Printf("row %d: bad copy count %q, skipping\n", i+2, row[3])
				errorCount++
				continue
			}

			fmt.Printf("Importing: %s by %s... ", title, author)
			entry, err := lib.Inventory.AddBook(barcode, title, author, copies)
			if err != nil {
				fmt.Printf("ERROR - %v\n", err)
				errorCount++
				continue
			}
			fmt.Printf("SUCCESS (%d total copies)\n", entry.TotalCopies)
			successCount++
		}

		fmt.Printf("\nImport complete!\n")
		fmt.Printf("Successfully imported: %d rows\n", successCount)
		fmt.Printf("Errors: %d\n", errorCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
