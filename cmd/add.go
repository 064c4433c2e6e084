package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	addTitle  string
	addAuthor string
	addCopies int
	addLookup bool
)

var addCmd = &cobra.Command{
	Use:   "add BARCODE",
	Short: "Add copies of a book to the catalog (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAdmin(); err != nil {
			return err
		}

		barcode := args[0]
		title, author := addTitle, addAuthor
		if addLookup && (title == "" || author == "") {
			t, a := lib.Metadata.Lookup(barcode)
			if title == "" {
				title = t
			}
			if author == "" {
				author = a
			}
			if t == "" && a == "" {
				fmt.Println("No metadata found for this ISBN.")
			}
		}

		entry, err := lib.Inventory.AddBook(barcode, title, author, addCopies)
		if err != nil {
			return err
		}

		fmt.Printf("Added %d cop%s of '%s' (%s): %d total, %d available\n",
			addCopies, plural(addCopies, "y", "ies"),
			entry.Title, entry.Barcode, entry.TotalCopies, entry.AvailableCopies)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "book title (empty keeps the stored value)")
	addCmd.Flags().StringVar(&addAuthor, "author", "", "book author (empty keeps the stored value)")
	addCmd.Flags().IntVar(&addCopies, "copies", 1, "number of physical copies to add")
	addCmd.Flags().BoolVar(&addLookup, "lookup", false, "fill missing title/author from the ISBN catalog")
	rootCmd.AddCommand(addCmd)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
