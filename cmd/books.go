package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"library-circulation/library"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List every book in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := lib.Inventory.AllBooks()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No books in library.")
			return nil
		}
		printEntryTable(entries)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search TERM",
	Short: "Search books by title or author",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := args[0]
		matches, err := lib.Inventory.SearchBooks(term)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Printf("No books found matching '%s'.\n", term)
			return nil
		}
		fmt.Printf("Found %d book(s) matching '%s':\n", len(matches), term)
		printEntryTable(matches)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show BARCODE",
	Short: "Show one catalog entry by exact barcode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := lib.Inventory.GetBook(args[0])
		if err != nil {
			return err
		}
		printEntry(entry)
		return nil
	},
}

var patronsCmd = &cobra.Command{
	Use:   "patrons",
	Short: "List registered patrons",
	RunE: func(cmd *cobra.Command, args []string) error {
		patrons, err := lib.AllPatrons()
		if err != nil {
			return err
		}
		if len(patrons) == 0 {
			fmt.Println("No patrons registered.")
			return nil
		}
		fmt.Printf("%-10s %-30s %s\n", "ID", "Name", "Email")
		fmt.Println(strings.Repeat("-", 70))
		for _, p := range patrons {
			fmt.Printf("%-10s %-30s %s\n", p.UserID, truncateString(p.Name, 30), p.Email)
		}
		return nil
	},
}

func printEntryTable(entries []library.CatalogEntry) {
	fmt.Printf("%-15s %-35s %-25s %-6s %-9s\n", "Barcode", "Title", "Author", "Total", "Available")
	fmt.Println(strings.Repeat("-", 95))
	for _, e := range entries {
		fmt.Printf("%-15s %-35s %-25s %-6d %-9d\n",
			e.Barcode,
			truncateString(e.Title, 35),
			truncateString(e.Author, 25),
			e.TotalCopies,
			e.AvailableCopies)
	}
}

func printEntry(e *library.CatalogEntry) {
	fmt.Printf("Barcode:   %s\n", e.Barcode)
	fmt.Printf("Title:     %s\n", e.Title)
	fmt.Printf("Author:    %s\n", e.Author)
	fmt.Printf("Copies:    %d total, %d available\n", e.TotalCopies, e.AvailableCopies)
	for i, id := range e.CopyIDs {
		fmt.Printf("  copy %d: %s\n", i+1, id)
	}
}

func init() {
	rootCmd.AddCommand(booksCmd, searchCmd, showCmd, patronsCmd)
}
