package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"library-circulation/library"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a barcode and look it up, offering to add unknown books",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := &library.StdinScanner{In: os.Stdin, Out: os.Stdout}
		barcode, ok := scanner.Scan()
		if !ok {
			fmt.Println("No barcode captured.")
			return nil
		}

		entry, err := lib.Inventory.GetBook(barcode)
		if err == nil {
			printEntry(entry)
			return nil
		}

		fmt.Printf("Barcode %s is not in the catalog.\n", barcode)
		if err := requireAdmin(); err != nil {
			fmt.Println("Contact an administrator to add this book.")
			return nil
		}

		title, author := lib.Metadata.Lookup(barcode)
		if title != "" {
			fmt.Printf("Found metadata: '%s' by %s\n", title, author)
		} else {
			fmt.Println("No metadata found; enter it manually.")
			title, author = promptMetadata()
		}

		created, err := lib.Inventory.AddBook(barcode, title, author, 1)
		if err != nil {
			return err
		}
		fmt.Printf("Added '%s' (%s) with 1 copy.\n", created.Title, created.Barcode)
		return nil
	},
}

func promptMetadata() (title, author string) {
	sc := bufio.NewScanner(os.Stdin)
	fmt.Print("Title: ")
	if sc.Scan() {
		title = strings.TrimSpace(sc.Text())
	}
	fmt.Print("Author: ")
	if sc.Scan() {
		author = strings.TrimSpace(sc.Text())
	}
	return title, author
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
