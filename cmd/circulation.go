package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout USER_ID BARCODE",
	Short: "Check a copy of a book out to a patron",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, barcode := args[0], args[1]

		// The ledger does not validate patrons; that is this layer's job.
		patron, err := lib.GetPatron(userID)
		if err != nil {
			return err
		}

		event, err := lib.Ledger.Checkout(userID, barcode, time.Now())
		if err != nil {
			return err
		}

		book, _ := lib.Inventory.GetBook(barcode)
		title := barcode
		if book != nil {
			title = book.Title
		}
		fmt.Printf("Checked out '%s' to %s\n", title, patron.Name)
		fmt.Printf("  copy id:  %s\n", event.CopyID)
		fmt.Printf("  due date: %s\n", event.DueDate)
		return nil
	},
}

var checkinCmd = &cobra.Command{
	Use:   "checkin COPY_ID",
	Short: "Check a copy back in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		event, err := lib.Ledger.CheckIn(args[0], time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Checked in copy %s (checked out %s, due %s).\n",
			event.CopyID, event.CheckoutDate, event.DueDate)
		return nil
	},
}

var loansCmd = &cobra.Command{
	Use:   "loans",
	Short: "List open loans",
	RunE: func(cmd *cobra.Command, args []string) error {
		open, err := lib.Ledger.OpenLoans()
		if err != nil {
			return err
		}
		if len(open) == 0 {
			fmt.Println("No open loans.")
			return nil
		}
		fmt.Printf("%-10s %-38s %-12s %-12s\n", "Patron", "Copy", "Out", "Due")
		fmt.Println(strings.Repeat("-", 76))
		for _, ev := range open {
			fmt.Printf("%-10s %-38s %-12s %-12s\n", ev.UserID, ev.CopyID, ev.CheckoutDate, ev.DueDate)
		}
		return nil
	},
}

var historyN int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent checkout and check-in activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := lib.Ledger.RecentEvents(historyN)
		if err != nil {
			return err
		}

		fmt.Printf("%-12s %-10s %-25s %-30s %s\n", "Date", "Event", "Patron", "Title", "Copy")
		fmt.Println(strings.Repeat("-", 110))
		count := 0
		for entry := range events {
			fmt.Printf("%-12s %-10s %-25s %-30s %s\n",
				entry.EventDate,
				entry.EventType,
				truncateString(entry.PatronName, 25),
				truncateString(entry.BookTitle, 30),
				entry.CopyID)
			count++
		}
		if count == 0 {
			fmt.Println("No activity recorded.")
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyN, "limit", "n", 20, "number of entries to show")
	rootCmd.AddCommand(checkoutCmd, checkinCmd, loansCmd, historyCmd)
}
