package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var remindDryRun bool

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send due-date reminder emails for open loans (admin)",
	Long: `remind scans open loans against today's date and emails patrons whose
books are due in 3 days, due today, or overdue by 3 days. Each reminder is
delivered independently; one failed send does not stop the rest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAdmin(); err != nil {
			return err
		}

		today := time.Now()

		if remindDryRun {
			reminders, err := lib.Reminders.Classify(today)
			if err != nil {
				return err
			}
			if len(reminders) == 0 {
				fmt.Println("No reminders due.")
				return nil
			}
			for _, r := range reminders {
				fmt.Printf("would send to %s: %s\n", r.RecipientEmail, r.Subject)
			}
			return nil
		}

		results, err := lib.Reminders.Run(today)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No reminders due.")
			return nil
		}

		sent := 0
		for _, res := range results {
			if res.Delivered() {
				sent++
				fmt.Printf("sent to %s: %s\n", res.Reminder.RecipientEmail, res.Reminder.Subject)
			} else {
				fmt.Printf("FAILED to %s: %v\n", res.Reminder.RecipientEmail, res.Err)
			}
		}
		fmt.Printf("%d of %d reminders delivered.\n", sent, len(results))
		return nil
	},
}

func init() {
	remindCmd.Flags().BoolVar(&remindDryRun, "dry-run", false, "classify without sending")
	rootCmd.AddCommand(remindCmd)
}
