package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register NAME EMAIL",
	Short: "Register a patron and print their generated user id (admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAdmin(); err != nil {
			return err
		}

		patron, err := lib.RegisterPatron(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s <%s>\n", patron.Name, patron.Email)
		fmt.Printf("User ID: %s\n", patron.UserID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
