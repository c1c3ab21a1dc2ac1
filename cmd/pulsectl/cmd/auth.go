package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication for pulsectl",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to PrepPulse and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		if c.Store().Snapshot().Authenticated {
			fmt.Print("Already logged in. Re-login? (yes/no): ")
			reader := bufio.NewReader(os.Stdin)
			confirm, _ := reader.ReadString('\n')
			if strings.TrimSpace(strings.ToLower(confirm)) != "yes" {
				fmt.Println("Login cancelled.")

				return nil
			}
		}

		fmt.Print("Enter email: ")
		reader := bufio.NewReader(os.Stdin)
		email, _ := reader.ReadString('\n')
		email = strings.TrimSpace(email)

		fmt.Print("Enter password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		user, err := c.Login(cmd.Context(), email, string(bytePassword))
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Printf("Login successful. Logged in as %s (%s)\n", user.FullName, user.Email)

		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		c.Logout(cmd.Context())
		fmt.Println("Logged out. Local session cleared.")

		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		user, err := c.FetchUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("not logged in: %w", err)
		}

		fmt.Printf("%s <%s>\n", user.FullName, user.Email)
		fmt.Printf("  role: %s  tier: %s", user.Role, user.Tier)
		if user.ExamTrack != "" {
			fmt.Printf("  track: %s", user.ExamTrack)
			if user.TargetYear != 0 {
				fmt.Printf(" (%d)", user.TargetYear)
			}
		}
		fmt.Println()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)
}
