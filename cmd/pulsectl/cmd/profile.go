package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/preppulse/auth/api"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your study profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields; omitted flags are left unchanged",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		var req api.UpdateProfileRequest
		if cmd.Flags().Changed("full-name") {
			v, _ := cmd.Flags().GetString("full-name")
			req.FullName = &v
		}
		if cmd.Flags().Changed("exam-track") {
			v, _ := cmd.Flags().GetString("exam-track")
			req.ExamTrack = &v
		}
		if cmd.Flags().Changed("target-year") {
			v, _ := cmd.Flags().GetInt("target-year")
			req.TargetYear = &v
		}
		if req.FullName == nil && req.ExamTrack == nil && req.TargetYear == nil {
			return fmt.Errorf("nothing to update; pass at least one of --full-name, --exam-track, --target-year")
		}

		user, err := c.UpdateProfile(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("profile update failed: %w", err)
		}

		fmt.Printf("Profile updated: %s, track %s, target year %d\n", user.FullName, user.ExamTrack, user.TargetYear)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileUpdateCmd)

	profileUpdateCmd.Flags().String("full-name", "", "display name")
	profileUpdateCmd.Flags().String("exam-track", "", "exam track (NEET or JEE)")
	profileUpdateCmd.Flags().Int("target-year", 0, "target exam year")
}
