// ABOUTME: CLI commands for the user profile.
// ABOUTME: Shows and partially updates name and avatar.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/sanitize"
	"github.com/spf13/cobra"
)

var (
	profileName   string
	profileAvatar string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		p, err := store.GetProfile(cmd.Context(), uid)
		if err != nil {
			return err
		}
		faint := color.New(color.Faint)
		fmt.Printf("Name:    %s\n", p.Name)
		fmt.Printf("Email:   %s\n", p.Email)
		if p.Avatar != nil {
			fmt.Printf("Avatar:  %s\n", *p.Avatar)
		}
		fmt.Printf("Updated: %s\n", faint.Sprint(p.UpdatedAt.Local().Format("2006-01-02 15:04")))
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update your profile",
	Long: `Update profile fields. Only the flags you pass are changed.

Examples:
  healthstatus profile set --name "Ada Lovelace"
  healthstatus profile set --avatar https://example.com/me.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}

		var upd models.ProfileUpdate
		if cmd.Flags().Changed("name") {
			name := sanitize.PlainText(profileName)
			upd.Name = &name
		}
		if cmd.Flags().Changed("avatar") {
			upd.Avatar = &profileAvatar
		}
		if upd.Name == nil && upd.Avatar == nil {
			return fmt.Errorf("nothing to update: pass --name or --avatar")
		}

		if err := store.SaveProfile(cmd.Context(), uid, upd); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		color.Green("✓ Profile updated")
		return nil
	},
}

func init() {
	profileSetCmd.Flags().StringVar(&profileName, "name", "", "display name")
	profileSetCmd.Flags().StringVar(&profileAvatar, "avatar", "", "avatar URL")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}
