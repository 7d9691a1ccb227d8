package profiles

import "github.com/spf13/cobra"

// ProfilesCmd is the parent command for provisioning application roles.
// Roles are assigned out of band; sign-in never grants more than guest.
var ProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage user profiles and roles",
	Long:  `Commands for assigning guest, staff and admin roles directly from the server.`,
}

func init() {
	setRoleCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user (required)")
	setRoleCmd.Flags().StringVar(&roleFlag, "role", "", "Role to assign: guest, staff or admin (required)")
	setRoleCmd.Flags().BoolVar(&revokeSessionsFlag, "revoke-sessions", false, "Sign the user out of every browser")

	ProfilesCmd.AddCommand(setRoleCmd)
	ProfilesCmd.AddCommand(listCmd)
}
