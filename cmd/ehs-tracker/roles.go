package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/ehs-tracker/internal/domain/entity"
)

func newRolesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage user roles and profiles",
	}

	cmd.AddCommand(newRoleSetCmd(opts), newProfileSetCmd(opts), newRoleShowCmd(opts))
	return cmd
}

func newRoleSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <user-id> <role>",
		Short: "Assign an application role, which overrides the profile role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := opts.startContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := c.Repositories().Roles.SetAppRole(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func newProfileSetCmd(opts *rootOptions) *cobra.Command {
	var profile entity.Profile

	cmd := &cobra.Command{
		Use:   "profile <user-id>",
		Short: "Create or replace a user profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if profile.ClientID == "" {
				return fmt.Errorf("--client is required")
			}
			profile.UserID = args[0]

			c, cleanup, err := opts.startContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := c.Repositories().Roles.UpsertProfile(cmd.Context(), &profile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "profile %s saved\n", profile.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile.FullName, "name", "", "display name")
	cmd.Flags().StringVar(&profile.Role, "role", "", "profile role")
	cmd.Flags().StringVar(&profile.ClientID, "client", "", "client the user belongs to")
	return cmd
}

func newRoleShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Print the stored app role and profile of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := opts.startContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			roles := c.Repositories().Roles
			appRole, err := roles.GetAppRole(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			profile, err := roles.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "app_role: %q\n", appRole)
			if profile == nil {
				fmt.Fprintln(out, "profile: none")
				return nil
			}
			fmt.Fprintf(out, "profile: name=%q role=%q client=%q\n", profile.FullName, profile.Role, profile.ClientID)
			return nil
		},
	}
}
