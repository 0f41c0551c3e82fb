package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/panbridge/panbridge/internal/session"
	"github.com/panbridge/panbridge/internal/settings"
)

// newLoginCmd updates stored credentials and verifies them with a real
// login, persisting the issued token for the server to reuse.
func newLoginCmd() *cobra.Command {
	var (
		flagUsername    string
		flagPassword    string
		flagDefaultPath string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store account credentials and verify them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()

			store := settings.NewStore(cfg.SettingsPath)

			doc := store.Load()

			if flagUsername != "" {
				doc.User = flagUsername
			}

			if flagPassword != "" {
				doc.Password = flagPassword
			}

			if cmd.Flags().Changed("default-path") {
				doc.DefaultPath = flagDefaultPath
			}

			if err := store.Save(doc); err != nil {
				return err
			}

			mgr := session.NewManager(newDialer(logger), store, logger)

			if err := mgr.Login(cmd.Context()); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Login OK, token saved.")

			return nil
		},
	}

	cmd.Flags().StringVar(&flagUsername, "username", "", "account username (phone or email)")
	cmd.Flags().StringVar(&flagPassword, "password", "", "account password")
	cmd.Flags().StringVar(&flagDefaultPath, "default-path", "", "folder path the session starts in")

	return cmd
}
