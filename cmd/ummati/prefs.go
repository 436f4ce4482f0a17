package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change display preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, _, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			p := app.Preferences().State()
			out := cmd.OutOrStdout()
			dir := "ltr"
			if p.Language.RTL() {
				dir = "rtl"
			}
			fmt.Fprintf(out, "language: %s (%s)\n", p.Language, dir)
			fmt.Fprintf(out, "theme:    %s\n", p.Theme)
			return nil
		},
	}

	set := &cobra.Command{
		Use:       "set <language|theme> <value>",
		Short:     "Change a preference",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"language", "theme"},
		Example: `  ummati prefs set language ar
  ummati prefs set theme dark`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, _, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			switch args[0] {
			case "language":
				err = app.Preferences().SetLanguage(args[1])
			case "theme":
				err = app.Preferences().SetTheme(args[1])
			default:
				return fmt.Errorf("unknown preference %q (expected language or theme)", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(set)
	return cmd
}
