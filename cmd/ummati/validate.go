package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spanow/ummati/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate an ummati configuration file without contacting the API.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  ummati validate -c ummati.yaml
  ummati validate --config /etc/ummati/ummati.yaml`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// building the options runs the SDK-side checks too
	if _, err := config.BuildOptions(cfg, nil); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  API:        %s\n", cfg.API.BaseURL)
	fmt.Fprintf(out, "  Port:       %d\n", cfg.Port)
	fmt.Fprintf(out, "  State file: %s\n", cfg.StateFile)
	fmt.Fprintf(out, "  Events:     %s\n", describeCollection(cfg.Collections.Events))
	fmt.Fprintf(out, "  NGOs:       %s\n", describeCollection(cfg.Collections.NGOs))

	return nil
}

func describeCollection(cc config.CollectionConfig) string {
	s := cc.Path
	if cc.PageSize != 0 {
		s += fmt.Sprintf(", %d per page", cc.PageSize)
	}
	if cc.Debounce != 0 {
		s += fmt.Sprintf(", debounce %s", cc.Debounce.Duration())
	}
	if cc.OnFailure == "clear" {
		s += ", cleared on failure"
	}
	return s
}
