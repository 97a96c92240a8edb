package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/glgen/config"
	"github.com/ardanlabs/glgen/fetch"
)

func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download gl.xml and khrplatform.h",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			force, _ := cmd.Flags().GetBool("force")
			_, err = fetchInputs(cmd, cfg, force)
			return err
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Download even when the files exist")

	return cmd
}

func fetchInputs(cmd *cobra.Command, cfg config.Config, force bool) ([]string, error) {
	paths, err := fetch.Fetch(cmd.Context(), nil, []fetch.Source{
		{URL: cfg.PlatformHeaderURL, Path: cfg.PlatformHeader},
		{URL: cfg.RegistryURL, Path: cfg.Registry},
	}, force)
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "Fetched: %s\n", path)
	}

	return paths, nil
}
