package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/domain/services"
)

func newManifestCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Extract the regression data and write its manifest",
		Long: `Extract the regression test data if needed, discover the clips and
configurations, and write the manifest into the data directory.

The manifest path is printed on success.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := c.project.Data

			result, err := c.newProvisioner().Provision(cmd.Context(), services.ProvisionRequest{
				Archive:     data.Archive,
				Dir:         data.Dir,
				ConfigsDir:  data.ConfigsDir,
				Missing:     data.Missing,
				SHA256:      data.SHA256,
				Signature:   data.Signature,
				Keyring:     data.Keyring,
				WithConfigs: c.project.Regression.WithConfigs,
			})
			if err != nil {
				return err
			}
			if result.Skipped {
				return nil
			}

			c.logger.Info("Manifest ready",
				interfaces.F("clips", len(result.Manifest.Clips)),
				interfaces.F("configs", len(result.Manifest.Configs)))
			fmt.Fprintln(c.stdout, result.ManifestPath)
			return nil
		},
	}
}
