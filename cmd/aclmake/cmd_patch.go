package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/aclmake/internal/domain-adapters/gateways"
	"github.com/ochairo/aclmake/internal/domain/entities"
	gw "github.com/ochairo/aclmake/internal/domain/interfaces/gateways"
	"github.com/ochairo/aclmake/internal/domain/services"
)

func newPatchCmd(c *cli) *cobra.Command {
	var wasm, wrapper, version string

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Embed a compiled module into its JS wrapper",
		Long: `Rewrite the "// Compiled with" line and the wasmBinaryBlob literal of a
JS wrapper. Without --version the configured version command is queried.`,
		Example: `  aclmake patch --wasm bin/acl-encoder.wasm --wrapper acl-js/src-js/encoder.wasm.js --version "emcc 3.1.74"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if version == "" {
				toolchain := gateways.NewToolchain(gateways.NewCommandExecutor(c.logger), c.project.Toolchain, c.logger)
				v, err := toolchain.Version(cmd.Context(), gw.BuildRequest{
					BuildDir:   c.project.Paths.Root,
					InstallDir: c.project.Paths.Install,
				})
				if err != nil {
					return err
				}
				version = v
			}

			wasmPath, err := filepath.Abs(wasm)
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", wasm, err)
			}
			wrapperPath, err := filepath.Abs(wrapper)
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", wrapper, err)
			}

			artifact := entities.Artifact{
				Name:        strings.TrimSuffix(filepath.Base(wasmPath), filepath.Ext(wasmPath)),
				Path:        wasmPath,
				WrapperPath: wrapperPath,
			}

			result, err := services.NewWrapperPatcher(c.logger).PatchFile(artifact, version)
			if err != nil {
				return err
			}

			state := "unchanged"
			if result.Changed {
				state = "patched"
			}
			fmt.Fprintf(c.stdout, "%s %s\n", state, result.WrapperPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&wasm, "wasm", "", "Compiled module to embed")
	cmd.Flags().StringVar(&wrapper, "wrapper", "", "JS wrapper to rewrite")
	cmd.Flags().StringVar(&version, "version", "", "Toolchain version string for the \"Compiled with\" line")
	_ = cmd.MarkFlagRequired("wasm")
	_ = cmd.MarkFlagRequired("wrapper")
	return cmd
}
