// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/proxy"
	"github.com/z5labs/contract/specfile"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "contract-proxy",
		Short:        "Validate HTTP calls against a contract",
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd(), newRoutesCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the validating proxy",
		Long: "Run the validating proxy. The config file is layered over the defaults, " +
			"which read CONTRACT_PROXY_UPSTREAM, CONTRACT_PROXY_SPEC and PORT from the environment.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			var src io.Reader
			if path != "" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}
			return proxy.Run(cmd.Context(), src)
		},
	}

	cmd.Flags().String("config", "", "YAML config file")
	return cmd
}

func newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the endpoints declared by a contract file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("spec")
			if err != nil {
				return err
			}

			endpoints, err := specfile.LoadFile(cmd.Context(), path)
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), endpoints)
		},
	}

	cmd.Flags().String("spec", "contract.yaml", "Contract file, either YAML or OpenAPI 3")
	return cmd
}

func printRoutes(w io.Writer, endpoints endpoint.Endpoints) error {
	for _, template := range endpoints.Templates() {
		for _, m := range endpoint.Methods {
			spec, ok := endpoints.Lookup(template, m)
			if !ok {
				continue
			}

			_, err := fmt.Fprintf(w, "%-7s %s\t%s\n", m.HTTP(), template, spec.Summary)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
