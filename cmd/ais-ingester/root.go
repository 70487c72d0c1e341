package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/galois26/ais-ingester/internal/schema"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ais-ingester",
		Short: "Collect AIS messages from aisstream.io into CSV files",
		Long: `ais-ingester opens one websocket subscription per configured session,
keeps the messages of the requested type inside the session's bounding box,
and appends them to one CSV file per message group when the session ends.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newSchemaCmd(), newVersionCmd())
	return root
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the CSV header of each output group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, g := range schema.Groups() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s.csv: %s\n", g, strings.Join(schema.ForGroup(g), ","))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ais-ingester", Version)
		},
	}
}
