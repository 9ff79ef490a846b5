package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecomapping/taxomap/taxomap/refdata"
)

func newRefsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refs",
		Short: "List the embedded reference classifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range refdata.Names() {
				size, err := refdata.Size(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d entries\n", name, size)
			}
			return nil
		},
	}
}
