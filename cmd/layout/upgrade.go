package main

import (
	"github.com/spf13/cobra"

	"github.com/mikeydub/go-gallery-layout/service/persist"
)

func newUpgradeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade LAYOUT_FILE",
		Short: "Convert a single-grid layout into a sectioned layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var l persist.TokenLayout
			if err := unmarshalInput(b, &l); err != nil {
				return err
			}

			return printResult(cmd, root.output, persist.UpgradeLayout(l))
		},
	}
}
