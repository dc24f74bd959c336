package main

import (
	"github.com/spf13/cobra"

	"github.com/mikeydub/go-gallery-layout/service/persist"
	"github.com/mikeydub/go-gallery-layout/validate"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var tokens []string
	var graphql bool

	cmd := &cobra.Command{
		Use:   "validate LAYOUT_FILE",
		Short: "Check that a layout fits its tokens and print it with defaults filled in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			l, err := parseLayout(b, graphql)
			if err != nil {
				return err
			}

			params := validate.CollectionLayoutParams{
				Tokens: persist.StringsToDBIDs(tokens),
				Layout: l,
			}
			if err := validate.New().Struct(params); err != nil {
				return err
			}

			validated, err := persist.ValidateLayout(params.Layout, params.Tokens)
			if err != nil {
				return err
			}

			return printResult(cmd, root.output, validated)
		},
	}

	cmd.Flags().StringSliceVarP(&tokens, "tokens", "t", nil, "token IDs in stored order")
	cmd.Flags().BoolVar(&graphql, "graphql", false, "read UpdateCollectionLayout mutation variables instead of a stored layout")

	return cmd
}
