package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikeydub/go-gallery-layout/graphql/model"
	"github.com/mikeydub/go-gallery-layout/service/layout"
	"github.com/mikeydub/go-gallery-layout/service/persist"
)

type encodedCollection struct {
	Tokens []persist.DBID      `json:"tokens" yaml:"tokens"`
	Layout persist.TokenLayout `json:"layout" yaml:"layout"`
}

type encodedCollectionInput struct {
	Tokens []persist.DBID              `json:"tokens" yaml:"tokens"`
	Layout model.CollectionLayoutInput `json:"layout" yaml:"layout"`
}

func newEncodeCmd(root *rootOptions) *cobra.Command {
	var graphql bool

	cmd := &cobra.Command{
		Use:   "encode STAGED_FILE",
		Short: "Encode staged sections into tokens and a stored layout",
		Long:  "Encode staged sections into tokens and a stored layout. Sections without tokens are dropped. Pass - to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var view layout.CollectionView[persist.DBID]
			if err := unmarshalInput(b, &view); err != nil {
				return fmt.Errorf("failed to parse staged collection: %w", err)
			}

			collection, err := view.Collection()
			if err != nil {
				return err
			}

			codec := layout.NewDBIDCodec()
			tokens := codec.TokenIDs(collection)
			encoded := codec.Encode(collection)

			if graphql {
				return printResult(cmd, root.output, encodedCollectionInput{Tokens: tokens, Layout: model.LayoutToLayoutInput(encoded)})
			}
			return printResult(cmd, root.output, encodedCollection{Tokens: tokens, Layout: encoded})
		},
	}

	cmd.Flags().BoolVar(&graphql, "graphql", false, "print the layout as mutation input")

	return cmd
}
