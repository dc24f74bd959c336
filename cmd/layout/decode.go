package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mikeydub/go-gallery-layout/graphql/schema"
	"github.com/mikeydub/go-gallery-layout/service/layout"
	"github.com/mikeydub/go-gallery-layout/service/logger"
	"github.com/mikeydub/go-gallery-layout/service/persist"
)

type decodeOptions struct {
	tokens           []string
	ignoreWhitespace bool
	graphql          bool
}

func newDecodeCmd(root *rootOptions) *cobra.Command {
	opts := &decodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode LAYOUT_FILE",
		Short: "Stage tokens into sections according to a stored layout",
		Long:  "Stage tokens into sections according to a stored layout. Pass - to read the layout from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			l, err := parseLayout(b, opts.graphql)
			if err != nil {
				return err
			}
			if l.IsLegacy() {
				l = persist.UpgradeLayout(l)
			}

			var decodeOpts []layout.DecodeOption
			if opts.ignoreWhitespace {
				decodeOpts = append(decodeOpts, layout.IgnoreWhitespace())
			}

			tokens := persist.StringsToDBIDs(opts.tokens)
			collection, err := layout.NewDBIDCodec().Decode(tokens, l, decodeOpts...)
			if err != nil {
				return err
			}

			logger.For(ctx).WithFields(logrus.Fields{
				"tokens":   len(tokens),
				"sections": collection.Len(),
			}).Debug("decoded layout")

			return printResult(cmd, root.output, collection.View())
		},
	}

	cmd.Flags().StringSliceVarP(&opts.tokens, "tokens", "t", nil, "token IDs in stored order")
	cmd.Flags().BoolVar(&opts.ignoreWhitespace, "ignore-whitespace", false, "do not stage whitespace blocks")
	cmd.Flags().BoolVar(&opts.graphql, "graphql", false, "read UpdateCollectionLayout mutation variables instead of a stored layout")

	return cmd
}

// parseLayout reads a stored layout, or the layout carried by mutation variables when fromGraphQL is set
func parseLayout(b []byte, fromGraphQL bool) (persist.TokenLayout, error) {
	if !fromGraphQL {
		var l persist.TokenLayout
		if err := unmarshalInput(b, &l); err != nil {
			return persist.TokenLayout{}, fmt.Errorf("failed to parse layout: %w", err)
		}
		return l, nil
	}

	var vars map[string]any
	if err := json.Unmarshal(b, &vars); err != nil {
		return persist.TokenLayout{}, fmt.Errorf("failed to parse variables: %w", err)
	}

	_, input, err := schema.ValidateLayoutInput(vars)
	if err != nil {
		return persist.TokenLayout{}, err
	}

	return input.ToTokenLayout(), nil
}
