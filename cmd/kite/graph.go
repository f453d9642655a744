package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiteci/kite/internal/graph"
	"github.com/kiteci/kite/internal/loader"
)

func newGraphCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <ride.yaml>",
		Short: "Print a ride's segment dependency graph as execution levels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			nodes := make([]graph.Node, 0, len(doc.Segments))
			for name, seg := range doc.Segments {
				nodes = append(nodes, graph.Node{Name: name, DependsOn: seg.DependsOn()})
			}

			g, err := graph.Build(nodes)
			if err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}
			levels, err := g.SortByLevels()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d segments, %d levels)\n", doc.Ride.Name(), len(doc.Segments), len(levels))
			for i, level := range levels {
				fmt.Fprintf(out, "  level %d: %v\n", i, level)
			}
			return nil
		},
	}
	return cmd
}
