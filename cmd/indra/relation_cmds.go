package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonstripe/indra-go/entity"
	"github.com/moonstripe/indra-go/graph"
)

func newRelateCmd() *cobra.Command {
	var weight float32
	var hasWeight bool
	cmd := &cobra.Command{
		Use:   "relate <source> <edge-type> <target>",
		Short: "create an edge between two thoughts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			source := entity.ThoughtID(args[0])
			edgeType := entity.EdgeType(args[1])
			target := entity.ThoughtID(args[2])

			if hasWeight {
				err = db.RelateWeighted(source, target, edgeType, weight)
			} else {
				err = db.Relate(source, target, edgeType)
			}
			if err != nil {
				return err
			}

			return maybeAutoCommit(db, fmt.Sprintf("relate %s %s %s", source, edgeType, target))
		},
	}
	cmd.Flags().Float32Var(&weight, "weight", 0, "edge weight")
	cmd.Flags().BoolVar(&hasWeight, "has-weight", false, "set when --weight should be applied")
	return cmd
}

func newUnrelateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unrelate <source> <edge-type> <target>",
		Short: "remove an edge between two thoughts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			source := entity.ThoughtID(args[0])
			edgeType := entity.EdgeType(args[1])
			target := entity.ThoughtID(args[2])

			if err := db.Unrelate(source, target, edgeType); err != nil {
				return err
			}

			return maybeAutoCommit(db, fmt.Sprintf("unrelate %s %s %s", source, edgeType, target))
		},
	}
}

func newNeighborsCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "neighbors <id>",
		Short: "list a thought's neighbors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var direction graph.Direction
			switch dir {
			case "out":
				direction = graph.Outgoing
			case "in":
				direction = graph.Incoming
			case "both":
				direction = graph.Both
			default:
				return fmt.Errorf("invalid --direction %q: want out|in|both", dir)
			}

			neighbors, err := db.Neighbors(entity.ThoughtID(args[0]), direction)
			if err != nil {
				return err
			}

			printResult(neighbors, func(v any) string {
				ns := v.([]graph.Neighbor)
				out := ""
				for _, n := range ns {
					out += fmt.Sprintf("%s (%s): %s\n", n.Thought.ID, n.Edge.EdgeType, n.Thought.Content)
				}
				return out
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "direction", "both", "out|in|both")
	return cmd
}
