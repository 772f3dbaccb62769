package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonstripe/indra-go/search"
)

func newSearchCmd() *cobra.Command {
	var limit int
	var threshold float32
	var hasThreshold bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "vector search over embedded thoughts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var results []search.Result
			if hasThreshold {
				results, err = db.SearchWithThreshold(args[0], threshold, limit)
			} else {
				results, err = db.Search(args[0], limit)
			}
			if err != nil {
				return err
			}

			printResult(results, func(v any) string {
				rs := v.([]search.Result)
				out := ""
				for _, r := range rs {
					out += fmt.Sprintf("%.4f  %s: %s\n", r.Score, r.Thought.ID, r.Thought.Content)
				}
				return out
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	cmd.Flags().Float32Var(&threshold, "threshold", 0, "minimum score")
	cmd.Flags().BoolVar(&hasThreshold, "has-threshold", false, "set when --threshold should be applied")
	return cmd
}
