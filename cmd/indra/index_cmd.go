package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonstripe/indra-go/entity"
	"github.com/moonstripe/indra-go/internal/indexer"
)

func newIndexCmd() *cobra.Command {
	index := &cobra.Command{
		Use:   "index",
		Short: "manage the disposable keyword search index",
	}
	index.AddCommand(newIndexRebuildCmd(), newIndexSearchCmd())
	return index
}

func indexPath() string {
	return dbPath + ".idx"
}

func newIndexRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "rebuild the keyword index from the current HEAD thoughts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			thoughts, err := db.ListThoughts()
			if err != nil {
				return err
			}

			ix, err := indexer.Open(indexPath())
			if err != nil {
				return err
			}
			defer ix.Close()

			return ix.Rebuild(thoughts)
		},
	}
}

func newIndexSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <word>",
		Short: "look up thought ids for a single indexed word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := indexer.Open(indexPath())
			if err != nil {
				return err
			}
			defer ix.Close()

			ids, err := ix.Lookup(args[0])
			if err != nil {
				return err
			}

			printResult(ids, func(v any) string {
				out := ""
				for _, id := range v.([]entity.ThoughtID) {
					out += fmt.Sprintf("%s\n", id)
				}
				return out
			})
			return nil
		},
	}
}
