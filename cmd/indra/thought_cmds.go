package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonstripe/indra-go"
	"github.com/moonstripe/indra-go/entity"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "create a new database file",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := indra.Create(dbPath, indra.WithLogger(logger))
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Sync()
		},
	}
}

func openDB() (*indra.Database, error) {
	return indra.OpenOrCreate(dbPath, indra.WithLogger(logger))
}

func maybeAutoCommit(db *indra.Database, message string) error {
	if noAutoCommit {
		return nil
	}
	_, err := db.CommitWithAuthor(message, "indra-cli")
	return err
}

func newCreateCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "create <content>",
		Short: "create a new thought",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var thoughtID entity.ThoughtID
			if id != "" {
				thoughtID, err = db.CreateThoughtWithID(entity.ThoughtID(id), args[0])
			} else {
				thoughtID, err = db.CreateThought(args[0])
			}
			if err != nil {
				return err
			}

			if err := maybeAutoCommit(db, fmt.Sprintf("create %s", thoughtID)); err != nil {
				return err
			}

			printResult(thoughtID, func(v any) string { return string(v.(entity.ThoughtID)) })
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "explicit thought id")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "get a thought by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			th, err := db.GetThought(entity.ThoughtID(args[0]))
			if err != nil {
				return err
			}
			if th == nil {
				return fmt.Errorf("thought %q not found", args[0])
			}

			printResult(th, func(v any) string {
				t := v.(*entity.Thought)
				return fmt.Sprintf("%s: %s", t.ID, t.Content)
			})
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <content>",
		Short: "update a thought's content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.UpdateThought(entity.ThoughtID(args[0]), args[1]); err != nil {
				return err
			}
			return maybeAutoCommit(db, fmt.Sprintf("update %s", args[0]))
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "delete a thought",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteThought(entity.ThoughtID(args[0])); err != nil {
				return err
			}
			return maybeAutoCommit(db, fmt.Sprintf("delete %s", args[0]))
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every thought visible at HEAD",
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

			printResult(thoughts, func(v any) string {
				ts := v.([]*entity.Thought)
				out := ""
				for _, t := range ts {
					out += fmt.Sprintf("%s: %s\n", t.ID, t.Content)
				}
				return out
			})
			return nil
		},
	}
}
