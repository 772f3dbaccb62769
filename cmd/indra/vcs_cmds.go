package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonstripe/indra-go/hash"
	"github.com/moonstripe/indra-go/vcs"
)

func parseHash(s string) (hash.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return hash.Zero, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return hash.FromBytes(b)
}

func newCommitCmd() *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "commit <message>",
		Short: "commit the working tree to the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			h, err := db.CommitWithAuthor(args[0], author)
			if err != nil {
				return err
			}

			printResult(h, func(v any) string { return v.(hash.Hash).String() })
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "indra-cli", "commit author")
	return cmd
}

func newLogCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "show commit history for the current branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var limitPtr *int
			if limit > 0 {
				limitPtr = &limit
			}

			entries, err := db.Log(limitPtr)
			if err != nil {
				return err
			}

			printResult(entries, func(v any) string {
				es := v.([]vcs.LogEntry)
				out := ""
				for _, e := range es {
					out += fmt.Sprintf("%s  %s  %s\n", e.Hash, e.Commit.Author, e.Commit.Message)
				}
				return out
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum commits to show (0 = all)")
	return cmd
}

func newBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch <name>",
		Short: "create a new branch at the current commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return db.CreateBranch(args[0])
		},
	}
}

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <branch-or-commit>",
		Short: "switch the working tree to a branch or commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return db.Checkout(args[0])
		},
	}
}

func newBranchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "list all branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			refs := db.ListBranches()
			current := db.CurrentBranch()

			printResult(refs, func(v any) string {
				rs := v.([]vcs.RefEntry)
				out := ""
				for _, r := range rs {
					marker := "  "
					if r.Name == current {
						marker = "* "
					}
					out += fmt.Sprintf("%s%s\n", marker, r.Name)
				}
				return out
			})
			return nil
		},
	}
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <from> <to>",
		Short: "diff two commit tree states",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			from, err := parseHash(args[0])
			if err != nil {
				return err
			}
			to, err := parseHash(args[1])
			if err != nil {
				return err
			}

			d, err := db.Diff(from, to)
			if err != nil {
				return err
			}

			printResult(d, func(v any) string {
				diff := v.(vcs.Diff)
				out := ""
				for _, e := range diff.Entries {
					out += fmt.Sprintf("%s %s\n", e.Kind, e.Key)
				}
				return out
			})
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "show the current branch and working tree state",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			status := struct {
				Branch string `json:"branch"`
				Dirty  bool   `json:"dirty"`
			}{
				Branch: db.CurrentBranch(),
				Dirty:  db.IsDirty(),
			}

			printResult(status, func(v any) string {
				s := v.(struct {
					Branch string `json:"branch"`
					Dirty  bool   `json:"dirty"`
				})
				return fmt.Sprintf("branch: %s\ndirty: %t", s.Branch, s.Dirty)
			})
			return nil
		},
	}
}
