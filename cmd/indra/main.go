// Command indra is the CLI front end for the indra graph database: a thin
// cobra application over the indra package that lets scripts and
// interactive users create thoughts, relate them, search, and manage
// branches/commits from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	dbPath       string
	outputFormat string
	noAutoCommit bool
	logger       *zap.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "indra",
		Short:         "indra is an embedded, content-addressed graph database with git-like version control",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := zap.NewProduction()
			if err != nil {
				return err
			}
			logger = l
			dbPath = viper.GetString("db")
			outputFormat = viper.GetString("format")
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "indra.db", "path to the database file")
	root.PersistentFlags().StringVar(&outputFormat, "format", "text", "output format: json|text")
	root.PersistentFlags().BoolVar(&noAutoCommit, "no-auto-commit", false, "disable automatic commit after mutating commands")

	viper.SetEnvPrefix("INDRA")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("db", root.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("format", root.PersistentFlags().Lookup("format"))

	root.AddCommand(
		newInitCmd(),
		newCreateCmd(),
		newGetCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newListCmd(),
		newRelateCmd(),
		newUnrelateCmd(),
		newNeighborsCmd(),
		newSearchCmd(),
		newCommitCmd(),
		newLogCmd(),
		newBranchCmd(),
		newCheckoutCmd(),
		newBranchesCmd(),
		newDiffCmd(),
		newStatusCmd(),
		newIndexCmd(),
	)

	return root
}
