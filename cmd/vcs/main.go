package main

import (
	"fmt"
	"os"

	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/config"
	"github.com/drpcorg/vcs/document"
	"github.com/drpcorg/vcs/history"
	"github.com/drpcorg/vcs/utils"
	"github.com/spf13/cobra"
)

var (
	storeDir string
	author   string
)

var rootCmd = &cobra.Command{
	Use:   "vcs",
	Short: "Version control for music projects",
	Long: `vcs keeps the revisions of a project made of piano tracks,
automation tracks and project info. Without a subcommand it starts
the interactive shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		vcs.Log = utils.NewDefaultLogger(config.Global.Level())
		if storeDir == "" {
			storeDir = config.Global.Store
		}
		if author == "" {
			author = config.Global.Author
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL()
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive shell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL()
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List revisions from the head back",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withStore(func(store *history.Store) error {
			return printLog(cmd.OutOrStdout(), store, limit)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show [revision]",
	Short: "Print the items of a revision",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := "HEAD"
		if len(args) == 1 {
			ref = args[0]
		}
		return withStore(func(store *history.Store) error {
			return printRevision(cmd.OutOrStdout(), store, ref)
		})
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <from> <to>",
	Short: "Show what changed between two revisions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *history.Store) error {
			return printDiff(cmd.OutOrStdout(), store, args[0], args[1])
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "revision database directory")
	rootCmd.PersistentFlags().StringVar(&author, "author", "", "author recorded in new revisions")
	logCmd.Flags().Int("limit", 0, "show at most that many revisions")
	rootCmd.AddCommand(replCmd, logCmd, showCmd, diffCmd)
}

func openStore() (*history.Store, error) {
	return history.Open(storeDir, history.Options{
		Author:    author,
		CacheSize: config.Global.CacheSize,
		Log:       vcs.Log,
	})
}

func withStore(f func(store *history.Store) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return f(store)
}

func runREPL() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	repl := NewREPL(document.New(vcs.Log), store, os.Stdout)
	if err := repl.Load(); err != nil {
		_ = store.Close()
		return err
	}
	if err := repl.Open(); err != nil {
		_ = store.Close()
		return err
	}
	defer repl.Close()
	return repl.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
