package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, red("error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags Flags

	rootCmd := &cobra.Command{
		Use:   "octra",
		Short: "Octra wallet client",
		Long: `A command-line wallet for the Octra network.

Run without a command to start the interactive shell. The wallet is read from
wallet.json in the working directory unless --wallet or OCTRA_WALLET says
otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.Wallet, "wallet", "w", "", "path to the wallet file")
	rootCmd.PersistentFlags().StringVar(&flags.RPC, "rpc", "", "node URL, overrides the wallet's rpc field")
	rootCmd.PersistentFlags().StringVar(&flags.ConfigDir, "config-dir", "", "directory for the database, log and .env file")

	rootCmd.AddCommand(
		newShellCmd(&flags),
		newBalanceCmd(&flags),
		newHistoryCmd(&flags),
		newStagingCmd(&flags),
		newSendCmd(&flags),
		newMultiSendCmd(&flags),
		newExportCmd(&flags),
		newGenerateCmd(&flags),
		newVersionCmd(),
	)
	return rootCmd
}
