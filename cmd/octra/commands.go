package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/woonieit/octra/client"
	"github.com/woonieit/octra/pkg/log"
	"github.com/woonieit/octra/pkg/tx"
	"github.com/woonieit/octra/pkg/wallet"
)

// errTransactionRejected is returned after a failed send has been rendered.
var errTransactionRejected = errors.New("transaction rejected")

type sessionFunc func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error

// withSession opens the configured wallet before running fn.
func withSession(flags *Flags, fn sessionFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := NewApp(*flags, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.OpenWallet(); err != nil {
			return err
		}
		ctx := log.SetContextLogger(cmd.Context(), app.lg.WithKV("command", cmd.Name()))
		return fn(ctx, cmd, app, args)
	}
}

// confirm asks a yes/no question and reports whether the answer was "y".
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, yellow(question+" [y]es / [n]o: "))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

func newShellCmd(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, *flags)
		},
	}
}

func newBalanceCmd(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show address, balance, nonce and staged transactions",
		Args:  cobra.NoArgs,
		RunE: withSession(flags, func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			session := app.Session()
			st, err := session.Status(ctx, true)
			if err != nil {
				return err
			}
			renderStatus(cmd.OutOrStdout(), session.Address(), session.Wallet().PublicKeyB64, st)
			return nil
		}),
	}
}

func newHistoryCmd(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recent transactions",
		Args:  cobra.NoArgs,
		RunE: withSession(flags, func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			entries, err := app.Session().History(ctx, true)
			if err != nil {
				if entries == nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), yellow("showing cached history: "+err.Error()))
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		}),
	}
}

func newStagingCmd(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "staging",
		Short: "List this wallet's transactions waiting in the staging pool",
		Args:  cobra.NoArgs,
		RunE: withSession(flags, func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			staged, err := app.Session().Staged(ctx)
			if err != nil {
				return err
			}
			renderStaging(cmd.OutOrStdout(), staged)
			return nil
		}),
	}
}

func newSendCmd(flags *Flags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "send <address> <amount>",
		Short: "Send OCT to an address",
		Example: `  octra send oct1111111111111111111111111111111111111111111 10.5
  octra send oct1111111111111111111111111111111111111111111 0.25 --yes`,
		Args: cobra.ExactArgs(2),
		RunE: withSession(flags, func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			if err := tx.ValidateAddress(args[0]); err != nil {
				return err
			}
			amount, err := tx.ParseAmount(args[1])
			if err != nil {
				return err
			}

			session := app.Session()
			plan, err := session.PrepareSend(ctx, args[0], amount)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderPlan(out, plan)
			if !yes && !confirm(cmd.InOrStdin(), out, "send?") {
				return nil
			}

			summary, err := session.Execute(ctx, plan, nil)
			if err != nil {
				return err
			}
			res := summary.Results[0]
			renderResult(out, res)
			if !res.OK() {
				return errTransactionRejected
			}
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newMultiSendCmd(flags *Flags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "multisend <file|->",
		Short: "Send to many addresses listed as \"address amount\" lines",
		Long: `Send to many addresses. Each line of the input holds an address and an
amount separated by whitespace. Reading stops at the first empty line. Lines
starting with # are ignored. Use - to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(flags, func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			out := cmd.OutOrStdout()
			recipients, errs := tx.ParseRecipients(in)
			renderRecipientErrors(cmd.ErrOrStderr(), errs)
			if len(recipients) == 0 {
				return client.ErrNothingToSend
			}

			session := app.Session()
			plan, err := session.PrepareMulti(ctx, recipients)
			if err != nil {
				return err
			}

			renderPlan(out, plan)
			if !yes {
				if args[0] == "-" {
					return errors.New("reading recipients from stdin requires --yes")
				}
				if !confirm(cmd.InOrStdin(), out, "send all?") {
					return nil
				}
			}

			summary, err := session.Execute(ctx, plan, progressPrinter(out, len(plan.Recipients)))
			if err != nil {
				return err
			}
			renderSummary(out, summary)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newExportCmd(flags *Flags) *cobra.Command {
	var (
		showPrivate bool
		toFile      bool
		copyAddr    bool
		dir         string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Show the private key, save a wallet backup or copy the address",
		Args:  cobra.NoArgs,
		RunE: withSession(flags, func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			out := cmd.OutOrStdout()
			session := app.Session()

			if !showPrivate && !toFile && !copyAddr {
				fmt.Fprintf(out, "%s %s\n", cyan("address:"), session.Address())
				fmt.Fprintf(out, "%s %s\n", cyan("public: "), session.Wallet().PublicKeyB64)
				return nil
			}
			if showPrivate {
				exportPrivateKey(out, session)
			}
			if toFile {
				if err := exportFile(out, session, dir); err != nil {
					return err
				}
			}
			if copyAddr {
				exportCopyAddress(out, session)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&showPrivate, "show-private", false, "print the private key")
	cmd.Flags().BoolVar(&toFile, "file", false, "save the full wallet to octra_wallet_<unix>.json")
	cmd.Flags().BoolVar(&copyAddr, "copy", false, "copy the address to the clipboard")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory for --file")
	return cmd
}

func newGenerateCmd(flags *Flags) *cobra.Command {
	var (
		words int
		out   string
		node  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create a new wallet from a fresh BIP-39 mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if words < 12 || words > 24 || words%3 != 0 {
				return fmt.Errorf("--words must be one of 12, 15, 18, 21, 24")
			}

			g, err := wallet.Generate(words / 3 * 32)
			if err != nil {
				return err
			}
			return writeGenerated(cmd.OutOrStdout(), g, out, node, force)
		},
	}
	cmd.Flags().IntVar(&words, "words", 12, "mnemonic length")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the wallet file to this path")
	cmd.Flags().StringVar(&node, "node", wallet.DefaultRPC, "node URL stored in the wallet file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing wallet file")
	return cmd
}

func writeGenerated(out io.Writer, g *wallet.Generated, path, node string, force bool) error {
	fmt.Fprintln(out, red("mnemonic (write it down, keep secret!):"))
	fmt.Fprintln(out, g.Mnemonic)
	fmt.Fprintf(out, "%s %s\n", cyan("address:"), g.Address)
	fmt.Fprintf(out, "%s %s\n", cyan("public: "), g.PublicKey)
	fmt.Fprintf(out, "%s %s\n", cyan("private:"), red(g.PrivateKey))

	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := wallet.Save(path, g.File(node)); err != nil {
		return err
	}
	fmt.Fprintf(out, "wallet saved to %s\n", green(path))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "octra %s\n", version)
		},
	}
}
