package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/woonieit/octra/pkg/log"
	"github.com/woonieit/octra/pkg/tx"
	"github.com/woonieit/octra/pkg/wallet"
)

// Operator drives the interactive shell.
type Operator struct {
	app *App
	ctx context.Context

	exitCh chan struct{}
}

func NewOperator(ctx context.Context, app *App) *Operator {
	return &Operator{
		app:    app,
		ctx:    ctx,
		exitCh: make(chan struct{}),
	}
}

func (o *Operator) Complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(o.complete(d), d.GetWordBeforeCursor(), true)
}

func (o *Operator) complete(d prompt.Document) []prompt.Suggest {
	args := strings.Split(d.TextBeforeCursor(), " ")

	if len(args) < 2 {
		return []prompt.Suggest{
			{Text: "explorer", Description: "Show balance, nonce and recent transactions"},
			{Text: "send", Description: "[1] Send OCT to one address"},
			{Text: "refresh", Description: "[2] Reload balance and history from the node"},
			{Text: "multisend", Description: "[3] Send OCT to many addresses"},
			{Text: "export", Description: "[4] Show the private key, save a backup or copy the address"},
			{Text: "clear-history", Description: "[5] Forget the local transaction history"},
			{Text: "history", Description: "List recent transactions"},
			{Text: "staging", Description: "List transactions waiting in the staging pool"},
			{Text: "wallets", Description: "List imported wallets"},
			{Text: "import", Description: "Import a wallet by private key"},
			{Text: "use", Description: "Switch to an imported wallet"},
			{Text: "forget", Description: "Remove an imported wallet"},
			{Text: "nodes", Description: "List nodes used so far"},
			{Text: "exit", Description: "[0] Exit the application"},
		}
	}

	if len(args) < 3 {
		switch args[0] {
		case "export", "4":
			return exportSuggestions
		case "use", "forget":
			return o.getWalletSuggestions()
		}
	}

	return nil
}

var exportSuggestions = []prompt.Suggest{
	{Text: "priv", Description: "Show the private key"},
	{Text: "file", Description: "Save the full wallet to a file"},
	{Text: "copy", Description: "Copy the address to the clipboard"},
}

func (o *Operator) Execute(s string) {
	args := strings.Fields(s)
	if len(args) == 0 {
		return
	}

	switch args[0] {
	case "exit", "0", "q":
		o.exit()
		return
	case "wallets":
		o.handleListWallets()
		return
	case "import":
		o.handleImportWallet(args)
		return
	case "use":
		o.handleUseWallet(args)
		return
	case "forget":
		o.handleForgetWallet(args)
		return
	case "nodes":
		o.handleListNodes()
		return
	}

	if o.app.Session() == nil {
		fmt.Println("No wallet loaded. Import one with 'import <name>' and select it with 'use <name>'.")
		return
	}

	switch args[0] {
	case "explorer":
		o.handleExplorer(false)
	case "send", "1":
		o.handleSend()
	case "refresh", "2":
		o.handleExplorer(true)
	case "multisend", "3":
		o.handleMultiSend()
	case "export", "4":
		o.handleExport(args)
	case "clear-history", "5":
		o.handleClearHistory()
	case "history":
		o.handleHistory()
	case "staging":
		o.handleStaging()
	default:
		fmt.Printf("Unknown command: %s\n", s)
	}
}

func (o *Operator) Wait() <-chan struct{} {
	return o.exitCh
}

func (o *Operator) exit() {
	close(o.exitCh)
}

func (o *Operator) readExtraArg(name string) string {
	promptPrefix := fmt.Sprintf("{%s}>>> ", name)
	return strings.TrimSpace(prompt.Input(promptPrefix, emptyCompleter,
		prompt.OptionTitle("Octra Wallet"),
		prompt.OptionPrefixTextColor(prompt.Yellow),
	))
}

func (o *Operator) readSelectionArg(name string, suggestions []prompt.Suggest) string {
	completer := func(d prompt.Document) []prompt.Suggest {
		args := strings.Split(d.TextBeforeCursor(), " ")
		if len(args) > 1 {
			return []prompt.Suggest{}
		}
		return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
	}

	promptPrefix := fmt.Sprintf("{%s}>>> ", name)
	return strings.TrimSpace(prompt.Input(promptPrefix, completer, getStyleOptions()...))
}

var confirmSuggestions = []prompt.Suggest{
	{Text: "y", Description: "Yes"},
	{Text: "n", Description: "No"},
}

func (o *Operator) confirm(question string) bool {
	fmt.Println(yellow(question))
	return strings.EqualFold(o.readSelectionArg("y/n", confirmSuggestions), "y")
}

func (o *Operator) handleExplorer(force bool) {
	session := o.app.Session()
	st, err := session.Status(o.ctx, force)
	if err != nil {
		fmt.Println(red(err.Error()))
		return
	}
	renderStatus(os.Stdout, session.Address(), session.Wallet().PublicKeyB64, st)
	o.handleHistoryWith(force)
}

func (o *Operator) handleHistory() {
	o.handleHistoryWith(false)
}

func (o *Operator) handleHistoryWith(force bool) {
	entries, err := o.app.Session().History(o.ctx, force)
	if err != nil {
		fmt.Println(yellow("history: " + err.Error()))
	}
	renderHistory(os.Stdout, entries)
}

func (o *Operator) handleStaging() {
	staged, err := o.app.Session().Staged(o.ctx)
	if err != nil {
		fmt.Println(red(err.Error()))
		return
	}
	renderStaging(os.Stdout, staged)
}

func (o *Operator) handleSend() {
	fmt.Println("What address do you want to send to?")
	to := o.readExtraArg("to")
	if err := tx.ValidateAddress(to); err != nil {
		fmt.Println(red("invalid address!"))
		return
	}

	fmt.Println("How much OCT do you want to send?")
	amount, err := tx.ParseAmount(o.readExtraArg("amount"))
	if err != nil {
		fmt.Println(red("invalid amount!"))
		return
	}

	session := o.app.Session()
	plan, err := session.PrepareSend(o.ctx, to, amount)
	if err != nil {
		fmt.Println(red(err.Error()))
		return
	}

	renderPlan(os.Stdout, plan)
	if !o.confirm("Send this transaction?") {
		return
	}

	fmt.Println(yellow("sending transaction..."))
	summary, err := session.Execute(o.ctx, plan, nil)
	if err != nil {
		fmt.Println(red(err.Error()))
		return
	}
	renderResult(os.Stdout, summary.Results[0])
}

func (o *Operator) handleMultiSend() {
	fmt.Println("Enter recipients as 'address amount', one per line. An empty line finishes the list.")

	var recipients []tx.Recipient
	for {
		line := o.readExtraArg(fmt.Sprintf("recipient %d", len(recipients)+1))
		if line == "" {
			break
		}
		r, err := tx.ParseRecipient(line)
		if err != nil {
			fmt.Println(red(err.Error()))
			continue
		}
		recipients = append(recipients, r)
		fmt.Println(green(fmt.Sprintf("added: %s oct -> %s", tx.FormatOCT(r.Amount), r.Address)))
	}
	if len(recipients) == 0 {
		fmt.Println(yellow("no recipients"))
		return
	}

	session := o.app.Session()
	plan, err := session.PrepareMulti(o.ctx, recipients)
	if err != nil {
		fmt.Println(red(err.Error()))
		return
	}

	renderPlan(os.Stdout, plan)
	if !o.confirm("Send all transactions?") {
		return
	}

	summary, err := session.Execute(o.ctx, plan, progressPrinter(os.Stdout, len(plan.Recipients)))
	if err != nil {
		fmt.Println(red(err.Error()))
		return
	}
	renderSummary(os.Stdout, summary)
}

func (o *Operator) handleExport(args []string) {
	session := o.app.Session()

	choice := ""
	if len(args) > 1 {
		choice = args[1]
	} else {
		st, err := session.Status(o.ctx, false)
		fmt.Printf("%s %s\n", cyan("address:"), session.Address())
		if err == nil {
			fmt.Printf("%s %s oct\n", cyan("balance:"), tx.FormatOCT(st.Balance))
		}
		fmt.Println("What do you want to export?")
		choice = o.readSelectionArg("export", exportSuggestions)
	}

	switch choice {
	case "priv", "1":
		exportPrivateKey(os.Stdout, session)
	case "file", "2":
		if err := exportFile(os.Stdout, session, "."); err != nil {
			fmt.Println(red(err.Error()))
		}
	case "copy", "3":
		exportCopyAddress(os.Stdout, session)
	case "":
	default:
		fmt.Printf("Unknown export option: %s. Use 'priv', 'file' or 'copy'.\n", choice)
	}
}

func (o *Operator) handleClearHistory() {
	if err := o.app.Session().ClearHistory(); err != nil {
		fmt.Println(red(err.Error()))
		return
	}
	fmt.Println(green("history cleared"))
}

func (o *Operator) handleListWallets() {
	wallets, err := o.app.store.GetWallets()
	if err != nil {
		fmt.Printf("Failed to fetch wallets: %s\n", err.Error())
		return
	}

	active := ""
	if o.app.Session() != nil {
		active = o.app.Session().Address()
	}
	renderWallets(os.Stdout, wallets, active)
}

func (o *Operator) handleImportWallet(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: import <name>")
		return
	}

	fmt.Println("Paste private key (base64):")
	privateKey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Printf("\nError reading key: %v\n", err)
		return
	}

	fmt.Println("Node URL (empty for default):")
	node := o.readExtraArg("rpc")
	if node == "" {
		node = wallet.DefaultRPC
	}

	dto, err := o.app.store.AddWallet(args[1], strings.TrimSpace(string(privateKey)), node)
	if err != nil {
		fmt.Printf("Failed to import wallet: %s\n", err.Error())
		return
	}
	fmt.Printf("Wallet imported successfully: %s (%s)\n", dto.Name, dto.Address)
}

func (o *Operator) handleUseWallet(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: use <name>")
		return
	}

	dto, err := o.app.store.GetWalletByName(args[1])
	if err != nil {
		fmt.Printf("Failed to find wallet %s: %s\n", args[1], err.Error())
		return
	}

	w, err := wallet.FromFile(wallet.File{Priv: dto.PrivateKey, Addr: dto.Address, RPC: dto.RPC})
	if err != nil {
		fmt.Printf("Failed to load wallet %s: %s\n", args[1], err.Error())
		return
	}
	o.app.UseWallet(w)
	fmt.Printf("Using wallet %s (%s)\n", dto.Name, w.Address)
}

func (o *Operator) handleForgetWallet(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: forget <name>")
		return
	}

	if err := o.app.store.DeleteWallet(args[1]); err != nil {
		fmt.Printf("Failed to remove wallet %s: %s\n", args[1], err.Error())
		return
	}
	fmt.Printf("Wallet %s removed\n", args[1])
}

func (o *Operator) handleListNodes() {
	nodes, err := o.app.store.GetNodes()
	if err != nil {
		fmt.Printf("Failed to fetch nodes: %s\n", err.Error())
		return
	}

	renderNodes(os.Stdout, nodes, o.app.NodeURL())
}

// getWalletSuggestions returns the imported wallets as suggestions.
func (o *Operator) getWalletSuggestions() []prompt.Suggest {
	wallets, err := o.app.store.GetWallets()
	if err != nil {
		return nil
	}

	s := make([]prompt.Suggest, 0, len(wallets))
	for _, w := range wallets {
		s = append(s, prompt.Suggest{
			Text:        w.Name,
			Description: fmt.Sprintf("Wallet with address %s", w.Address),
		})
	}
	return s
}

func runShell(cmd *cobra.Command, flags Flags) error {
	app, err := NewApp(flags, os.Stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.OpenWallet(); err != nil {
		fmt.Println(yellow(err.Error()))
		fmt.Println(yellow("Import a wallet with 'import <name>' or restart with --wallet."))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = log.SetContextLogger(ctx, app.lg.WithKV("command", "shell"))
	operator := NewOperator(ctx, app)
	if app.Session() != nil {
		operator.handleExplorer(false)
	}

	initialState, _ := term.GetState(int(os.Stdin.Fd()))
	handleExit := func() {
		if initialState != nil {
			_ = term.Restore(int(os.Stdin.Fd()), initialState)
		}
		_ = exec.Command("stty", "sane").Run()
	}

	options := append(getStyleOptions(),
		prompt.OptionPrefix(">>> "),

		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(buf *prompt.Buffer) {
				fmt.Println("Exiting Octra wallet.")
				handleExit()
				app.Close()
				os.Exit(0)
			},
		}),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn:  func(buf *prompt.Buffer) {},
		}),
	)
	p := prompt.New(
		operator.Execute,
		operator.Complete,
		options...,
	)

	promptExitCh := make(chan struct{})
	go func() {
		p.Run()
		close(promptExitCh)
	}()

	select {
	case <-ctx.Done():
	case <-operator.Wait():
	case <-promptExitCh:
	}
	handleExit()
	fmt.Println("Exiting Octra wallet.")
	return nil
}

func emptyCompleter(d prompt.Document) []prompt.Suggest {
	return []prompt.Suggest{}
}

func getStyleOptions() []prompt.Option {
	return []prompt.Option{
		prompt.OptionTitle("Octra Wallet"),
		prompt.OptionPrefixTextColor(prompt.Yellow),
		prompt.OptionPreviewSuggestionTextColor(prompt.Cyan),

		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSuggestionBGColor(prompt.DarkBlue),

		prompt.OptionDescriptionTextColor(prompt.Black),
		prompt.OptionDescriptionBGColor(prompt.Yellow),

		prompt.OptionSelectedSuggestionTextColor(prompt.Black),
		prompt.OptionSelectedSuggestionBGColor(prompt.Yellow),

		prompt.OptionSelectedDescriptionTextColor(prompt.White),
		prompt.OptionSelectedDescriptionBGColor(prompt.DarkBlue),
	}
}
