package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/woonieit/octra/client"
	"github.com/woonieit/octra/pkg/rpc"
	"github.com/woonieit/octra/pkg/tx"
	"github.com/woonieit/octra/storage"
)

var (
	green     = color.New(color.FgGreen).SprintFunc()
	greenBold = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	redBold   = color.New(color.FgRed, color.Bold).SprintFunc()
	cyan      = color.New(color.FgCyan).SprintFunc()
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	return t
}

func renderStatus(out io.Writer, address, publicKey string, st client.Status) {
	balance := tx.FormatOCT(st.Balance) + " oct"
	if st.Balance.IsPositive() {
		balance = greenBold(balance)
	}

	staging := "none"
	if st.Pending > 0 {
		staging = yellow(fmt.Sprintf("%d pending", st.Pending))
	}

	t := newTable(out)
	t.AppendRow(table.Row{cyan("address"), address})
	t.AppendRow(table.Row{cyan("balance"), balance})
	t.AppendRow(table.Row{cyan("nonce"), st.Nonce})
	t.AppendRow(table.Row{cyan("public"), publicKey})
	t.AppendRow(table.Row{cyan("staging"), staging})
	t.Render()
}

func renderHistory(out io.Writer, entries []client.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, yellow("no transactions yet"))
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Time", "Type", "Amount", "Address", "Status", "Hash"})
	t.AppendSeparator()
	for _, e := range entries {
		timeText := e.Time.Local().Format("15:04:05")
		status := cyan(fmt.Sprintf("e%d", e.Epoch))
		if e.Pending() {
			timeText = yellow(timeText)
			status = yellow("pen")
		}

		direction := red("out")
		if e.Direction == client.DirectionIn {
			direction = green(" in")
		}

		t.AppendRow(table.Row{timeText, direction, tx.FormatOCT(e.Amount), e.Peer, status, e.Hash})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

func renderStaging(out io.Writer, staged []rpc.StagedTx) {
	if len(staged) == 0 {
		fmt.Fprintln(out, "no staged transactions")
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Nonce", "To", "Amount", "Hash"})
	t.AppendSeparator()
	for _, s := range staged {
		amount := s.Amount.String()
		if v, err := tx.FromRaw(amount); err == nil {
			amount = tx.FormatOCT(v)
		}
		t.AppendRow(table.Row{uint64(s.Nonce), s.To, amount, s.Hash})
	}
	t.Render()
}

func renderPlan(out io.Writer, plan *client.Plan) {
	if len(plan.Recipients) == 1 {
		r := plan.Recipients[0]
		fmt.Fprintln(out, greenBold(fmt.Sprintf("send %s oct", tx.FormatOCT(r.Amount))))
		fmt.Fprintf(out, "to:  %s\n", green(r.Address))
		fmt.Fprintln(out, yellow(fmt.Sprintf("fee: %s oct (nonce: %d)", tx.Fee(r.Amount).String(), plan.StartNonce)))
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Address", "Amount", "Nonce"})
	t.AppendSeparator()
	for i, r := range plan.Recipients {
		t.AppendRow(table.Row{i + 1, r.Address, tx.FormatOCT(r.Amount), plan.StartNonce + uint64(i)})
	}
	t.AppendFooter(table.Row{"", "total", tx.FormatOCT(plan.Total), ""})
	t.Render()
	fmt.Fprintln(out, yellow(fmt.Sprintf("total: %s oct to %d addresses, fees %s oct, starting nonce %d",
		tx.FormatOCT(plan.Total), len(plan.Recipients), plan.Fee.String(), plan.StartNonce)))
}

func renderResult(out io.Writer, res client.Result) {
	if !res.OK() {
		fmt.Fprintln(out, redBold("✗ transaction failed!"))
		fmt.Fprintf(out, "error: %s\n", red(res.Err.Error()))
		return
	}

	fmt.Fprintln(out, greenBold("✓ transaction accepted!"))
	fmt.Fprintf(out, "hash: %s\n", green(res.Hash))
	fmt.Fprintf(out, "time: %.2fs\n", res.Elapsed.Seconds())
	if res.PoolSize != nil {
		fmt.Fprintln(out, yellow(fmt.Sprintf("pool: %d txs pending", *res.PoolSize)))
	}
}

func progressPrinter(out io.Writer, total int) func(client.Result) {
	return func(res client.Result) {
		prefix := fmt.Sprintf("[%d/%d]", res.Index+1, total)
		if res.OK() {
			fmt.Fprintf(out, "%s %s %s %s oct -> %s\n", prefix, green("✓ ok  "), res.Hash, tx.FormatOCT(res.Recipient.Amount), res.Recipient.Address)
			return
		}
		fmt.Fprintf(out, "%s %s %s\n", prefix, red("✗ fail"), res.Err.Error())
	}
}

func renderSummary(out io.Writer, summary client.Summary) {
	line := fmt.Sprintf("completed: %d success, %d failed", summary.Succeeded, summary.Failed)
	if summary.Failed == 0 {
		fmt.Fprintln(out, greenBold(line))
	} else {
		fmt.Fprintln(out, yellow(line))
	}
}

func renderWallets(out io.Writer, wallets []storage.WalletDTO, active string) {
	if len(wallets) == 0 {
		fmt.Fprintln(out, "no imported wallets")
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Name", "Address", "Node", ""})
	t.AppendSeparator()
	for _, w := range wallets {
		marker := ""
		if w.Address == active {
			marker = green("active")
		}
		t.AppendRow(table.Row{w.Name, w.Address, w.RPC, marker})
	}
	t.Render()
}

func renderRecipientErrors(out io.Writer, errs []error) {
	for _, err := range errs {
		fmt.Fprintln(out, red(err.Error()))
	}
}

// splitKey breaks a long secret over two lines.
func splitKey(key string) string {
	if len(key) <= 32 {
		return key
	}
	return strings.Join([]string{key[:32], key[32:]}, "\n")
}

func renderNodes(out io.Writer, nodes []storage.NodeDTO, active string) {
	t := newTable(out)
	t.AppendHeader(table.Row{"URL", "Last Used", ""})
	t.AppendSeparator()
	for _, n := range nodes {
		marker := ""
		if n.URL == active {
			marker = green("active")
		}
		t.AppendRow(table.Row{n.URL, n.LastUsedAt.Local().Format(time.RFC3339), marker})
	}
	t.Render()
}
