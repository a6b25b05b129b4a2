package main

import (
	"fmt"
	"io"
	"time"

	"github.com/atotto/clipboard"

	"github.com/woonieit/octra/client"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func exportPrivateKey(out io.Writer, session *client.Client) {
	w := session.Wallet()
	fmt.Fprintln(out, red("private key (keep secret!):"))
	fmt.Fprintln(out, red(splitKey(w.PrivateKeyB64)))
	fmt.Fprintln(out, green("public key:"))
	fmt.Fprintln(out, green(w.PublicKeyB64))
}

func exportFile(out io.Writer, session *client.Client, dir string) error {
	path, err := session.ExportWallet(dir, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved to %s\n", green(path))
	fmt.Fprintln(out, red("file contains private key - keep safe!"))
	return nil
}

func exportCopyAddress(out io.Writer, session *client.Client) {
	if err := writeClipboard(session.Address()); err != nil {
		fmt.Fprintln(out, red("clipboard not available"))
		fmt.Fprintf(out, "address: %s\n", yellow(session.Address()))
		return
	}
	fmt.Fprintln(out, green("address copied to clipboard!"))
}
