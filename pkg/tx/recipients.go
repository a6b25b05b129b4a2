package tx

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/woonieit/octra/pkg/sign"
)

// Recipient is one line of a multi-send.
type Recipient struct {
	Address string
	Amount  decimal.Decimal
}

// LineError reports why a multi-send line was rejected.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err.Error())
}

func (e *LineError) Unwrap() error { return e.Err }

// ParseRecipient parses a single "address amount" line.
func ParseRecipient(line string) (Recipient, error) {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		return Recipient{}, fmt.Errorf("need address & amount")
	}

	address, amountStr := parts[0], parts[1]
	if !sign.IsValidAddress(address) {
		return Recipient{}, fmt.Errorf("%w: expected oct followed by 44 base58 characters", ErrInvalidAddress)
	}

	amount, err := ParseAmount(amountStr)
	if err != nil {
		return Recipient{}, err
	}
	return Recipient{Address: address, Amount: amount}, nil
}

// ParseRecipients reads "address amount" lines until EOF or the first empty
// line. Lines starting with '#' are skipped. Valid lines are returned even
// when other lines fail; the failures are reported as *LineError values.
func ParseRecipients(r io.Reader) ([]Recipient, []error) {
	var (
		recipients []Recipient
		errs       []error
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		recipient, err := ParseRecipient(line)
		if err != nil {
			errs = append(errs, &LineError{Line: lineNo, Text: line, Err: err})
			continue
		}
		recipients = append(recipients, recipient)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	return recipients, errs
}

// Total sums the amounts of all recipients.
func Total(recipients []Recipient) decimal.Decimal {
	total := decimal.Zero
	for _, r := range recipients {
		total = total.Add(r.Amount)
	}
	return total
}
