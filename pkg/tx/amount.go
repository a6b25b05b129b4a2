package tx

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/woonieit/octra/pkg/sign"
)

const (
	// MicroUnit is the number of on-chain units in one OCT.
	MicroUnit = 1_000_000
	// Decimals is the precision of OCT amounts.
	Decimals = 6
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidAddress = errors.New("invalid address")
)

var (
	amountPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

	// Transfers at or above this amount use the higher fee class.
	largeTransferThreshold = decimal.NewFromInt(1000)

	smallFee = decimal.RequireFromString("0.001")
	largeFee = decimal.RequireFromString("0.003")

	maxMicro = decimal.NewFromInt(math.MaxInt64)
)

// ValidateAddress returns ErrInvalidAddress unless s is a well formed Octra address.
func ValidateAddress(s string) error {
	if !sign.IsValidAddress(s) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return nil
}

// ParseAmount parses a user supplied OCT amount. Only plain positive decimals
// are accepted: no sign, exponent or thousands separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q is not a positive number", ErrInvalidAmount, s)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, err.Error())
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// ValidateAmount returns ErrInvalidAmount unless amount is at least one micro
// unit and its micro value fits the int64 wire representation.
func ValidateAmount(amount decimal.Decimal) error {
	micro := amount.Shift(Decimals).Truncate(0)
	if !micro.IsPositive() {
		return fmt.Errorf("%w: must be at least 0.000001", ErrInvalidAmount)
	}
	if micro.GreaterThan(maxMicro) {
		return fmt.Errorf("%w: %s exceeds the largest transferable amount", ErrInvalidAmount, amount.String())
	}
	return nil
}

// ToMicro converts an OCT amount into micro units, dropping digits past the
// sixth decimal.
func ToMicro(amount decimal.Decimal) int64 {
	return amount.Shift(Decimals).Truncate(0).IntPart()
}

// FromMicro converts micro units into OCT.
func FromMicro(micro int64) decimal.Decimal {
	return decimal.New(micro, -Decimals)
}

// FromRaw interprets an amount reported by the node. Values containing a
// decimal point are already expressed in OCT, integers are micro units.
func FromRaw(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, err.Error())
	}
	if strings.Contains(raw, ".") {
		return v, nil
	}
	return v.Shift(-Decimals), nil
}

// OU returns the fee class sent in the "ou" field.
func OU(amount decimal.Decimal) string {
	if amount.LessThan(largeTransferThreshold) {
		return "1"
	}
	return "3"
}

// Fee returns the network fee charged for a transfer of amount.
func Fee(amount decimal.Decimal) decimal.Decimal {
	if amount.LessThan(largeTransferThreshold) {
		return smallFee
	}
	return largeFee
}

// FormatOCT renders an amount with the six decimals used throughout the UI.
func FormatOCT(amount decimal.Decimal) string {
	return amount.StringFixed(Decimals)
}
