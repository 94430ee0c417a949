package notify

import (
	"fmt"
	"math/big"
	"strings"

	"burnwatch/internal/model"
)

// FormatAmount renders amount as a decimal with the given number of fractional digits,
// trimming trailing zeros.
func FormatAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	neg := amount.Sign() < 0
	digits := new(big.Int).Abs(amount).String()
	if len(digits) <= int(decimals) {
		digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
	}
	whole := digits[:len(digits)-int(decimals)]
	frac := strings.TrimRight(digits[len(digits)-int(decimals):], "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FormatBurnMessage renders the Markdown chat message for a burn event.
func FormatBurnMessage(event model.BurnEvent, explorerURL string, decimals uint8) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Burn Event* (%s)\n", event.NetworkName)
	fmt.Fprintf(&b, "- *Who*: `%s`\n", event.SourceAddress)
	fmt.Fprintf(&b, "- Burned Amount: %s\n", FormatAmount(event.Amount, decimals))
	fmt.Fprintf(&b, "- *Block Number*: %d\n", event.BlockNumber)
	fmt.Fprintf(&b, "- [Transaction ID](%s%s)\n", explorerURL, event.TransactionID)
	fmt.Fprintf(&b, "- *Unwrap Address*: ```%s```\n", event.UnwrapAddress)
	return b.String()
}
