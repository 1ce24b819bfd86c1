package dispatch

import (
	"fmt"

	"github.com/vietddude/walletwatch/internal/core/domain"
)

// FormatAlert renders the user-facing alert text.
func FormatAlert(a domain.Alert) string {
	return fmt.Sprintf(
		"🔔 Incoming transfer to %s\n\n"+
			"Amount: %s %s\n"+
			"Signature: %s\n\n"+
			"https://solscan.io/tx/%s",
		a.WalletName, a.Amount.StringFixed(4), a.AssetLabel, a.Signature, a.Signature,
	)
}
