package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/walletwatch/internal/control"
	"github.com/vietddude/walletwatch/internal/core/config"
	"github.com/vietddude/walletwatch/internal/core/domain"
)

var walletFlags config.WalletConfig

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage tracked wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Track a wallet for a user",
	Run:   runWalletAdd,
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's tracked wallets",
	Run:   runWalletList,
}

func init() {
	walletCmd.PersistentFlags().Int64Var(&walletFlags.UserID, "user", 0, "telegram user id")
	_ = walletCmd.MarkPersistentFlagRequired("user")

	walletAddCmd.Flags().StringVar(&walletFlags.Address, "address", "", "wallet address")
	walletAddCmd.Flags().StringVar(&walletFlags.Name, "name", "", "display name")
	walletAddCmd.Flags().StringVar(&walletFlags.Min, "min", "", "minimum amount (inclusive)")
	walletAddCmd.Flags().StringVar(&walletFlags.Max, "max", "", "maximum amount (inclusive)")
	walletAddCmd.Flags().BoolVar(&walletFlags.FreshOnly, "fresh-only", false, "only notify while the wallet is fresh")
	_ = walletAddCmd.MarkFlagRequired("address")

	walletCmd.AddCommand(walletAddCmd, walletListCmd)
	rootCmd.AddCommand(walletCmd)
}

func openRegistry(ctx context.Context) *control.Storage {
	cfg := loadConfig()
	if cfg.Database.URL == "" {
		slog.Error("database.url is required to manage wallets")
		os.Exit(1)
	}
	st, err := control.OpenStorage(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	return st
}

func runWalletAdd(cmd *cobra.Command, args []string) {
	w, err := walletFlags.ToWallet()
	if err != nil {
		slog.Error("Invalid wallet", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st := openRegistry(ctx)
	defer func() {
		_ = st.Close()
	}()

	if err := st.AddWallet(ctx, w); err != nil {
		slog.Error("Failed to add wallet", "error", err)
		os.Exit(1)
	}
	slog.Info("Wallet added", "wallet_id", w.ID, "address", w.Address, "user_id", w.UserID)
}

func runWalletList(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	st := openRegistry(ctx)
	defer func() {
		_ = st.Close()
	}()

	wallets, err := st.Wallets.ListByUser(ctx, walletFlags.UserID)
	if err != nil {
		slog.Error("Failed to list wallets", "error", err)
		os.Exit(1)
	}
	printWallets(os.Stdout, wallets)
}

func printWallets(out io.Writer, wallets []*domain.Wallet) {
	if len(wallets) == 0 {
		_, _ = fmt.Fprintln(out, "No wallets tracked.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "WALLET\tADDRESS\tMIN\tMAX\tFRESH ONLY")
	for _, wl := range wallets {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			wl.DisplayName(), wl.Address, bound(wl.MinThreshold.Valid, wl.MinThreshold.Decimal.String()),
			bound(wl.MaxThreshold.Valid, wl.MaxThreshold.Decimal.String()), wl.FreshOnly)
	}
	_ = w.Flush()
}

func bound(valid bool, s string) string {
	if !valid {
		return "-"
	}
	return s
}
