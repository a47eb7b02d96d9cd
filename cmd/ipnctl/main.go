// Command ipnctl помогает проверять обработку уведомлений VNPAY в песочнице:
// подписывает тестовые IPN и ретранслирует сырые обратные вызовы в очередь.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/shop-checkout/internal/adapter/natsstan"
	"github.com/example/shop-checkout/internal/config"
	"github.com/example/shop-checkout/internal/vnpay"
	"github.com/spf13/cobra"
)

type publisher interface {
	Publish(subject string, data []byte) error
	Close() error
}

type dialFunc func(cfg config.STAN) (publisher, error)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg, dialSTAN).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config, dial dialFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "ipnctl",
		Short:         "Sandbox tooling for VNPAY payment notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(signCmd(cfg), replayCmd(cfg, dial))
	return root
}

func signCmd(cfg config.Config) *cobra.Command {
	var (
		secret, tmnCode, txnRef   string
		responseCode, transaction string
		bankCode, endpoint        string
		amount                    int64
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print a signed payment notification query",
		Example: `  ipnctl sign --txn-ref 42 --amount 900000
  ipnctl sign --txn-ref 42 --amount 900000 --endpoint http://localhost:8080/api/checkout/vnpay-ipn`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds := cfg.Credentials()
			creds.HashSecret, creds.TmnCode = secret, tmnCode
			signer, err := vnpay.NewSigner(creds)
			if err != nil {
				return err
			}
			if amount <= 0 {
				return fmt.Errorf("--amount must be positive")
			}
			p := vnpay.Params{
				vnpay.FieldTmnCode:       tmnCode,
				vnpay.FieldTxnRef:        txnRef,
				vnpay.FieldAmount:        strconv.FormatInt(amount*vnpay.MinorUnits, 10),
				vnpay.FieldResponseCode:  responseCode,
				vnpay.FieldTransactionNo: transaction,
				vnpay.FieldBankCode:      bankCode,
				vnpay.FieldPayDate:       time.Now().In(vnpay.GatewayZone).Format(vnpay.TimeLayout),
			}
			q := signer.SignedQuery(p)
			if endpoint != "" {
				q = endpoint + "?" + q
			}
			fmt.Fprintln(cmd.OutOrStdout(), q)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&secret, "secret", cfg.VNPay.HashSecret, "hash secret (defaults to VNPAY_HASH_SECRET)")
	f.StringVar(&tmnCode, "tmn-code", cfg.VNPay.TmnCode, "terminal code (defaults to VNPAY_TMN_CODE)")
	f.StringVar(&txnRef, "txn-ref", "", "order id")
	f.Int64Var(&amount, "amount", 0, "order total in VND")
	f.StringVar(&responseCode, "response-code", vnpay.ResponseSuccess, "gateway response code")
	f.StringVar(&transaction, "transaction-no", "14000000", "gateway transaction number")
	f.StringVar(&bankCode, "bank-code", "NCB", "bank code")
	f.StringVar(&endpoint, "endpoint", "", "prefix the query with this IPN url")
	_ = cmd.MarkFlagRequired("txn-ref")
	return cmd
}

func replayCmd(cfg config.Config, dial dialFunc) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Publish callback query strings from stdin to the IPN relay subject",
		Long: `Reads one callback query string per line (a full URL is accepted too)
and publishes each to the relay subject consumed by the checkout service.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := dial(cfg.STAN)
			if err != nil {
				return err
			}
			defer conn.Close()
			n, err := replay(cmd.InOrStdin(), func(q string) error {
				return conn.Publish(subject, []byte(q))
			})
			fmt.Fprintf(cmd.OutOrStdout(), "published %d notifications to %s\n", n, subject)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", cfg.STAN.IPNSubject, "relay subject")
	return cmd
}

func replay(r io.Reader, publish func(q string) error) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if _, q, ok := strings.Cut(line, "?"); ok {
			line = q
		}
		if _, err := vnpay.ParseQuery(line); err != nil {
			return n, fmt.Errorf("line %d: %w", n+1, err)
		}
		if err := publish(line); err != nil {
			return n, err
		}
		n++
	}
	return n, sc.Err()
}

func dialSTAN(cfg config.STAN) (publisher, error) {
	if cfg.ClusterID == "" {
		return nil, fmt.Errorf("STAN_CLUSTER_ID is not set")
	}
	return natsstan.Connect(cfg.ClusterID, cfg.ClientID, cfg.URL)
}
