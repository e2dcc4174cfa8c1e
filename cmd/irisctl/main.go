package main

import (
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"github.com/Ramsey-B/iris/pkg/verification"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	policyFile string
	dateOrder  string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "irisctl",
		Short:         "Map and verify identity documents from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.policyFile, "policy", "", "YAML decision policy file")
	cmd.PersistentFlags().StringVar(&opts.dateOrder, "date-order", "day_first", "numeric date order: day_first or month_first")

	cmd.AddCommand(
		newMapCommand(opts),
		newVerifyCSVCommand(opts),
		newNoiseCommand(),
	)
	return cmd
}

// verifier builds a verifier for the persistent flags. CLI output goes to
// stdout, so the verifier logs nothing.
func (o *rootOptions) verifier() (*verification.Verifier, error) {
	policy := verification.DefaultConfig()

	order, err := normalizers.ParseDateOrder(o.dateOrder)
	if err != nil {
		return nil, err
	}
	policy.DateOrder = order

	if o.policyFile != "" {
		if policy, err = verification.LoadConfigFile(o.policyFile, policy); err != nil {
			return nil, err
		}
	}

	v, err := verification.NewVerifier(policy, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	if err != nil {
		return nil, fmt.Errorf("invalid verification policy: %w", err)
	}
	return v, nil
}
