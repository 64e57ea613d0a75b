package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wayfarer/wayfarer/internal/config"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

// loadConfig reads the layered configuration. Subcommands apply their own
// flag overrides on top and re-validate.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "wayfarer",
		Short: "Wayfarer is a travel information service",
		Long: `Wayfarer serves a small travel site: accounts with cookie sessions,
destination recommendations from a precomputed similarity model, a keyword
chatbot and a per-user comment board.

Configuration is read from wayfarer.yaml (or the file named by
WAYFARER_CONFIG) and WAYFARER_* environment variables; flags win.`,
		Version:      Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to a YAML config file (default: $WAYFARER_CONFIG or ./wayfarer.yaml)")
	root.SetVersionTemplate("wayfarer {{.Version}}\n")

	root.AddCommand(
		newServerCmd(opts),
		newRecommendCmd(opts),
		newChatCmd(),
		newArtifactCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
