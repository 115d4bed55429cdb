package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"highlights-cli/internal/ui"
	"highlights-cli/pkg/config"
	"highlights-cli/pkg/version"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "highlights-cli",
	Short: "Client and test harness for the Highlights text search service",
	Long: `highlights-cli talks to a remote Highlights search service, which ranks
text chunks against a query. It can search files, run needle-in-a-haystack
tests against the ranking, record their outcomes, and answer questions about
PDF documents using the best-ranked pages as LLM context.

API keys are read from configuration or the environment
(HIGHLIGHTS_API_KEY, OPENAI_API_KEY); a .env file in the working
directory is loaded first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
			fmt.Println(version.GetBuildInfo().String())
			return
		}
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		newPrinter().Errorf("%v", err)
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.highlights-cli.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().Bool("no-spinner", false, "Disable the progress spinner")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")

	// Bind flags to viper
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("no_spinner", rootCmd.PersistentFlags().Lookup("no-spinner"))
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	// A missing .env file is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			os.Exit(1)
		}

		// Search config in home directory with name ".highlights-cli" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".highlights-cli")
	}

	config.BindEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		newPrinter().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
}

// newPrinter returns a status printer on stderr honouring --debug.
func newPrinter() *ui.Printer {
	return ui.NewPrinter(os.Stderr, viper.GetBool("debug"))
}

// spinnerEnabled reports whether long calls should show a spinner.
func spinnerEnabled() bool {
	return !viper.GetBool("no_spinner") && !viper.GetBool("debug")
}

// commandContext returns a context cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
