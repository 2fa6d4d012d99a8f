package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Embedded default configuration, overridden by .adhub.yaml and the environment
const defaultConfigYAML = `
database:
  url: ""
server:
  port: "8080"
  cors_allowed_origins:
    - "*"
statement:
  timezone: Africa/Tripoli
  exclude_friend_rentals: false
export:
  font_file: ""
ledger:
  patterns:
    purchase_code: 'PUR-\d+'
    sales_code: 'SALE-\d+'
    sales_invoice_note: '(?i)(?:فاتورة\s+مبيعات|sales\s+invoice)'
    contract_mention: 'عقد\s*#?(\d+)'
    distributed_contract: '(?:توزيع|موزع[ةه]?)\s+على\s+(?:ال)?عقد\s*#?\s*(\d+)'
`

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
	rootCmd = &cobra.Command{
		Use:   "adhub [bundle.json]",
		Short: "Customer account statements for billboard advertising",
		Long: `adhub builds customer account statements from contracts, invoices,
discounts, partner rentals and payments. Records are read from PostgreSQL
or from an offline JSON bundle.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				stmtFlags.input = args[0]
				return runStatement(cmd, nil)
			}
			return cmd.Help()
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging, initTimezone)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.adhub.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	if !verbose {
		logger = zap.NewNop()
		return
	}
	logger = newConsoleLogger(zapcore.DebugLevel)
}

func newConsoleLogger(level zapcore.Level) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func initConfig() {
	// A missing .env is fine
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading embedded configuration: %v\n", err)
		os.Exit(1)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Add config paths in order of priority
		viper.AddConfigPath(".")  // First check current directory
		viper.AddConfigPath(home) // Then check home directory
		viper.SetConfigName(".adhub")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// initTimezone sets the zone for timestamps that carry no offset.
func initTimezone() {
	name := viper.GetString("statement.timezone")
	if name == "" {
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown timezone, using local time", zap.String("timezone", name), zap.Error(err))
		return
	}
	common.Location = loc
}
