// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the rifsite CLI. rifsite harvests
// RIF-CS records from a ReDBox or Mint OAI-PMH feed and writes one static
// HTML page per record plus a summary index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via ldflags.
var version = "dev"

// logger starts as a console logger and is rebuilt in PersistentPreRunE
// once the config is read.
var logger, _ = newLogger(false, "")

// rootCmd is the base command for the rifsite CLI.
var rootCmd = &cobra.Command{
	Use:   "rifsite",
	Short: "Turn an OAI-PMH RIF-CS feed into a static website",
	Long: `rifsite reads RIF-CS metadata records from the OAI-PMH feed of a ReDBox or
Mint repository and writes one HTML page per record, named after the
record's object ID, plus a summary index listing every record.

Which fields appear on a page is decided by rule tables chosen by the
record's type and subtype. Use "rifsite rules" to list them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("log-json")
		l, err := newLogger(jsonOut, viper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./rifsite.yaml or ~/.config/rifsite/rifsite.yaml)")
	rootCmd.PersistentFlags().Bool("log-json", false, "log JSON lines instead of console text")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default from config)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rifsite")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := homedir.Dir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "rifsite"))
		}
	}

	viper.SetEnvPrefix("RIFSITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Console output goes to stderr so
// stdout stays free for reports.
func newLogger(jsonOut bool, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return nil, errors.WithHint(errors.Wrapf(err, "log level"), "use debug, info, warn or error")
		}
	}

	if jsonOut {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		return cfg.Build()
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(os.Stderr),
		lvl,
	)), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("rifsite failed", zap.Error(err))
		for _, h := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "hint:", h)
		}
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
