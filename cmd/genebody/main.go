//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Command genebody computes the average coverage profile along the exons of genes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

var version = "DEV"

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.InfoLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func newRootCmd(stderr io.Writer) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:   "genebody",
		Short: "Gene body coverage profile",
		Long: `Compute the mean alignment coverage in 100 bins along the exons of each gene,
from the 5' to the 3' end, and aggregate it over all genes.`,
		Example: `  genebody --path_bam sample.bam --path_annotation genes.gtf --normalize
  genebody --config genebody.yaml --path_output profile.tab.lz4`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unexpected argument %q", errs.ErrConfig, args[0])
			}
			return nil
		},
	}
	addFlags(root.PersistentFlags())
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errs.ErrConfig, err)
	})
	v, err := newViper(root.PersistentFlags())
	if err != nil {
		return nil, err
	}
	root.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(v)
		if err != nil {
			return err
		}
		if err = cfg.Validate(); err != nil {
			return err
		}
		logger := newLogger(stderr, cfg.Verbose)
		defer logger.Sync()
		return run(cmd.Context(), cfg, cmd.OutOrStdout(), logger)
	}
	root.AddCommand(newConfigCmd(v))
	return root, nil
}

// execute runs the command with args and returns the exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, err := newRootCmd(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return errs.ExitError
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err = root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return errs.ExitCode(err)
	}
	return errs.ExitSuccess
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
