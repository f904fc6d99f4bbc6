//
// Copyright (C) 2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"git.sr.ht/~vejnar/GeneBody/lib/errs"
	"git.sr.ht/~vejnar/GeneBody/lib/feature"
	"git.sr.ht/~vejnar/GeneBody/lib/profile"
)

const envPrefix = "GENEBODY"

// Config holds the resolved options of a run.
type Config struct {
	// Input
	PathBAM          string `mapstructure:"path_bam" yaml:"path_bam"`
	PathSAM          string `mapstructure:"path_sam" yaml:"path_sam"`
	SAMCommandIn     string `mapstructure:"sam_command_in" yaml:"sam_command_in"`
	PathAnnotation   string `mapstructure:"path_annotation" yaml:"path_annotation"`
	FormatAnnotation string `mapstructure:"format_annotation" yaml:"format_annotation"`
	FONName          string `mapstructure:"fon_name" yaml:"fon_name"`
	FONGene          string `mapstructure:"fon_gene" yaml:"fon_gene"`
	FONChrom         string `mapstructure:"fon_chrom" yaml:"fon_chrom"`
	FONStrand        string `mapstructure:"fon_strand" yaml:"fon_strand"`
	FONCoords        string `mapstructure:"fon_coords" yaml:"fon_coords"`
	PathChromMapping string `mapstructure:"path_chrom_mapping" yaml:"path_chrom_mapping"`
	// Output
	PathOutput string `mapstructure:"path_output" yaml:"path_output"`
	PathGenes  string `mapstructure:"path_genes" yaml:"path_genes"`
	PathReport string `mapstructure:"path_report" yaml:"path_report"`
	// Selection
	MinGeneLength int    `mapstructure:"min_gene_length" yaml:"min_gene_length"`
	MaxGeneLength int    `mapstructure:"max_gene_length" yaml:"max_gene_length"`
	Source        string `mapstructure:"source" yaml:"source"`
	SingleModel   bool   `mapstructure:"single_model" yaml:"single_model"`
	Unique        bool   `mapstructure:"unique" yaml:"unique"`
	// Profile
	Normalize bool `mapstructure:"normalize" yaml:"normalize"`
	// General
	Verbose   bool `mapstructure:"verbose" yaml:"verbose"`
	NumWorker int  `mapstructure:"num_worker" yaml:"num_worker"`
}

func addFlags(fs *pflag.FlagSet) {
	// Input
	fs.String("path_bam", "", "Path to BAM file (random access if <path>.bai exists)")
	fs.String("path_sam", "", "Path to SAM file")
	fs.String("sam_command_in", "", "Command line to execute for opening the SAM file (comma separated)")
	fs.String("path_annotation", "", "Path to annotation file (GTF or FON, gzip compressed if ending with .gz)")
	fs.String("format_annotation", feature.FormatGTF, "Format of annotation file: 'gtf' or 'fon'")
	fs.String("fon_name", feature.DefaultFONKeys.Name, "FON key for transcript name")
	fs.String("fon_gene", feature.DefaultFONKeys.Gene, "FON key for gene name")
	fs.String("fon_chrom", feature.DefaultFONKeys.Chrom, "FON key for chromosome")
	fs.String("fon_strand", feature.DefaultFONKeys.Strand, "FON key for strand")
	fs.String("fon_coords", feature.DefaultFONKeys.Coords, "FON key for exon coordinates")
	fs.String("path_chrom_mapping", "", "Path to chromosome name mapping from annotation to alignment (tabulated file)")
	// Output
	fs.String("path_output", "-", "Write profile to path (stdout with -, compressed if ending with .lz4 or .gz)")
	fs.String("path_genes", "", "Write profiled genes to path")
	fs.String("path_report", "", "Write report to path (stdout with -)")
	// Selection
	fs.Int("min_gene_length", profile.MinGeneLength, "Minimum gene length")
	fs.Int("max_gene_length", 0, "Maximum gene length (no limit if 0)")
	fs.String("source", "", "Only use GTF records of source")
	fs.Bool("single_model", false, "Only use genes with one transcript")
	fs.Bool("unique", false, "Only use alignments with NH tag equal to 1")
	// Profile
	fs.Bool("normalize", false, "Divide profile by number of genes")
	// General
	fs.Bool("verbose", false, "Verbose")
	fs.Int("num_worker", 1, "Number of worker(s) decompressing BAM")
	fs.String("config", "", "Path to YAML configuration file")
}

// loadConfig reads the optional configuration file and returns the options from
// flags, environment and file, in this order of precedence.
func loadConfig(v *viper.Viper) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", errs.ErrConfig, path, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConfig, err)
	}
	return cfg, nil
}

func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks options before any input is opened.
func (c *Config) Validate() error {
	if (c.PathBAM == "") == (c.PathSAM == "") {
		return fmt.Errorf("%w: exactly one of path_bam or path_sam is required", errs.ErrConfig)
	}
	if c.PathAnnotation == "" {
		return fmt.Errorf("%w: no annotation input (path_annotation)", errs.ErrConfig)
	}
	switch strings.ToLower(c.FormatAnnotation) {
	case feature.FormatGTF, feature.FormatFON:
	default:
		return fmt.Errorf("%w: unknown annotation format %q", errs.ErrConfig, c.FormatAnnotation)
	}
	if c.PathOutput == "" {
		return fmt.Errorf("%w: no output (path_output)", errs.ErrConfig)
	}
	if c.NumWorker < 1 {
		return fmt.Errorf("%w: num_worker must be >= 1 (got %d)", errs.ErrConfig, c.NumWorker)
	}
	return c.ProfileOptions().Validate()
}

// ProfileOptions returns the gene selection options.
func (c *Config) ProfileOptions() profile.Options {
	return profile.Options{
		MinGeneLength:        c.MinGeneLength,
		MaxGeneLength:        c.MaxGeneLength,
		SingleTranscriptOnly: c.SingleModel,
	}
}

// FONKeys returns the keys used to read FON annotation.
func (c *Config) FONKeys() feature.FONKeys {
	return feature.FONKeys{Name: c.FONName, Gene: c.FONGene, Chrom: c.FONChrom, Strand: c.FONStrand, Coords: c.FONCoords}
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		Long:  "Show the configuration resolved from flags, GENEBODY_* environment variables and configuration file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
