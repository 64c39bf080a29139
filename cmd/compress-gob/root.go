package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/stk"
)

// envPrefix namespaces environment overrides, e.g. COMPRESS_GOB_FORCE=1.
const envPrefix = "COMPRESS_GOB"

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "compress-gob [-f] [-o <output>] <conf file>",
		Short: "Compresses Gobliiins! data files",
		Long: `Builds an STK/ITK archive from a .gob conf file generated by the extractor.

Each file listed in the conf file is stored or compressed according to its
flag. Identical files are written once and shared by their header records.
The archive is named after the conf file's first line and created next to it
unless --output is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), v, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "archive path (default: name declared by the conf file)")
	flags.BoolP("force", "f", false, "ignore the compression flags and compress every file")
	flags.IntP("jobs", "j", 1, "number of files compressed in parallel")
	flags.Bool("verify", false, "re-read the archive and check it against the sources")
	flags.StringSlice("skip-ext", nil, "extensions that are always stored, e.g. snd,mid")
	flags.BoolP("verbose", "v", false, "enable debug output")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	return cmd
}

func run(ctx context.Context, out io.Writer, v *viper.Viper, confPath string) error {
	level := log.InfoLevel
	if v.GetBool("verbose") {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(out, log.Options{Level: level})
	logger := slog.New(handler)

	opts := []stk.CreateOption{
		stk.CreateWithLogger(logger),
		stk.CreateWithForceCompression(v.GetBool("force")),
		stk.CreateWithConcurrency(v.GetInt("jobs")),
		stk.CreateWithVerify(v.GetBool("verify")),
	}
	if exts := v.GetStringSlice("skip-ext"); len(exts) > 0 {
		opts = append(opts, stk.CreateWithSkipCompression(stk.SkipExtensions(exts...)))
	}

	res, err := stk.CreateFile(ctx, confPath, v.GetString("output"), opts...)
	if err != nil {
		logger.Error("archive creation failed", "conf", confPath, "err", err)
		return err
	}

	var stored, compressed, duplicates int
	for _, e := range res.Entries {
		switch e.Compression {
		case stk.CompressionDictionary:
			compressed++
		case stk.CompressionDuplicate:
			duplicates++
		default:
			stored++
		}
	}
	fmt.Fprintf(out, "%s: %d entries (%d compressed, %d stored, %d identical), %d bytes\n",
		res.Path, len(res.Entries), compressed, stored, duplicates, res.Size)
	return nil
}
