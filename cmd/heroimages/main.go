package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lodge/internal/heroimages"
	"lodge/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "heroimages: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		opts     heroimages.Options
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "heroimages",
		Short: "Generate resized hero banner images",
		Long: `heroimages downloads (or reuses a cached copy of) the hero source photo and writes
JPEG and WebP variants at each target width into the output directory.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(logger.Config{
				Level:   logLevel,
				Format:  logger.TEXT,
				Output:  os.Stderr,
				Service: "heroimages",
			})
			generator := heroimages.NewGenerator(heroimages.NewDownloader(heroimages.DefaultDownloadTimeout, log), log)

			variants, err := generator.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for _, v := range variants {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\n", v.Path, v.Width, v.Height)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "", "Download the source image from this URL instead of the cached copy")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", heroimages.DefaultOutDir, "Output directory for the source cache and variants")
	cmd.Flags().StringVar(&opts.BaseName, "name", heroimages.DefaultBaseName, "Base file name of generated variants")
	cmd.Flags().IntSliceVar(&opts.Widths, "widths", heroimages.DefaultWidths, "Target widths in pixels")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}
