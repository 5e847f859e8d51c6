package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/platapay/widget"
	"github.com/platapay/widget/sandbox"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	simulatePages     int
	simulateMutations int
	simulateTimeout   time.Duration
)

func init() {
	simulateCmd.Flags().IntVar(&simulatePages, "pages", 32, "number of host pages")
	simulateCmd.Flags().IntVar(&simulateMutations, "mutations", 16, "content mutations per frame")
	simulateCmd.Flags().DurationVar(&simulateTimeout, "timeout", 10*time.Second, "time to wait for frames to converge")
	rootCmd.AddCommand(simulateCmd)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Measure the time for embedded frames to converge to their content height",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		s := sandbox.New(logger)
		defer s.Shutdown()

		variants := widget.Variants()
		for i := 0; i != simulatePages; i++ {
			_, err := s.AddPage(sandbox.PageConfig{
				Variant:       variants[i%len(variants)],
				ScriptOrigin:  cfg.PublicOrigin(),
				EmbedOrigin:   cfg.FormOrigin(),
				InitialHeight: 400 + rand.Intn(400),
			})
			if err != nil {
				return fmt.Errorf("failed to add page: %w", err)
			}
		}

		start := time.Now()
		for _, page := range s.Pages() {
			for j := 0; j != simulateMutations; j++ {
				page.Watcher.Mutate(200 + rand.Intn(1200))
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), simulateTimeout)
		defer cancel()
		if err := s.WaitForHeights(ctx); err != nil {
			return fmt.Errorf("frames did not converge: %w", err)
		}

		elapsed := time.Since(start)
		logger.Info(
			"frames converged",
			zap.Int("pages", simulatePages),
			zap.Int("mutations", simulateMutations),
			zap.Duration("elapsed", elapsed),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%d pages converged in %s\n", simulatePages, elapsed)
		return nil
	},
}
