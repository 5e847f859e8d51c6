package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/platapay/widget"
	"github.com/platapay/widget/sandbox"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	previewFile    string
	previewRootID  string
	previewVariant string
)

func init() {
	previewCmd.Flags().StringVarP(&previewFile, "file", "f", "", "HTML file with the frame content")
	previewCmd.Flags().StringVar(&previewRootID, "root", "platapay-embed-root", "id of the content root element; empty uses the body")
	previewCmd.Flags().StringVar(&previewVariant, "widget", widget.FormVariant.Name, "widget to embed (map, form)")
	previewCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Embed an HTML file in a sandbox host page and report frame heights as it is edited",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, ok := widget.LookupVariant(previewVariant)
		if !ok {
			return fmt.Errorf("unknown widget %q", previewVariant)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		resized := make(chan float64, 64)
		s := sandbox.New(logger)
		page, err := s.AddPage(sandbox.PageConfig{
			Variant:      v,
			ScriptOrigin: cfg.PublicOrigin(),
			EmbedOrigin:  cfg.FormOrigin(),
			Watcher:      widget.NewDocumentWatcher(previewFile, previewRootID, logger),
			Subscriber: widget.ResizeSubscriberFunc(func(height float64) {
				select {
				case resized <- height:
				default:
				}
			}),
		})
		if err != nil {
			s.Shutdown()
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "frame height: %s\n", page.Height())

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			for {
				select {
				case h := <-resized:
					fmt.Fprintf(out, "frame height: %s\n", (&widget.ResizeMessage{Height: h}).Pixels())
				case <-gctx.Done():
					return nil
				}
			}
		})
		g.Go(func() error {
			<-gctx.Done()
			if err := s.Shutdown(); err != nil {
				logger.Error("failed to shutdown sandbox", zap.Error(err))
				return err
			}
			return nil
		})
		return g.Wait()
	},
}
