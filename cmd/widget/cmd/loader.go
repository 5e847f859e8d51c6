package cmd

import (
	"fmt"

	"github.com/platapay/widget"
	"github.com/platapay/widget/internal/server"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loaderCmd)
}

var loaderCmd = &cobra.Command{
	Use:       "loader [map|form]",
	Short:     "Print the loader script for a widget",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{widget.MapVariant.Name, widget.FormVariant.Name},
	RunE: func(cmd *cobra.Command, args []string) error {
		v, ok := widget.LookupVariant(args[0])
		if !ok {
			return fmt.Errorf("unknown widget %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		script, err := server.RenderLoaderScript(v, cfg.EmbedOrigin(v))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(script)
		return err
	},
}
