package main

import (
	"fmt"
	"path/filepath"
	"time"

	"sticker-pricer/internal/pricing"
	"sticker-pricer/internal/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		product string
		out     string
		rush    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a quantity x area price grid to Excel",
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := a.productLine(product)
			if err != nil {
				return err
			}
			tables, err := a.loadTables(cmd.Context())
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join("reports", fmt.Sprintf("%s_prices_%s.xlsx", line.Name, time.Now().Format("20060102_1504")))
			}

			opts := report.GridOptions{Flags: pricing.Request{RushOrder: rush}}
			if err := report.ExportPriceGrid(tables, line, opts, out); err != nil {
				return err
			}

			a.logger.Info("Price grid exported",
				zap.String("product", line.Name),
				zap.String("path", out))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&product, "product", pricing.Vinyl.Name, "product line")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .xlsx path (default reports/<product>_prices_<time>.xlsx)")
	cmd.Flags().BoolVar(&rush, "rush", false, "price every cell as a rush order")
	return cmd
}
