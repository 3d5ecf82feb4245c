package main

import (
	"encoding/json"
	"fmt"
	"io"

	"sticker-pricer/internal/pricing"

	"github.com/spf13/cobra"
)

type quoteFlags struct {
	product   string
	width     float64
	height    float64
	area      float64
	quantity  int
	rush      bool
	whiteInk  string
	vibrancy  bool
	wholesale bool
	asJSON    bool
}

func newQuoteCmd(a *app) *cobra.Command {
	var f quoteFlags

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a single order",
		Example: `  pricer quote --width 3 --height 3 --quantity 100
  pricer quote --product banner --area 864 --quantity 10 --rush`,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := a.productLine(f.product)
			if err != nil {
				return err
			}
			finish, err := pricing.WhiteInk(f.whiteInk).Multiplier()
			if err != nil {
				return err
			}

			tables, err := a.loadTables(cmd.Context())
			if err != nil {
				return err
			}

			area := f.area
			if !(area > 0) {
				area = pricing.AreaFromDimensions(f.width, f.height)
			}
			req := pricing.Request{
				AreaUnits:         area,
				Quantity:          f.quantity,
				RushOrder:         f.rush,
				FinishMultiplier:  finish,
				VibrancyBoost:     f.vibrancy,
				WholesaleApproved: f.wholesale,
			}
			res := tables.Quote(line, req)

			if f.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return writeBreakdown(cmd.OutOrStdout(), line, req, res)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.product, "product", pricing.Vinyl.Name, "product line")
	fl.Float64Var(&f.width, "width", 0, "width in inches")
	fl.Float64Var(&f.height, "height", 0, "height in inches")
	fl.Float64Var(&f.area, "area", 0, "area in square inches (overrides width/height)")
	fl.IntVar(&f.quantity, "quantity", 0, "number of units")
	fl.BoolVar(&f.rush, "rush", false, "rush order")
	fl.StringVar(&f.whiteInk, "white-ink", string(pricing.WhiteInkNone), "white ink: none, partial or full")
	fl.BoolVar(&f.vibrancy, "vibrancy", false, "vibrancy boost")
	fl.BoolVar(&f.wholesale, "wholesale", false, "approved wholesale account")
	fl.BoolVar(&f.asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

func writeBreakdown(w io.Writer, line pricing.ProductLine, req pricing.Request, res pricing.Result) error {
	_, err := fmt.Fprintf(w,
		"Product:      %s\n"+
			"Area:         %g sq in\n"+
			"Quantity:     %d\n"+
			"Base price:   %.4f\n"+
			"Discount:     %.1f%%\n"+
			"Unit price:   %.4f\n"+
			"Total:        %.2f\n",
		line.Name,
		req.AreaUnits,
		req.Quantity,
		res.BasePrice,
		res.DiscountFraction*100,
		res.UnitPrice,
		res.TotalPrice,
	)
	if err != nil {
		return err
	}

	if res.VolumeDiscount > 0 {
		fmt.Fprintf(w, "  volume discount (%.0f%%): -%.2f\n", res.VolumeDiscountFraction*100, res.VolumeDiscount)
	}
	if res.RushSurcharge > 0 {
		fmt.Fprintf(w, "  rush surcharge: +%.2f\n", res.RushSurcharge)
	}
	if res.WholesaleDiscount > 0 {
		fmt.Fprintf(w, "  wholesale discount: -%.2f (before: %.2f)\n", res.WholesaleDiscount, res.Subtotal)
	}
	return nil
}
