// Package assets embeds the static pricing sheets shipped with the storefront.
package assets

import "embed"

// Pricing holds base-pricing.csv and quantity-discounts.csv under pricing/.
//
//go:embed pricing/*.csv
var Pricing embed.FS
