package pricing

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	VibrancyMultiplier   = 1.05
	VinylRushMultiplier  = 1.4
	BannerRushMultiplier = 1.35
	ChromePremium        = 1.15
	WholesaleDiscount    = 0.15
)

// Family groups product lines that share a rush policy.
type Family string

const (
	FamilyVinyl  Family = "vinyl"
	FamilyBanner Family = "banner"
)

// RushMode selects how a rush order is charged.
type RushMode string

const (
	// RushPerUnit multiplies the discounted unit price.
	RushPerUnit RushMode = "per_unit"
	// RushSurcharge adds a fee computed on the pre-discount subtotal.
	RushSurcharge RushMode = "surcharge"
)

// VolumeTier is one step of a quantity-only discount schedule.
type VolumeTier struct {
	MinQuantity int     `yaml:"min_quantity" json:"min_quantity"`
	Discount    float64 `yaml:"discount" json:"discount"`
}

// BannerVolumeSchedule is applied to banners on top of the tier discount.
var BannerVolumeSchedule = []VolumeTier{
	{MinQuantity: 5, Discount: 0.05},
	{MinQuantity: 10, Discount: 0.10},
	{MinQuantity: 15, Discount: 0.15},
	{MinQuantity: 25, Discount: 0.25},
}

// ProductLine is the declarative pricing policy of one product.
type ProductLine struct {
	Name            string       `yaml:"name" json:"name"`
	Family          Family       `yaml:"family" json:"family"`
	Premium         float64      `yaml:"premium" json:"premium"`
	RushMultiplier  float64      `yaml:"rush_multiplier" json:"rush_multiplier"`
	RushMode        RushMode     `yaml:"rush_mode" json:"rush_mode"`
	VolumeDiscounts []VolumeTier `yaml:"volume_discounts,omitempty" json:"volume_discounts,omitempty"`
}

var (
	Vinyl       = ProductLine{Name: "vinyl", Family: FamilyVinyl, Premium: 1, RushMultiplier: VinylRushMultiplier, RushMode: RushPerUnit}
	Holographic = ProductLine{Name: "holographic", Family: FamilyVinyl, Premium: 1, RushMultiplier: VinylRushMultiplier, RushMode: RushPerUnit}
	Glitter     = ProductLine{Name: "glitter", Family: FamilyVinyl, Premium: 1, RushMultiplier: VinylRushMultiplier, RushMode: RushPerUnit}
	Clear       = ProductLine{Name: "clear", Family: FamilyVinyl, Premium: 1, RushMultiplier: VinylRushMultiplier, RushMode: RushPerUnit}
	Chrome      = ProductLine{Name: "chrome", Family: FamilyVinyl, Premium: ChromePremium, RushMultiplier: VinylRushMultiplier, RushMode: RushPerUnit}
	Banner      = ProductLine{Name: "banner", Family: FamilyBanner, Premium: 1, RushMultiplier: BannerRushMultiplier, RushMode: RushSurcharge, VolumeDiscounts: BannerVolumeSchedule}
)

// DefaultProductLines returns the built-in product lines.
func DefaultProductLines() []ProductLine {
	return []ProductLine{Vinyl, Holographic, Glitter, Clear, Chrome, Banner}
}

// normalized fills defaults for zero-valued fields.
func (p ProductLine) normalized() ProductLine {
	if p.Family == "" {
		p.Family = FamilyVinyl
	}
	if p.Premium == 0 {
		p.Premium = 1
	}
	if p.RushMultiplier == 0 {
		p.RushMultiplier = VinylRushMultiplier
		if p.Family == FamilyBanner {
			p.RushMultiplier = BannerRushMultiplier
		}
	}
	if p.RushMode == "" {
		p.RushMode = RushPerUnit
		if p.Family == FamilyBanner {
			p.RushMode = RushSurcharge
		}
	}
	return p
}

func (p ProductLine) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product line without name")
	}
	if p.Premium < 1 {
		return fmt.Errorf("product %q: premium %.2f below 1", p.Name, p.Premium)
	}
	if p.RushMultiplier < 1 {
		return fmt.Errorf("product %q: rush multiplier %.2f below 1", p.Name, p.RushMultiplier)
	}
	switch p.RushMode {
	case RushPerUnit, RushSurcharge:
	default:
		return fmt.Errorf("product %q: unknown rush mode %q", p.Name, p.RushMode)
	}
	for _, t := range p.VolumeDiscounts {
		if t.MinQuantity <= 0 || t.Discount < 0 || t.Discount >= 1 {
			return fmt.Errorf("product %q: invalid volume tier %+v", p.Name, t)
		}
	}
	return nil
}

// volumeDiscount returns the schedule's fraction for quantity using >=
// thresholds.
func (p ProductLine) volumeDiscount(quantity int) float64 {
	d := 0.0
	for _, t := range p.VolumeDiscounts {
		if quantity >= t.MinQuantity && t.Discount > d {
			d = t.Discount
		}
	}
	return d
}

// WhiteInk is the white-ink underlay option of a sticker.
type WhiteInk string

const (
	WhiteInkNone    WhiteInk = "none"
	WhiteInkPartial WhiteInk = "partial"
	WhiteInkFull    WhiteInk = "full"
)

// Multiplier returns the finish multiplier for the option. The empty
// string means no white ink.
func (w WhiteInk) Multiplier() (float64, error) {
	switch WhiteInk(strings.ToLower(string(w))) {
	case "", WhiteInkNone:
		return 1.0, nil
	case WhiteInkPartial:
		return 1.05, nil
	case WhiteInkFull:
		return 1.10, nil
	}
	return 0, fmt.Errorf("unknown white ink option %q", string(w))
}

// Catalog is a read-only set of product lines keyed by name.
type Catalog struct {
	lines map[string]ProductLine
}

// NewCatalog builds a catalog. Later lines replace earlier ones with the
// same name.
func NewCatalog(lines ...ProductLine) (*Catalog, error) {
	c := &Catalog{lines: make(map[string]ProductLine, len(lines))}
	for _, l := range lines {
		l = l.normalized()
		if err := l.validate(); err != nil {
			return nil, err
		}
		c.lines[strings.ToLower(l.Name)] = l
	}
	return c, nil
}

// Line looks a product line up by name, case-insensitively.
func (c *Catalog) Line(name string) (ProductLine, bool) {
	l, ok := c.lines[strings.ToLower(strings.TrimSpace(name))]
	return l, ok
}

// Lines returns all product lines sorted by name.
func (c *Catalog) Lines() []ProductLine {
	out := make([]ProductLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type catalogFile struct {
	Products []ProductLine `yaml:"products"`
}

// LoadCatalog returns the built-in product lines overridden by the ones
// declared in the YAML file at path. An empty path yields the built-ins.
func LoadCatalog(path string) (*Catalog, error) {
	const operation = "pricing.LoadCatalog"

	if path == "" {
		return NewCatalog(DefaultProductLines()...)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", operation, path, err)
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", operation, path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes a YAML product list on top of the built-ins.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return NewCatalog(append(DefaultProductLines(), file.Products...)...)
}
