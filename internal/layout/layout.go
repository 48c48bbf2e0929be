package layout

import (
	"fmt"

	"ChairReports/internal/domain"
)

// Layout describes how one family of items is rostered and rendered.
type Layout struct {
	Name           string
	Category       string
	Columns        []string
	Headers        map[string]string
	IncludeAddress bool
}

// Registry keeps a mapping from layout names to their definitions.
type Registry struct {
	layouts map[string]Layout
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{layouts: map[string]Layout{}}
}

// Default returns a registry preloaded with the built-in layouts.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Banquet())
	r.Register(Addon())
	r.Register(Catalog())
	r.Register(Directory())
	return r
}

// Register adds or replaces a layout.
func (r *Registry) Register(l Layout) {
	if r.layouts == nil {
		r.layouts = map[string]Layout{}
	}
	r.layouts[l.Name] = l
}

// Resolve returns a layout by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Layout, error) {
	if l, ok := r.layouts[name]; ok {
		return l, nil
	}
	return Layout{}, fmt.Errorf("layout %s is not registered", name)
}

// ForItem picks the item's explicit layout, falling back to its kind.
func (r *Registry) ForItem(item domain.ItemConfig) (Layout, error) {
	name := item.Layout
	if name == "" {
		name = string(item.Kind)
	}
	return r.Resolve(name)
}

var baseHeaders = map[string]string{
	"counter":         "#",
	"order_date":      "Order Date",
	"order_id":        "Order",
	"purchaser":       "Purchaser",
	"purchaser_email": "Purchaser Email",
	"purchaser_phone": "Purchaser Phone",
	"attendee":        "Attendee",
	"attendee_email":  "Attendee Email",
	"item":            "Item",
	"qty":             "Qty",
	"unit_price":      "Unit Price",
	"total":           "Total",
	"notes":           "Notes",
	"address_line1":   "Address",
	"address_line2":   "Address 2",
	"city":            "City",
	"state":           "State",
	"postal_code":     "Postal Code",
	"country":         "Country",
}

func headers() map[string]string {
	out := make(map[string]string, len(baseHeaders))
	for k, v := range baseHeaders {
		out[k] = v
	}
	return out
}

// Banquet rosters attendees; notes combine attendee notes and dietary needs.
func Banquet() Layout {
	h := headers()
	h["notes"] = "Notes / Dietary"
	return Layout{
		Name:     "banquet",
		Category: domain.CategoryBanquet,
		Columns:  []string{"counter", "attendee", "purchaser", "purchaser_email", "item", "qty", "notes", "order_date", "order_id"},
		Headers:  h,
	}
}

// Addon lists add-on purchases.
func Addon() Layout {
	return Layout{
		Name:     "addon",
		Category: domain.CategoryAddon,
		Columns:  []string{"counter", "attendee", "purchaser", "purchaser_email", "item", "qty", "total", "notes", "order_date", "order_id"},
		Headers:  headers(),
	}
}

// Catalog lists merchandise sales.
func Catalog() Layout {
	return Layout{
		Name:     "catalog",
		Category: domain.CategoryCatalog,
		Columns:  []string{"counter", "purchaser", "purchaser_email", "purchaser_phone", "item", "qty", "unit_price", "total", "notes", "order_date", "order_id"},
		Headers:  headers(),
	}
}

// Directory is a catalog roster with postal addresses (pre-registration, directory listings).
func Directory() Layout {
	return Layout{
		Name:     "directory",
		Category: domain.CategoryCatalog,
		Columns: []string{"counter", "attendee", "attendee_email", "purchaser", "purchaser_email", "purchaser_phone",
			"address_line1", "address_line2", "city", "state", "postal_code", "country", "item", "qty", "notes", "order_date", "order_id"},
		Headers:        headers(),
		IncludeAddress: true,
	}
}
