package domain

import "strings"

// ProductFilter selects catalog products. Every populated field is a clause and
// clauses are AND-combined; a zero-valued field imposes no constraint.
type ProductFilter struct {
	// Category matches Product.Category case-insensitively and exactly.
	Category string
	Type     ProductType
	// Search matches when name, description or any tag contains the term,
	// ignoring case.
	Search string
	// Featured and OnSale only restrict when true.
	Featured bool
	OnSale   bool
	// PriceMin and PriceMax are inclusive bounds.
	PriceMin *Money
	PriceMax *Money
	// Brands matches products whose brand is in the set. Products without a
	// brand never match a non-empty set.
	Brands []string
}

// Matches reports whether p satisfies every clause of the filter
func (f ProductFilter) Matches(p *Product) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.Search != "" && !matchesSearch(p, strings.ToLower(f.Search)) {
		return false
	}
	if f.Featured && !p.IsFeatured {
		return false
	}
	if f.OnSale && !p.IsOnSale {
		return false
	}
	if f.PriceMin != nil && p.Price.Cmp(*f.PriceMin) < 0 {
		return false
	}
	if f.PriceMax != nil && p.Price.Cmp(*f.PriceMax) > 0 {
		return false
	}
	if len(f.Brands) > 0 {
		if p.Brand == "" {
			return false
		}
		found := false
		for _, b := range f.Brands {
			if b == p.Brand {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchesSearch(p *Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}
