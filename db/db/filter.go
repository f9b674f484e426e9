package db

import "strings"

// LoadFilter is a conjunction of optional predicates applied to an already
// fetched snapshot. An empty field matches everything.
//
// This scans the whole collection on every call; serving real volumes it
// should be pushed down to the store query.
type LoadFilter struct {
	DriverName string `form:"driver"`
	Product    string `form:"product"`
	PickupDate string `form:"date"`
}

func (f LoadFilter) Empty() bool {
	return f.DriverName == "" && f.Product == "" && f.PickupDate == ""
}

func (f LoadFilter) Match(l Load) bool {
	if f.DriverName != "" && !containsFold(l.DriverName, f.DriverName) {
		return false
	}
	if f.Product != "" && !strings.EqualFold(string(l.Product), f.Product) {
		return false
	}
	if f.PickupDate != "" && l.PickupDate != f.PickupDate {
		return false
	}
	return true
}

// Apply keeps the input order and never mutates loads.
func (f LoadFilter) Apply(loads []Load) []Load {
	if f.Empty() {
		return loads
	}
	result := make([]Load, 0, len(loads))
	for _, l := range loads {
		if f.Match(l) {
			result = append(result, l)
		}
	}
	return result
}

// RestrictionFilter matches restrictions by driver substring and by a date
// falling inside the restriction window.
type RestrictionFilter struct {
	DriverName string `form:"driver"`
	ActiveOn   string `form:"date"`
}

func (f RestrictionFilter) Match(r Restriction) bool {
	if f.DriverName != "" && !containsFold(r.DriverName, f.DriverName) {
		return false
	}
	if f.ActiveOn != "" {
		// ISO dates compare lexically.
		if f.ActiveOn < r.StartDate {
			return false
		}
		if r.EndDate != "" && f.ActiveOn > r.EndDate {
			return false
		}
	}
	return true
}

func (f RestrictionFilter) Apply(restrictions []Restriction) []Restriction {
	if f.DriverName == "" && f.ActiveOn == "" {
		return restrictions
	}
	result := make([]Restriction, 0, len(restrictions))
	for _, r := range restrictions {
		if f.Match(r) {
			result = append(result, r)
		}
	}
	return result
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}
