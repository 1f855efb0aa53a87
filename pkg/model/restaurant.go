package model

// Restaurant is the tenancy boundary every staff member, period, and
// config version is scoped to. The distilled spec treats a single
// restaurant as given; this type generalizes that to the multi-restaurant
// deployment the Persistence Adapter and Sync Hub both need to scope
// queries and ownership by (SPEC_FULL.md §10).
type Restaurant struct {
	BaseModel
	Name     string  `json:"name" db:"name"`
	Code     string  `json:"code" db:"code"`
	Settings JSONMap `json:"settings" db:"settings"`
}
