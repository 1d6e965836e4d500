package store

// Nearest asks for the K items closest to Embedding by vector distance.
type Nearest struct {
	Embedding []float32
	K         int
}

// Filter is the capability set a driver must compile for FindItems. Zero-value
// fields are ignored; populated fields combine with AND semantics, except
// Nearest which selects the candidate set on its own (KNN) and is then
// restricted by the equality fields.
type Filter struct {
	// OwnerID restricts matches to one owner (equality).
	OwnerID string

	// ProjectID restricts matches to one project (equality).
	ProjectID string

	// ContainsFold matches items whose content or summary contains the
	// given substring case-insensitively.
	ContainsFold string

	// TagsOverlap matches items whose tag set intersects this set
	// non-emptily (array overlap).
	TagsOverlap []string

	// Nearest selects by vector distance.
	Nearest *Nearest

	// Limit caps the number of matches. Zero means driver default.
	Limit int
}

// DefaultLimit is applied by drivers when Filter.Limit is zero.
const DefaultLimit = 20

// EffectiveLimit returns the filter limit or the driver default.
func (f Filter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}
