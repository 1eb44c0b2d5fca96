package index

import "sort"

// Field names a tokenised listing field.
type Field string

const (
	FieldTitle        Field = "title"
	FieldManufacturer Field = "manufacturer"
)

// Term is the index key: a normalised token scoped by the field it came from.
type Term struct {
	Field Field
	Token string
}

// PostingSet holds the live listing ids containing a term.
type PostingSet map[int]struct{}

// IDs returns the set's ids in ascending order.
func (p PostingSet) IDs() []int {
	ids := make([]int, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// TermEntry is one row of an index snapshot.
type TermEntry struct {
	Term Term
	IDs  []int
}
