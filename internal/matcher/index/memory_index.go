// Package index maintains the inverted index over the listing corpus: per
// field, a mapping from term to the set of live listing ids containing it,
// plus the stored listing values needed to snapshot a match.
package index

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/matcher/analyzer"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/errors"
)

// indexedFields are the listing fields that get analysed and posted.
var indexedFields = []Field{FieldTitle, FieldManufacturer}

type Index struct {
	mu       sync.RWMutex
	postings map[Term]PostingSet
	stored   map[int]record.Listing
	docTerms map[int][]Term
	docCount int
	built    bool
	logger   *slog.Logger
}

func New() *Index {
	return &Index{
		postings: make(map[Term]PostingSet),
		stored:   make(map[int]record.Listing),
		docTerms: make(map[int][]Term),
		logger:   slog.Default().With("component", "listing-index"),
	}
}

// Build indexes listings once, assigning ids 0..len(listings)-1 in order.
func (ix *Index) Build(listings []record.Listing) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.built {
		return apperrors.New(apperrors.ErrAlreadyBuilt, "index build", "build must run exactly once")
	}
	for id, listing := range listings {
		ix.add(id, listing)
	}
	ix.docCount = len(listings)
	ix.built = true
	ix.logger.Info("listing index built",
		"listings", ix.docCount,
		"terms", len(ix.postings),
	)
	return nil
}

func (ix *Index) add(id int, listing record.Listing) {
	values := map[Field]string{
		FieldTitle:        listing.Title,
		FieldManufacturer: listing.Manufacturer,
	}
	terms := make([]Term, 0, 16)
	for _, field := range indexedFields {
		seen := make(map[string]struct{})
		for _, token := range analyzer.Analyze(values[field]) {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			term := Term{Field: field, Token: token}
			set, exists := ix.postings[term]
			if !exists {
				set = make(PostingSet)
				ix.postings[term] = set
			}
			set[id] = struct{}{}
			terms = append(terms, term)
		}
	}
	ix.stored[id] = listing
	ix.docTerms[id] = terms
}

// QueryTerms returns, in ascending order, the live ids whose field contains
// every one of tokens. No tokens means no constraint can be satisfied, so
// the result is empty rather than every listing.
func (ix *Index) QueryTerms(field Field, tokens []string) []int {
	if len(tokens) == 0 {
		return []int{}
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	sets := make([]PostingSet, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		set, exists := ix.postings[Term{Field: field, Token: token}]
		if !exists || len(set) == 0 {
			return []int{}
		}
		sets = append(sets, set)
	}
	return intersect(sets)
}

// QueryManufacturerTerms returns ids whose manufacturer field contains all
// tokens.
func (ix *Index) QueryManufacturerTerms(tokens []string) []int {
	return ix.QueryTerms(FieldManufacturer, tokens)
}

// QueryTitlePhrase returns ids whose title contains all tokens of the
// phrase. Only co-occurrence is checked; adjacency and order are not.
func (ix *Index) QueryTitlePhrase(tokens []string) []int {
	return ix.QueryTerms(FieldTitle, tokens)
}

// intersect walks the smallest set and keeps ids present in all others.
func intersect(sets []PostingSet) []int {
	sort.Slice(sets, func(i, j int) bool {
		return len(sets[i]) < len(sets[j])
	})
	result := make([]int, 0, len(sets[0]))
	for id := range sets[0] {
		inAll := true
		for _, other := range sets[1:] {
			if _, ok := other[id]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			result = append(result, id)
		}
	}
	sort.Ints(result)
	return result
}

// Delete removes id from every posting set and from the stored values. It
// reports whether the id was live; deleting twice is a no-op.
func (ix *Index) Delete(id int) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	terms, live := ix.docTerms[id]
	if !live {
		return false
	}
	for _, term := range terms {
		set := ix.postings[term]
		delete(set, id)
		if len(set) == 0 {
			delete(ix.postings, term)
		}
	}
	delete(ix.docTerms, id)
	delete(ix.stored, id)
	return true
}

// Stored returns a copy of the stored values of a live listing.
func (ix *Index) Stored(id int) (record.ListingSnapshot, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	listing, ok := ix.stored[id]
	if !ok {
		return record.ListingSnapshot{}, false
	}
	return listing.Snapshot(), true
}

func (ix *Index) IsLive(id int) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.stored[id]
	return ok
}

// LiveCount returns the number of listings not yet deleted.
func (ix *Index) LiveCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.stored)
}

// DocCount returns the number of listings the index was built with.
func (ix *Index) DocCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docCount
}

// TermCount returns the number of distinct live terms in field.
func (ix *Index) TermCount(field Field) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for term := range ix.postings {
		if term.Field == field {
			n++
		}
	}
	return n
}

func (ix *Index) Built() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.built
}

// Snapshot returns every live term with its ids, sorted by field then token.
func (ix *Index) Snapshot() []TermEntry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	entries := make([]TermEntry, 0, len(ix.postings))
	for term, set := range ix.postings {
		entries = append(entries, TermEntry{
			Term: term,
			IDs:  set.IDs(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Term.Field != entries[j].Term.Field {
			return entries[i].Term.Field < entries[j].Term.Field
		}
		return entries[i].Term.Token < entries[j].Term.Token
	})
	return entries
}
