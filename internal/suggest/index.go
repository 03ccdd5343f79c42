// Package suggest provides typo-tolerant place name lookup over an
// in-memory Bleve index built from the dataset's city names.
package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/meridianlabs/yubin/internal/models"
)

// defaultFuzziness is the per-term edit distance Bleve accepts when
// matching a possibly misspelled fragment.
const defaultFuzziness = 2

type placeDoc struct {
	Place string `json:"place"`
	State string `json:"state"`
	Code  string `json:"code"`
}

// Index holds distinct (city, state) pairs from the dataset. Build it
// once; queries are safe for concurrent use.
type Index struct {
	index bleve.Index
	size  int
}

// NewIndex builds an in-memory index over the distinct place names in
// records. Records without a city are skipped.
func NewIndex(records []*models.PostalRecord) (*Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so "Seattle"
	// and "seattle" index to the same terms.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("place", textFieldMapping)
	docMapping.AddFieldMappingsAt("state", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("code", bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("place", docMapping)
	im.DefaultType = "place"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggest index: %w", err)
	}

	seen := make(map[string]struct{})
	size := 0
	for _, rec := range records {
		if rec.City == "" {
			continue
		}
		key := rec.City + "|" + rec.State
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		// The first code seen for a place becomes its representative code.
		doc := placeDoc{Place: rec.City, State: rec.State, Code: rec.Code}
		if err := index.Index(key, doc); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index place %q: %w", rec.City, err)
		}
		size++
	}

	return &Index{index: index, size: size}, nil
}

// Size returns the number of distinct places indexed.
func (idx *Index) Size() int {
	return idx.size
}

// Close releases the index.
func (idx *Index) Close() error {
	return idx.index.Close()
}

// Suggest returns up to limit places matching term, exact matches first,
// then fuzzy matches re-ranked by edit distance to the query.
func (idx *Index) Suggest(term string, limit int) ([]*models.Suggestion, error) {
	req := bleve.NewSearchRequest(buildQuery(term))
	// Over-fetch so the edit distance re-rank has candidates to discard.
	req.Size = limit * 3
	if req.Size < 30 {
		req.Size = 30
	}
	req.Fields = []string{"place", "state", "code"}

	results, err := idx.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("suggest search failed: %w", err)
	}

	normalized := strings.ToLower(strings.TrimSpace(term))
	suggestions := make([]*models.Suggestion, 0, len(results.Hits))
	for _, hit := range results.Hits {
		place, _ := hit.Fields["place"].(string)
		state, _ := hit.Fields["state"].(string)
		code, _ := hit.Fields["code"].(string)
		if place == "" {
			continue
		}
		suggestions = append(suggestions, &models.Suggestion{
			PlaceName:  place,
			AdminCode1: state,
			PostalCode: code,
			Score:      hit.Score,
		})
	}

	// Bleve's fuzzy scores rank by term statistics, not typo closeness.
	// Re-rank by Damerau-Levenshtein distance so the closest spelling wins.
	sort.SliceStable(suggestions, func(i, j int) bool {
		di := DamerauLevenshteinDistance(normalized, strings.ToLower(suggestions[i].PlaceName))
		dj := DamerauLevenshteinDistance(normalized, strings.ToLower(suggestions[j].PlaceName))
		if di != dj {
			return di < dj
		}
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].PlaceName < suggestions[j].PlaceName
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// buildQuery combines a match query with per-term fuzzy queries so both
// exact and misspelled fragments surface candidates.
func buildQuery(term string) blevequery.Query {
	queries := []blevequery.Query{}

	mq := bleve.NewMatchQuery(term)
	mq.SetField("place")
	queries = append(queries, mq)

	for _, word := range strings.Fields(strings.ToLower(term)) {
		fq := bleve.NewFuzzyQuery(word)
		fq.SetFuzziness(defaultFuzziness)
		fq.SetField("place")
		queries = append(queries, fq)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
