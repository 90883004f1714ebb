package usecase

import "github.com/lshcatalog/viewer/internal/domain"

// ResolveSimilar joins the ranked ids of a similarity response against the
// loaded snapshot. Ids with no loaded product are dropped, so output ranks are
// dense and every result carries a full product. Response order is kept.
func ResolveSimilar(response *domain.SimilarityResponse, snapshot *domain.CatalogSnapshot) []domain.ResolvedResult {
	results := []domain.ResolvedResult{}
	if response == nil {
		return results
	}

	for _, hit := range response.Results {
		product, ok := snapshot.Lookup(hit.ID)
		if !ok {
			continue
		}

		result := domain.ResolvedResult{
			Product: product,
			Rank:    len(results),
		}
		if hit.Score != nil {
			result.Score = *hit.Score
		}
		if hit.IsGroundTruth != nil {
			result.IsGroundTruth = *hit.IsGroundTruth
		}
		results = append(results, result)
	}

	return results
}

// ItemRef is a weak reference by id, resolved against the snapshot when possible
type ItemRef struct {
	ID       string          `json:"id"`
	Resolved bool            `json:"resolved"`
	Product  *domain.Product `json:"product,omitempty"`
}

// ResolveReferences keeps every id in order and marks whether it is loaded
func ResolveReferences(ids []string, snapshot *domain.CatalogSnapshot) []ItemRef {
	refs := make([]ItemRef, 0, len(ids))
	for _, id := range ids {
		ref := ItemRef{ID: id}
		if p, ok := snapshot.Lookup(id); ok {
			ref.Resolved = true
			ref.Product = &p
		}
		refs = append(refs, ref)
	}
	return refs
}
