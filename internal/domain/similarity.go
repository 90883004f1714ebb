package domain

import (
	"fmt"
	"strings"
)

// Method selects which product text the similarity service compares
type Method string

const (
	MethodTitle            Method = "pst"  // similar title
	MethodDescription      Method = "psd"  // similar description
	MethodTitleDescription Method = "pstd" // title + description hybrid
)

// Methods lists the supported methods in display order
var Methods = []Method{MethodTitle, MethodDescription, MethodTitleDescription}

// ParseMethod accepts the wire value or the long name, case-insensitively
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pst", "title":
		return MethodTitle, nil
	case "psd", "description":
		return MethodDescription, nil
	case "pstd", "title+description", "title_description":
		return MethodTitleDescription, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// Label returns a human-readable name for the method
func (m Method) Label() string {
	switch m {
	case MethodTitle:
		return "Products with similar title"
	case MethodDescription:
		return "Products with similar description"
	case MethodTitleDescription:
		return "Title + Description"
	}
	return string(m)
}

// SimilarityQuery asks the similarity service for the k nearest products to QueryID
type SimilarityQuery struct {
	QueryID string `json:"queryId"`
	Method  Method `json:"method"`
	K       int    `json:"k"`
}

// Validate checks the query before it is sent upstream
func (q SimilarityQuery) Validate() error {
	if q.QueryID == "" {
		return fmt.Errorf("%w: query id is required", ErrInvalidRequest)
	}
	if _, err := ParseMethod(string(q.Method)); err != nil {
		return err
	}
	if q.K < 1 {
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidRequest, q.K)
	}
	return nil
}

// SimilarityHit is one ranked identifier returned by the similarity service.
// Score and IsGroundTruth are only present when the service supplies them.
type SimilarityHit struct {
	ID            string   `json:"id"`
	Score         *float64 `json:"score,omitempty"`
	IsGroundTruth *bool    `json:"isGroundTruth,omitempty"`
}

// SimilarityMetrics holds the evaluation metrics reported with a response
type SimilarityMetrics struct {
	PrecisionAtK float64 `json:"precisionAtK"`
}

// SimilarityResponse is the ranked result of a similarity query, best match first.
// Duplicate ids are preserved as returned.
type SimilarityResponse struct {
	Results []SimilarityHit    `json:"results"`
	Metrics *SimilarityMetrics `json:"metrics,omitempty"`
}

// ResultIDs returns the ranked identifiers
func (r *SimilarityResponse) ResultIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, len(r.Results))
	for i, hit := range r.Results {
		ids[i] = hit.ID
	}
	return ids
}

// ResolvedResult is a similarity hit joined to a loaded product
type ResolvedResult struct {
	Product       Product `json:"product"`
	Score         float64 `json:"score"`
	Rank          int     `json:"rank"`
	IsGroundTruth bool    `json:"isGroundTruth"`
}
