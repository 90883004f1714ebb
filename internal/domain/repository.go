package domain

import "context"

// CatalogClient defines the interface for the remote catalog and similarity service
type CatalogClient interface {
	FetchProducts(ctx context.Context, page, perPage int) (*ProductPage, error)
	FetchProduct(ctx context.Context, id string) (*Product, error)
	FetchSimilar(ctx context.Context, query SimilarityQuery) (*SimilarityResponse, error)
}
