package domain

import "errors"

var (
	// ErrProductNotFound is returned when a requested product does not exist upstream
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidMethod is returned for an unknown similarity method
	ErrInvalidMethod = errors.New("invalid similarity method")

	// ErrCatalogAPIFailure is returned when a call to the catalog service fails
	ErrCatalogAPIFailure = errors.New("catalog API request failed")

	// ErrStaleResponse is returned to the caller of a request superseded by a newer one
	ErrStaleResponse = errors.New("response superseded by a newer request")

	// ErrSessionNotFound is returned when a viewer session is unknown or expired
	ErrSessionNotFound = errors.New("session not found")
)
