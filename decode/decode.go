// Package decode defines the contract between the viewer core and the
// external page-decode service. The decoder itself, and any filter-script
// execution it performs, live outside this module; the core only depends on
// the request/response shapes declared here.
package decode

import (
	"context"
)

// PageResult is one page of decoded entities as delivered by the decode
// boundary. Entities are opaque structured values (nested mappings,
// sequences, scalars, binary leaves) that have not yet been externalized.
type PageResult struct {
	// PageNumber is the 1-based logical page this result covers.
	PageNumber int `json:"pageNumber"`

	// Data holds the decoded entities for this page, in source order.
	Data []any `json:"data"`

	// TotalEntities is the number of top-level entities in the source,
	// when the decoder knows it; 0 otherwise.
	TotalEntities int `json:"totalEntities"`

	// TotalDecodedEntities counts entities decoded so far, including
	// ones removed by the filter script.
	TotalDecodedEntities int `json:"totalDecodedEntities"`

	// HasNextPage reports whether the source continues past this page.
	HasNextPage bool `json:"hasNextPage"`

	// IsPageComplete is false when filtering produced fewer than pageSize
	// entities for this page; the caller must immediately request the
	// next page to keep the window filled.
	IsPageComplete bool `json:"isPageComplete"`
}

// Service is the decode boundary. Implementations include the NATS
// transport in package remote and the scripted fake in package testutil.
type Service interface {
	// InitRead starts a fresh read of the source with the given page size
	// and filter script, returning the first page.
	InitRead(ctx context.Context, pageSize int, filterScript string) (*PageResult, error)

	// LoadPage fetches one page by number.
	LoadPage(ctx context.Context, pageNumber int) (*PageResult, error)
}
