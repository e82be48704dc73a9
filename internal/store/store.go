// Package store holds the observable collection stores that keep an
// in-memory copy of a REST resource in sync with the server.
//
// A store only mutates its state after a request succeeded, and every
// mutation is published to subscribers as a single immutable Snapshot.
package store

import (
	"context"

	"github.com/septivank/trackmyfish-client/internal/model"
)

// DefaultErrorMessage is retained when a mutation fails without a
// server-provided message.
const DefaultErrorMessage = "Something went wrong, please try again."

// Transport is the subset of the REST client a store needs
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string) error
}

// Resource describes the REST resource a collection mirrors
type Resource struct {
	// Name identifies the resource in logs, metrics and events
	Name string
	// Path is the collection path relative to the API root
	Path string
	// ListKey is the envelope key of the list response
	ListKey string
	// ItemKey is the envelope key of the create response
	ItemKey string
}

// Snapshot is an immutable copy of a store's state after one mutation
type Snapshot[T model.Entity] struct {
	Resource string `json:"resource"`
	Items    []T    `json:"items"`
	// Error is the last failed mutation's message, empty when none is retained
	Error    string `json:"error,omitempty"`
	Revision uint64 `json:"revision"`
}

// HasError reports whether an error message is retained
func (s Snapshot[T]) HasError() bool {
	return s.Error != ""
}

// IDs returns the identifiers of the snapshot's items in order
func (s Snapshot[T]) IDs() []model.ID {
	ids := make([]model.ID, len(s.Items))
	for i, item := range s.Items {
		ids[i] = item.EntityID()
	}
	return ids
}

// Listener observes snapshots. Listeners run synchronously after each
// mutation and must not call mutating store methods themselves.
type Listener[T model.Entity] func(Snapshot[T])
