package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/model"
	"github.com/septivank/trackmyfish-client/internal/validator"
)

// FishResource is the /fish collection
var FishResource = Resource{
	Name:    "fish",
	Path:    "/fish",
	ListKey: "fish",
	ItemKey: "fish",
}

// FishStore mirrors the fish inventory
type FishStore struct {
	*Collection[model.Fish]
}

// NewFishStore creates an empty fish store
func NewFishStore(transport Transport, recorder Recorder, logger *zap.Logger) *FishStore {
	return &FishStore{Collection: NewCollection[model.Fish](FishResource, transport, recorder, logger)}
}

// Create validates form and adds the fish. Invalid input is retained as
// the store's error without contacting the server.
func (s *FishStore) Create(ctx context.Context, form validator.FishForm) (model.Fish, error) {
	payload, err := validator.Fish(form)
	if err != nil {
		s.rejectCreate(ctx, err)
		return model.Fish{}, fmt.Errorf("creating fish: %w", err)
	}
	return s.Collection.Create(ctx, payload)
}
