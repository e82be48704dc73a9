package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/model"
	"github.com/septivank/trackmyfish-client/internal/validator"
)

// TankStatisticResource is the /tank/statistics collection
var TankStatisticResource = Resource{
	Name:    "tank_statistics",
	Path:    "/tank/statistics",
	ListKey: "tankStatistics",
	ItemKey: "tankStatistic",
}

// TankStatisticStore mirrors the water-quality measurements
type TankStatisticStore struct {
	*Collection[model.TankStatistic]
}

// NewTankStatisticStore creates an empty tank statistic store
func NewTankStatisticStore(transport Transport, recorder Recorder, logger *zap.Logger) *TankStatisticStore {
	return &TankStatisticStore{
		Collection: NewCollection[model.TankStatistic](TankStatisticResource, transport, recorder, logger),
	}
}

// Create validates form and adds the statistic. Blank readings are sent
// as null.
func (s *TankStatisticStore) Create(ctx context.Context, form validator.TankStatisticForm) (model.TankStatistic, error) {
	payload, err := validator.TankStatistic(form)
	if err != nil {
		s.rejectCreate(ctx, err)
		return model.TankStatistic{}, fmt.Errorf("creating tank statistic: %w", err)
	}
	return s.Collection.Create(ctx, payload)
}
