package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/septivank/trackmyfish-client/internal/model"
)

func TestFish_ValidData(t *testing.T) {
	payload, err := Fish(FishForm{
		Genus:        " Poecilia ",
		Species:      "reticulata",
		CommonName:   "Guppy",
		Gender:       "",
		PurchaseDate: "2021-03-14",
		Count:        "5",
	})
	require.NoError(t, err)

	assert.Equal(t, "Poecilia", payload.Genus)
	assert.Equal(t, model.GenderUnspecified, payload.Gender)
	assert.Equal(t, "2021-03-14", payload.PurchaseDate)
	assert.Equal(t, int32(5), payload.Count)
}

func TestFish_GenderUppercased(t *testing.T) {
	payload, err := Fish(FishForm{Gender: "male"})
	require.NoError(t, err)

	assert.Equal(t, model.GenderMale, payload.Gender)
}

func TestFish_BlankCountIsZero(t *testing.T) {
	payload, err := Fish(FishForm{Genus: "Betta"})
	require.NoError(t, err)

	assert.Equal(t, int32(0), payload.Count)
}

func TestFish_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		form FishForm
		want string
	}{
		{"negative count", FishForm{Count: "-1"}, "count"},
		{"fractional count", FishForm{Count: "1.5"}, "count"},
		{"unknown gender", FishForm{Gender: "both"}, "gender"},
		{"bad date", FishForm{PurchaseDate: "yesterday"}, "purchase date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fish(tt.form)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTankStatistic_BlankIsNull(t *testing.T) {
	payload, err := TankStatistic(TankStatisticForm{TestDate: "2021-03-14", PH: ""})
	require.NoError(t, err)
	assert.Nil(t, payload.PH)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ph":null`)
}

func TestTankStatistic_ZeroIsMeasured(t *testing.T) {
	payload, err := TankStatistic(TankStatisticForm{PH: "0", Ammonia: "0.25"})
	require.NoError(t, err)

	require.NotNil(t, payload.PH)
	assert.InDelta(t, 0.0, *payload.PH, 0.0001)
	require.NotNil(t, payload.Ammonia)
	assert.InDelta(t, 0.25, *payload.Ammonia, 0.0001)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ph":0`)
	assert.NotContains(t, string(data), `"ph":"0"`)
}

func TestTankStatistic_InvalidReading(t *testing.T) {
	_, err := TankStatistic(TankStatisticForm{Nitrate: "lots"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "nitrate")

	_, err = TankStatistic(TankStatisticForm{GH: "-3"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "gh")
}

func TestParseReading_RejectsNaN(t *testing.T) {
	_, err := ParseReading("NaN")
	assert.Error(t, err)
}
