package validator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/septivank/trackmyfish-client/internal/model"
	"github.com/septivank/trackmyfish-client/tools/timeparser"
)

// ErrInvalidInput is wrapped by every validation failure
var ErrInvalidInput = errors.New("invalid input")

// FishForm holds the raw values a user typed into the add-fish form
type FishForm struct {
	Genus        string
	Species      string
	CommonName   string
	Name         string
	Color        string
	Gender       string
	PurchaseDate string
	Count        string
}

// TankStatisticForm holds the raw values of the add-statistic form.
// Blank readings were not measured.
type TankStatisticForm struct {
	TestDate  string
	Ammonia   string
	PH        string
	Nitrate   string
	Nitrite   string
	GH        string
	KH        string
	Phosphate string
}

// Fish converts form input into a creation payload
func Fish(form FishForm) (model.NewFish, error) {
	gender, err := model.ParseGender(form.Gender)
	if err != nil {
		return model.NewFish{}, invalid("gender", err)
	}

	purchaseDate, err := timeparser.NormalizeDate(form.PurchaseDate)
	if err != nil {
		return model.NewFish{}, invalid("purchase date", err)
	}

	count, err := parseCount(form.Count)
	if err != nil {
		return model.NewFish{}, invalid("count", err)
	}

	return model.NewFish{
		Genus:        strings.TrimSpace(form.Genus),
		Species:      strings.TrimSpace(form.Species),
		CommonName:   strings.TrimSpace(form.CommonName),
		Name:         strings.TrimSpace(form.Name),
		Color:        strings.TrimSpace(form.Color),
		Gender:       gender,
		PurchaseDate: purchaseDate,
		Count:        count,
	}, nil
}

// TankStatistic converts form input into a creation payload
func TankStatistic(form TankStatisticForm) (model.NewTankStatistic, error) {
	testDate, err := timeparser.NormalizeDate(form.TestDate)
	if err != nil {
		return model.NewTankStatistic{}, invalid("test date", err)
	}

	stat := model.NewTankStatistic{TestDate: testDate}

	fields := []struct {
		name string
		raw  string
		dst  **float64
	}{
		{model.ReadingAmmonia, form.Ammonia, &stat.Ammonia},
		{model.ReadingPH, form.PH, &stat.PH},
		{model.ReadingNitrate, form.Nitrate, &stat.Nitrate},
		{model.ReadingNitrite, form.Nitrite, &stat.Nitrite},
		{model.ReadingGH, form.GH, &stat.GH},
		{model.ReadingKH, form.KH, &stat.KH},
		{model.ReadingPhosphate, form.Phosphate, &stat.Phosphate},
	}
	for _, f := range fields {
		v, err := ParseReading(f.raw)
		if err != nil {
			return model.NewTankStatistic{}, invalid(f.name, err)
		}
		*f.dst = v
	}

	return stat, nil
}

// ParseReading converts a blank string to nil and anything else to a
// measured value, so "0" stays distinguishable from "not measured".
func ParseReading(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("not a finite number: %q", raw)
	}
	if value < 0 {
		return nil, fmt.Errorf("negative value %v", value)
	}

	return &value, nil
}

func parseCount(raw string) (int32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not a whole number: %q", raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative count %d", value)
	}

	return int32(value), nil
}

func invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidInput, field, err)
}
