package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/septivank/trackmyfish-client/internal/model"
	"github.com/septivank/trackmyfish-client/internal/validator"
)

func TestFishStore_CreateGuppy(t *testing.T) {
	transport := &fakeTransport{
		get: func(string) (string, error) {
			return mustJSON(t, map[string]any{"fish": fishWithIDs(3, 5)}), nil
		},
		post: func(string, any) (string, error) {
			return `{"fish":{"id":7,"genus":"Poecilia","species":"reticulata","commonName":"Guppy",` +
				`"gender":"UNSPECIFIED","count":3,"ecosystemName":"Orinoco","climate":"tropical"}}`, nil
		},
	}
	s := NewFishStore(transport, nil, nil)
	require.NoError(t, s.List(context.Background()))

	fish, err := s.Create(context.Background(), validator.FishForm{
		Genus:      "Poecilia",
		Species:    "reticulata",
		CommonName: "Guppy",
		Gender:     "",
		Count:      "3",
	})
	require.NoError(t, err)

	posted := transport.lastPosted(t)
	assert.Equal(t, "UNSPECIFIED", posted["gender"])
	assert.Equal(t, "Poecilia", posted["genus"])
	assert.EqualValues(t, 3, posted["count"])
	assert.NotContains(t, posted, "id")

	assert.Equal(t, model.ID(7), fish.ID)
	assert.Equal(t, "tropical", fish.Climate)

	snap := s.Snapshot()
	assert.Equal(t, []model.ID{3, 5, 7}, snap.IDs())
	assert.Equal(t, "Guppy", snap.Items[2].CommonName)
	assert.Empty(t, snap.Items[2].DisplayGender())
}

func TestFishStore_InvalidFormIsRetainedWithoutRequest(t *testing.T) {
	transport := &fakeTransport{}
	s := NewFishStore(transport, nil, nil)

	snaps := &snapshotRecorder[model.Fish]{}
	s.Subscribe(snaps.listen)

	_, err := s.Create(context.Background(), validator.FishForm{Genus: "Betta", Gender: "sometimes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, validator.ErrInvalidInput))

	assert.Empty(t, transport.posted)
	assert.Contains(t, s.Snapshot().Error, "gender")
	assert.Len(t, snaps.all(), 1)
}

func TestFishStore_InvalidFormIsRecordedAsFailedCreate(t *testing.T) {
	ops := &opRecorder{}
	s := NewFishStore(&fakeTransport{}, ops, nil)

	_, err := s.Create(context.Background(), validator.FishForm{Genus: "Betta", Count: "many"})
	require.Error(t, err)

	op := ops.last()
	assert.Equal(t, OpCreate, op.Kind)
	assert.Equal(t, FishResource.Name, op.Resource)
	assert.False(t, op.Succeeded)
	assert.Equal(t, s.Snapshot().Error, op.Message)
	assert.Contains(t, op.Message, "count")
}
