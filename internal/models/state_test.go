package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusv/decksched/internal/models"
)

func TestStateOf_ValidPairs(t *testing.T) {
	cases := []struct {
		name string
		card models.Card
		want models.CardState
	}{
		{
			"new card",
			models.Card{Type: models.CardTypeNew, Queue: models.QueueNew},
			models.CardState{Kind: models.StateNew},
		},
		{
			"sub-day learning",
			models.Card{Type: models.CardTypeLearning, Queue: models.QueueLearning},
			models.CardState{Kind: models.StateLearning, Subday: true},
		},
		{
			"interday learning",
			models.Card{Type: models.CardTypeLearning, Queue: models.QueueDayLearning},
			models.CardState{Kind: models.StateLearning},
		},
		{
			"relearning a lapsed review",
			models.Card{Type: models.CardTypeReview, Queue: models.QueueLearning},
			models.CardState{Kind: models.StateLearning, Subday: true, Relearning: true},
		},
		{
			"review",
			models.Card{Type: models.CardTypeReview, Queue: models.QueueReview},
			models.CardState{Kind: models.StateReview},
		},
		{
			"suspended hides the type",
			models.Card{Type: models.CardTypeReview, Queue: models.QueueSuspended},
			models.CardState{Kind: models.StateSuspended},
		},
		{
			"buried by user",
			models.Card{Type: models.CardTypeNew, Queue: models.QueueUserBuried},
			models.CardState{Kind: models.StateBuriedByUser},
		},
		{
			"buried by scheduler",
			models.Card{Type: models.CardTypeLearning, Queue: models.QueueSchedBuried},
			models.CardState{Kind: models.StateBuriedByScheduler},
		},
		{
			"review card pulled early into a filtered new queue",
			models.Card{Type: models.CardTypeReview, Queue: models.QueueNew, OriginalDeckID: 2},
			models.CardState{Kind: models.StateNew},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := models.StateOf(&tc.card)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStateOf_RejectsCorruptPairs(t *testing.T) {
	cases := []struct {
		name string
		card models.Card
	}{
		{"review queue with a new type", models.Card{Type: models.CardTypeNew, Queue: models.QueueReview}},
		{"learning queue with a new type", models.Card{Type: models.CardTypeNew, Queue: models.QueueLearning}},
		{"new queue with a review type outside a filtered deck", models.Card{Type: models.CardTypeReview, Queue: models.QueueNew}},
		{"unknown queue", models.Card{Queue: models.CardQueue(9)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := models.StateOf(&tc.card)
			assert.Error(t, err)
		})
	}
}

func TestCardState_ApplyRoundTrips(t *testing.T) {
	states := []models.CardState{
		{Kind: models.StateNew},
		{Kind: models.StateLearning, Subday: true},
		{Kind: models.StateLearning},
		{Kind: models.StateLearning, Subday: true, Relearning: true},
		{Kind: models.StateReview},
	}
	for _, state := range states {
		var card models.Card
		state.Apply(&card)
		got, err := models.StateOf(&card)
		require.NoError(t, err, "state %v", state)
		assert.Equal(t, state, got)
	}
}

func TestCardState_SuspensionPreservesType(t *testing.T) {
	card := models.Card{Type: models.CardTypeReview, Queue: models.QueueReview}
	models.CardState{Kind: models.StateSuspended}.Apply(&card)
	assert.Equal(t, models.QueueSuspended, card.Queue)
	assert.Equal(t, models.CardTypeReview, card.Type, "the type must survive for restore")
}
