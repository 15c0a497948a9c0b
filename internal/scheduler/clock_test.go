package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusv/decksched/internal/testutil"
)

func TestCreationAnchor(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"midday anchors to the same morning",
			time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC),
		},
		{
			"before the rollover belongs to yesterday",
			time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 9, 4, 0, 0, 0, time.UTC),
		},
		{
			"exactly at the rollover starts a new day",
			time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want.Unix(), CreationAnchor(tc.now))
		})
	}
}

func TestScheduler_TodayAndCutoff(t *testing.T) {
	store := testutil.NewMemStore()
	sched := newTestScheduler(store, 3)

	crt := CreationAnchor(testBase)
	assert.Equal(t, 3, sched.Today())
	assert.Equal(t, crt+4*86400, sched.DayCutoff(), "the cutoff ends the current day")
}

func TestScheduler_TodayNeverNegative(t *testing.T) {
	store := testutil.NewMemStore()
	// a clock behind the creation time must not produce a negative day
	crt := CreationAnchor(testBase)
	sched := New(crt, store.Cards(), store.Decks(), store.Revlog(),
		WithClock(FixedClock(testBase.AddDate(0, 0, -2))))

	require.NotNil(t, sched)
	assert.Equal(t, 0, sched.Today())
}
