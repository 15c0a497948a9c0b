package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marcusv/decksched/internal/models"
)

func TestDeck_PathHelpers(t *testing.T) {
	deck := &models.Deck{Name: "Lang::Spanish::Verbs"}

	assert.Equal(t, []string{"Lang", "Spanish", "Verbs"}, deck.PathSegments())
	assert.Equal(t, "Lang::Spanish", deck.ParentName())
	assert.Equal(t, "Verbs", deck.BaseName())

	top := &models.Deck{Name: "Lang"}
	assert.Equal(t, "", top.ParentName())
	assert.Equal(t, "Lang", top.BaseName())
}

func TestDeck_IsParentOf(t *testing.T) {
	lang := &models.Deck{Name: "Lang"}
	spanish := &models.Deck{Name: "Lang::Spanish"}
	verbs := &models.Deck{Name: "Lang::Spanish::Verbs"}
	langish := &models.Deck{Name: "Language"}

	assert.True(t, lang.IsParentOf(spanish))
	assert.True(t, lang.IsParentOf(verbs), "ancestry is transitive")
	assert.False(t, spanish.IsParentOf(lang))
	assert.False(t, lang.IsParentOf(lang), "a deck is not its own parent")
	assert.False(t, lang.IsParentOf(langish), "name prefixes without the separator do not count")
}

func TestDayCount_CountFor(t *testing.T) {
	dc := models.DayCount{Day: 12, Count: 7}
	assert.Equal(t, 7, dc.CountFor(12))
	assert.Equal(t, 0, dc.CountFor(13), "a stale counter reads as zero")
}

func TestCard_FilteredHelpers(t *testing.T) {
	home := &models.Card{Due: 15}
	assert.False(t, home.InFiltered())
	assert.Equal(t, int64(15), home.HomeDue())

	loaned := &models.Card{Due: -99999, OriginalDue: 15, OriginalDeckID: 3}
	assert.True(t, loaned.InFiltered())
	assert.Equal(t, int64(15), loaned.HomeDue(), "the home due ignores the filtered position")
}

func TestGrade_Valid(t *testing.T) {
	assert.True(t, models.GradeAgain.Valid())
	assert.True(t, models.GradeEasy.Valid())
	assert.False(t, models.Grade(0).Valid())
	assert.False(t, models.Grade(5).Valid())
}
