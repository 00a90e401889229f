package workflow

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"precinct/internal/models"
)

func wantedSince(id uint, days int) models.Suspect {
	start := testNow.Add(-time.Duration(days) * 24 * time.Hour)
	return models.Suspect{ID: id, IsWanted: true, PursuitStartDate: &start}
}

func TestRankCriticalCase(t *testing.T) {
	s := wantedSince(1, 35)
	r := Rank(s, []LinkedCase{{Status: models.CaseUnderInvestigation, Severity: models.SeverityCritical}}, DefaultRules(), testNow)

	assert.Equal(t, 35, r.DaysPursued)
	assert.Equal(t, 4, r.MaxDegree)
	assert.Equal(t, int64(140), r.Ranking)
	assert.Equal(t, int64(2_800_000_000), r.Reward)
	assert.True(t, r.Intensive)
}

func TestRankIgnoresInactiveCases(t *testing.T) {
	s := wantedSince(1, 40)
	cases := []LinkedCase{
		{Status: models.CaseClosed, Severity: models.SeverityCritical},
		{Status: models.CaseOpen, Severity: models.SeverityLevel2},
	}
	r := Rank(s, cases, DefaultRules(), testNow)
	assert.Equal(t, 2, r.MaxDegree)
	assert.Equal(t, int64(80), r.Ranking)

	r = Rank(s, cases[:1], DefaultRules(), testNow)
	assert.Zero(t, r.DaysPursued)
	assert.Zero(t, r.Ranking)
	assert.False(t, r.Intensive)
}

func TestRankNotWanted(t *testing.T) {
	s := wantedSince(1, 50)
	s.IsWanted = false
	r := Rank(s, []LinkedCase{{Status: models.CaseOpen, Severity: models.SeverityCritical}}, DefaultRules(), testNow)
	assert.Zero(t, r.Ranking)
	assert.False(t, r.Intensive)
}

func TestIntensivePursuitOrdering(t *testing.T) {
	rules := DefaultRules()
	critical := []LinkedCase{{Status: models.CaseOpen, Severity: models.SeverityCritical}}
	low := []LinkedCase{{Status: models.CaseOpen, Severity: models.SeverityLevel3}}

	ranked := []models.PursuitRanking{
		Rank(wantedSince(1, 31), low, rules, testNow),
		Rank(wantedSince(2, 29), critical, rules, testNow),
		Rank(wantedSince(3, 45), critical, rules, testNow),
		Rank(wantedSince(4, 30), critical, rules, testNow),
	}

	out := IntensivePursuit(ranked)
	ids := make([]uint, len(out))
	for i, r := range out {
		ids[i] = r.Suspect.ID
	}
	assert.Equal(t, []uint{3, 4, 1}, ids)
}

func TestMarkWantedKeepsStart(t *testing.T) {
	s := &models.Suspect{Status: models.SuspectUnderInvestigation}
	MarkWanted(s, testNow)
	assert.Equal(t, models.SuspectFugitive, s.Status)
	first := *s.PursuitStartDate

	MarkWanted(s, testNow.Add(48*time.Hour))
	assert.Equal(t, first, *s.PursuitStartDate)

	MarkCaptured(s, testNow)
	assert.False(t, s.IsWanted)
	assert.Equal(t, models.SuspectDetained, s.Status)
}

func TestRankingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	rules := DefaultRules()

	properties.Property("ranking never decreases when days grow", prop.ForAll(
		func(days, extra, degree int) bool {
			return RankingOf(days+extra, degree) >= RankingOf(days, degree)
		},
		gen.IntRange(0, 3650),
		gen.IntRange(0, 3650),
		gen.IntRange(1, 4),
	))

	properties.Property("ranking never decreases when degree grows", prop.ForAll(
		func(days, degree, extra int) bool {
			return RankingOf(days, degree+extra) >= RankingOf(days, degree)
		},
		gen.IntRange(0, 3650),
		gen.IntRange(1, 4),
		gen.IntRange(0, 3),
	))

	properties.Property("reward is ranking times the unit", prop.ForAll(
		func(days, degree int) bool {
			s := wantedSince(1, days)
			sev := []models.Severity{models.SeverityLevel3, models.SeverityLevel2, models.SeverityLevel1, models.SeverityCritical}[degree-1]
			r := Rank(s, []LinkedCase{{Status: models.CaseOpen, Severity: sev}}, rules, testNow)
			return r.Reward == r.Ranking*20_000_000 && r.Ranking == int64(days*degree)
		},
		gen.IntRange(0, 3650),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}
