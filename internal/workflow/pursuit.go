package workflow

import (
	"sort"
	"time"

	"precinct/internal/models"
)

// LinkedCase is the part of a case the pursuit formula looks at.
type LinkedCase struct {
	Status   models.CaseStatus
	Severity models.Severity
}

// DaysPursued is the number of whole days since the pursuit started, or 0 for
// suspects that are not wanted.
func DaysPursued(s *models.Suspect, now time.Time) int {
	if !s.IsWanted || s.PursuitStartDate == nil {
		return 0
	}
	elapsed := now.Sub(*s.PursuitStartDate)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// RankingOf is the pursuit priority of a suspect pursued for days days on
// cases whose maximum severity degree is degree.
func RankingOf(days, degree int) int64 {
	return int64(days) * int64(degree)
}

// RewardOf is the informant reward for a ranking.
func RewardOf(ranking int64, rules Rules) int64 {
	return ranking * rules.RewardUnit
}

// Rank derives the pursuit view of a suspect from its linked cases. Only
// cases that are still OPEN or UNDER_INVESTIGATION count; without any such
// case the suspect has neither pursuit days nor degree.
func Rank(s models.Suspect, cases []LinkedCase, rules Rules, now time.Time) models.PursuitRanking {
	degree := 0
	for _, c := range cases {
		if !c.Status.IsActive() {
			continue
		}
		if d := c.Severity.Degree(); d > degree {
			degree = d
		}
	}

	days := 0
	if degree > 0 {
		days = DaysPursued(&s, now)
	}
	ranking := RankingOf(days, degree)

	return models.PursuitRanking{
		Suspect:     s,
		DaysPursued: days,
		MaxDegree:   degree,
		Ranking:     ranking,
		Reward:      RewardOf(ranking, rules),
		Intensive:   s.IsWanted && days >= rules.IntensivePursuitDays,
	}
}

// IntensivePursuit filters ranked suspects down to those under intensive
// pursuit, highest ranking first. Ties keep suspect id order.
func IntensivePursuit(ranked []models.PursuitRanking) []models.PursuitRanking {
	out := make([]models.PursuitRanking, 0, len(ranked))
	for _, r := range ranked {
		if r.Intensive {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Ranking != out[j].Ranking {
			return out[i].Ranking > out[j].Ranking
		}
		return out[i].Suspect.ID < out[j].Suspect.ID
	})
	return out
}

// MarkWanted puts a suspect under pursuit starting now. A suspect already
// wanted keeps its original pursuit start.
func MarkWanted(s *models.Suspect, now time.Time) {
	s.IsWanted = true
	s.Status = models.SuspectFugitive
	if s.PursuitStartDate == nil {
		s.PursuitStartDate = &now
	}
}

// MarkCaptured ends the pursuit and detains the suspect.
func MarkCaptured(s *models.Suspect, now time.Time) {
	s.IsWanted = false
	s.Status = models.SuspectDetained
	s.DetentionDate = &now
}
