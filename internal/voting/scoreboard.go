package voting

import (
	"context"
	"fmt"
	"sort"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
)

// Rank is one scoreboard row. Teams with equal points and equal time played
// share a rank.
type Rank struct {
	Rank int
	rally.TeamScore
}

func less(a, b rally.TeamScore) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	switch {
	case a.TimePlayed == nil && b.TimePlayed == nil:
	case a.TimePlayed == nil:
		return false
	case b.TimePlayed == nil:
		return true
	case !a.TimePlayed.Equal(*b.TimePlayed):
		return a.TimePlayed.Before(*b.TimePlayed)
	}
	return a.TeamName < b.TeamName
}

func tied(a, b rally.TeamScore) bool {
	if a.Points != b.Points {
		return false
	}
	if a.TimePlayed == nil || b.TimePlayed == nil {
		return a.TimePlayed == nil && b.TimePlayed == nil
	}
	return a.TimePlayed.Equal(*b.TimePlayed)
}

// Rankings orders scores by points, then by the earlier finish.
func Rankings(scores []rally.TeamScore) []Rank {
	sorted := append([]rally.TeamScore(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	ranks := make([]Rank, len(sorted))
	for i, sc := range sorted {
		rank := 1
		if i > 0 {
			rank = ranks[i-1].Rank
			if !tied(sorted[i-1], sc) {
				rank++
			}
		}
		ranks[i] = Rank{Rank: rank, TeamScore: sc}
	}
	return ranks
}

func (s *Service) Scoreboard(ctx context.Context, eventID int64) ([]Rank, error) {
	rctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	scores, err := s.config.Remote.GetTotalPointsPerEvent(rctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get total points: %w", err)
	}
	return Rankings(scores), nil
}
