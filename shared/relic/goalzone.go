package relic

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// GoalZone is a trigger box owned by a team. Carrying the relic into another
// team's zone scores.
type GoalZone struct {
	Name     string
	Team     int
	Min, Max mgl64.Vec3
}

// IsOpposingTeam reports whether team may score in this zone.
func (z GoalZone) IsOpposingTeam(team int) bool {
	return team != z.Team && team != NoTeam && z.Team != NoTeam
}

// Overlaps reports whether a character standing at p with half height h
// touches the zone.
func (z GoalZone) Overlaps(p mgl64.Vec3, h float64) bool {
	return p[0] >= z.Min[0] && p[0] <= z.Max[0] &&
		p[1] >= z.Min[1] && p[1] <= z.Max[1] &&
		p[2]+h >= z.Min[2] && p[2]-h <= z.Max[2]
}

// Center is the middle of the zone.
func (z GoalZone) Center() mgl64.Vec3 {
	return z.Min.Add(z.Max).Mul(0.5)
}

// CheckGoals tries to score when the relic's carrier stands in an opposing
// team's zone. It returns the zone scored in.
func CheckGoals(r *Relic, zones []GoalZone) (GoalZone, bool) {
	if r.State() != Carried {
		return GoalZone{}, false
	}
	c, ok := r.Carrier()
	if !ok {
		return GoalZone{}, false
	}
	for _, z := range zones {
		if !z.IsOpposingTeam(c.Team()) || !z.Overlaps(c.Position(), c.HalfHeight()) {
			continue
		}
		if r.TryScore(z.Team) {
			return z, true
		}
	}
	return GoalZone{}, false
}

// Scoreboard keeps team scores.
type Scoreboard struct {
	PointsPerScore int
	scores         map[int]int
}

func NewScoreboard(pointsPerScore int) *Scoreboard {
	return &Scoreboard{PointsPerScore: pointsPerScore, scores: map[int]int{}}
}

// Credit adds a score for team and returns its new total.
func (s *Scoreboard) Credit(team int) int {
	s.scores[team] += s.PointsPerScore
	return s.scores[team]
}

func (s *Scoreboard) Score(team int) int { return s.scores[team] }

// Teams returns the teams with a score, ascending.
func (s *Scoreboard) Teams() []int {
	teams := make([]int, 0, len(s.scores))
	for t := range s.scores {
		teams = append(teams, t)
	}
	sort.Ints(teams)
	return teams
}

// Set overwrites a team's score, used when restoring from storage or
// replication.
func (s *Scoreboard) Set(team, score int) { s.scores[team] = score }
