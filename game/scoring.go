package game

// Scoring is the per-player point ledger for one game. It lives only while
// its room is Active and is discarded when the room resets.
type Scoring struct {
	points map[int64]int64
}

func NewScoring(connIDs []int64) *Scoring {
	s := &Scoring{points: make(map[int64]int64, len(connIDs))}
	for _, id := range connIDs {
		s.points[id] = 0
	}
	return s
}

func (s *Scoring) Add(connID int64, n int64) {
	s.points[connID] += n
}

func (s *Scoring) Score(connID int64) int64 {
	return s.points[connID]
}

// Remove drops a player who left mid-game from the ledger.
func (s *Scoring) Remove(connID int64) {
	delete(s.points, connID)
}
