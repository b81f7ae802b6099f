package schedule

import (
	"math"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

const DefaultQuorumFraction = 2.0 / 3.0

type AvailabilitySummary struct {
	Available   int
	Unavailable int
	Tentative   int
	NoResponse  int
	QuorumMet   bool
}

// Summarize folds the current responses for an occurrence into a summary.
// The computation is a pure function of its inputs, so re-running it after
// every upsert cannot drift. Responses from users outside the invited set
// (members who since left the band) are excluded from the counts; the rows
// themselves stay in storage for audit.
func Summarize(invited []uuid.UUID, responses []*model.AvailabilityResponse, quorumFraction float64) AvailabilitySummary {
	if quorumFraction <= 0 {
		quorumFraction = DefaultQuorumFraction
	}

	invitedSet := make(map[uuid.UUID]struct{}, len(invited))
	for _, id := range invited {
		invitedSet[id] = struct{}{}
	}

	// Last response per user wins.
	latest := make(map[uuid.UUID]*model.AvailabilityResponse, len(responses))
	for _, r := range responses {
		if _, ok := invitedSet[r.UserID]; !ok {
			continue
		}
		if prev, ok := latest[r.UserID]; !ok || r.UpdatedAt.After(prev.UpdatedAt) {
			latest[r.UserID] = r
		}
	}

	var s AvailabilitySummary
	for _, r := range latest {
		switch r.Status {
		case model.AvailabilityStatusAvailable:
			s.Available++
		case model.AvailabilityStatusUnavailable:
			s.Unavailable++
		case model.AvailabilityStatusTentative:
			s.Tentative++
		}
	}

	s.NoResponse = len(invited) - len(latest)
	s.QuorumMet = s.Available >= int(math.Ceil(float64(len(invited))*quorumFraction))

	return s
}
