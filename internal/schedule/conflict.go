package schedule

import (
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

type ConflictKind int

const (
	ConflictKindVenue ConflictKind = iota
	ConflictKindBand
	ConflictKindMember
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictKindVenue:
		return "venue"
	case ConflictKindBand:
		return "band"
	case ConflictKindMember:
		return "member"
	default:
		return "unknown"
	}
}

// Conflict reports one collision between a candidate occurrence and an
// already-confirmed one. A single candidate may carry several conflicts.
type Conflict struct {
	Kind             ConflictKind
	CandidateStart   time.Time
	WithOccurrenceID uuid.UUID
}

// Candidate is a not-yet-persisted occurrence under validation. MemberIDs is
// the implicitly-invited set, i.e. the band's members.
type Candidate struct {
	BandID    uuid.UUID
	VenueID   *uuid.UUID
	Interval  Interval
	MemberIDs []uuid.UUID
}

// Neighbor pairs a persisted occurrence with its band's member set, which
// member-conflict detection needs for cross-band double bookings.
type Neighbor struct {
	Occurrence *model.RehearsalOccurrence
	MemberIDs  []uuid.UUID
}

// DetectConflicts checks a candidate against its relevant neighbors. Only
// Confirmed occurrences count; Proposed, Cancelled and Completed ones never
// conflict. Conflicts are reported, never dropped; disposition is the
// orchestrator's call.
func DetectConflicts(c Candidate, neighbors []Neighbor) []Conflict {
	members := make(map[uuid.UUID]struct{}, len(c.MemberIDs))
	for _, id := range c.MemberIDs {
		members[id] = struct{}{}
	}

	var res []Conflict
	for _, n := range neighbors {
		occ := n.Occurrence
		if occ.Status != model.OccurrenceStatusConfirmed {
			continue
		}

		other := Interval{Start: occ.StartTime, End: occ.EndTime}
		if !c.Interval.Overlaps(other) {
			continue
		}

		if c.VenueID != nil && occ.VenueID != nil && *c.VenueID == *occ.VenueID {
			res = append(res, Conflict{
				Kind:             ConflictKindVenue,
				CandidateStart:   c.Interval.Start,
				WithOccurrenceID: occ.ID,
			})
		}

		if occ.BandID == c.BandID {
			res = append(res, Conflict{
				Kind:             ConflictKindBand,
				CandidateStart:   c.Interval.Start,
				WithOccurrenceID: occ.ID,
			})
			continue
		}

		for _, id := range n.MemberIDs {
			if _, ok := members[id]; ok {
				res = append(res, Conflict{
					Kind:             ConflictKindMember,
					CandidateStart:   c.Interval.Start,
					WithOccurrenceID: occ.ID,
				})
				break
			}
		}
	}

	return res
}
