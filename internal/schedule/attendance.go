package schedule

import (
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

type DiscrepancyKind int

const (
	DiscrepancySaidAvailableButAbsent DiscrepancyKind = iota
	DiscrepancySaidUnavailableButAttended
	DiscrepancySilentNoShow
)

func (k DiscrepancyKind) String() string {
	switch k {
	case DiscrepancySaidAvailableButAbsent:
		return "said_available_but_absent"
	case DiscrepancySaidUnavailableButAttended:
		return "said_unavailable_but_attended"
	case DiscrepancySilentNoShow:
		return "silent_no_show"
	default:
		return "unknown"
	}
}

type Discrepancy struct {
	UserID uuid.UUID
	Kind   DiscrepancyKind
}

// Reconcile compares final attendance against the availability promises for
// a concluded occurrence. Read-only: it never mutates either record set.
// Each invited member lands in at most one category; Excused members are
// never flagged.
func Reconcile(invited []uuid.UUID, responses []*model.AvailabilityResponse, records []*model.AttendanceRecord) []Discrepancy {
	latest := make(map[uuid.UUID]*model.AvailabilityResponse, len(responses))
	for _, r := range responses {
		if prev, ok := latest[r.UserID]; !ok || r.UpdatedAt.After(prev.UpdatedAt) {
			latest[r.UserID] = r
		}
	}

	recorded := make(map[uuid.UUID]*model.AttendanceRecord, len(records))
	for _, rec := range records {
		recorded[rec.UserID] = rec
	}

	var res []Discrepancy
	for _, userID := range invited {
		resp, responded := latest[userID]
		rec, attended := recorded[userID]

		if !responded && !attended {
			res = append(res, Discrepancy{UserID: userID, Kind: DiscrepancySilentNoShow})
			continue
		}

		if !responded || !attended {
			continue
		}

		if rec.Status == model.AttendanceStatusExcused {
			continue
		}

		switch {
		case resp.Status == model.AvailabilityStatusAvailable && rec.Status == model.AttendanceStatusAbsent:
			res = append(res, Discrepancy{UserID: userID, Kind: DiscrepancySaidAvailableButAbsent})
		case resp.Status == model.AvailabilityStatusUnavailable && rec.Status == model.AttendanceStatusAttended:
			res = append(res, Discrepancy{UserID: userID, Kind: DiscrepancySaidUnavailableButAttended})
		}
	}

	return res
}
