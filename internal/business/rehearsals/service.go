package rehearsals

import (
	"context"
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/notifications"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventScheduled = "rehearsal.scheduled"
	EventCancelled = "rehearsal.cancelled"
	EventCompleted = "rehearsal.completed"
)

type Service struct {
	db                     database.PGX
	rehearsalsRepository   rehearsalsRepository
	bandsRepository        bandsRepository
	availabilityRepository availabilityRepository
	attendanceRepository   attendanceRepository
	publisher              eventPublisher
	logger                 *zap.SugaredLogger

	quorumFraction float64
	maxOccurrences int
	commitTimeout  time.Duration
	now            func() time.Time
}

type rehearsalsRepository interface {
	CreateSeries(ctx context.Context, q database.Queryable, series *model.RehearsalSeries) (uuid.UUID, error)
	GetSeries(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.RehearsalSeries, error)
	UpdateSeriesState(ctx context.Context, q database.Queryable, seriesID uuid.UUID, state model.SeriesState) error
	CreateOccurrence(ctx context.Context, q database.Queryable, occ *model.RehearsalOccurrence) (uuid.UUID, error)
	GetOccurrence(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.RehearsalOccurrence, error)
	GetOccurrences(ctx context.Context, q database.Queryable, filter model.OccurrencesFilter) ([]*model.RehearsalOccurrence, error)
	GetSeriesOccurrences(ctx context.Context, q database.Queryable, seriesID uuid.UUID) ([]*model.RehearsalOccurrence, error)
	GetBandWindow(ctx context.Context, q database.Queryable, bandID uuid.UUID, from, to time.Time) ([]*model.RehearsalOccurrence, error)
	GetVenueWindow(ctx context.Context, q database.Queryable, venueID uuid.UUID, from, to time.Time) ([]*model.RehearsalOccurrence, error)
	GetMemberWindow(ctx context.Context, q database.Queryable, excludeBandID uuid.UUID, memberIDs []uuid.UUID, from, to time.Time) ([]*model.RehearsalOccurrence, error)
	UpdateOccurrenceStatus(ctx context.Context, q database.Queryable, occurrenceID uuid.UUID, status model.OccurrenceStatus) error
	CompleteElapsed(ctx context.Context, q database.Queryable, now time.Time) ([]*model.RehearsalOccurrence, error)
}

type bandsRepository interface {
	GetBand(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.Band, error)
	GetMemberships(ctx context.Context, q database.Queryable, filter model.MembershipFilter) ([]*model.Membership, error)
}

type availabilityRepository interface {
	UpsertResponse(ctx context.Context, q database.Queryable, r *model.AvailabilityResponse) error
	GetResponses(ctx context.Context, q database.Queryable, occurrenceID uuid.UUID) ([]*model.AvailabilityResponse, error)
}

type attendanceRepository interface {
	UpsertRecord(ctx context.Context, q database.Queryable, r *model.AttendanceRecord) error
	GetRecords(ctx context.Context, q database.Queryable, occurrenceID uuid.UUID) ([]*model.AttendanceRecord, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, bandID uuid.UUID, name string, payload interface{}) error
	PublishBatch(ctx context.Context, ms []*notifications.Message)
}

// Options carry the scheduling knobs. Zero values fall back to the same
// defaults the config package ships with.
type Options struct {
	QuorumFraction float64
	MaxOccurrences int
	CommitTimeout  time.Duration
}

func NewService(
	db database.PGX,
	rehearsals rehearsalsRepository,
	bands bandsRepository,
	availability availabilityRepository,
	attendance attendanceRepository,
	publisher eventPublisher,
	logger *zap.SugaredLogger,
	opts Options,
) *Service {
	if opts.QuorumFraction <= 0 {
		opts.QuorumFraction = schedule.DefaultQuorumFraction
	}
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = 366
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = 10 * time.Second
	}

	return &Service{
		db:                     db,
		rehearsalsRepository:   rehearsals,
		bandsRepository:        bands,
		availabilityRepository: availability,
		attendanceRepository:   attendance,
		publisher:              publisher,
		logger:                 logger,
		quorumFraction:         opts.QuorumFraction,
		maxOccurrences:         opts.MaxOccurrences,
		commitTimeout:          opts.CommitTimeout,
		now:                    time.Now,
	}
}

type occurrencePayload struct {
	OccurrenceID string  `json:"occurrence_id"`
	SeriesID     string  `json:"series_id"`
	VenueID      *string `json:"venue_id,omitempty"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
}

func payloadFor(occ *model.RehearsalOccurrence) *occurrencePayload {
	p := &occurrencePayload{
		OccurrenceID: occ.ID.String(),
		SeriesID:     occ.SeriesID.String(),
		StartTime:    occ.StartTime.Format(time.RFC3339),
		EndTime:      occ.EndTime.Format(time.RFC3339),
	}
	if occ.VenueID != nil {
		s := occ.VenueID.String()
		p.VenueID = &s
	}
	return p
}
