package api

import (
	"context"
	"io"
	"net/http"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/business/rehearsals"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/schedule"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Api struct {
	handler    http.Handler
	logger     *zap.SugaredLogger
	randSource io.Reader

	jwts          jwtManager
	refreshTokens refreshTokenRepository

	db         database.PGX
	users      userRepository
	bands      bandRepository
	venues     venueRepository
	occs       occurrenceRepository
	rehearsals rehearsalsService
}

type jwtManager interface {
	CreateToken(id uuid.UUID) (string, error)
	GetIdFromToken(token string) (uuid.UUID, error)
}

type refreshTokenRepository interface {
	Add(ctx context.Context, session string, id uuid.UUID) error
	Get(ctx context.Context, session string) (uuid.UUID, error)
	Refresh(ctx context.Context, old, new string) error
	Delete(ctx context.Context, session string) error
}

type userRepository interface {
	CreateUser(ctx context.Context, q database.Queryable, user *model.UserCreate) (uuid.UUID, error)
	GetUserByEmail(ctx context.Context, q database.Queryable, email string) (*model.User, error)
	GetUserByID(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.User, error)
}

type bandRepository interface {
	CreateBand(ctx context.Context, q database.Queryable, band *model.BandCreate) (uuid.UUID, error)
	AddMember(ctx context.Context, q database.Queryable, m *model.Membership) error
	RemoveMember(ctx context.Context, q database.Queryable, bandID, userID uuid.UUID) error
	GetBand(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.Band, error)
	GetUserBands(ctx context.Context, q database.Queryable, userID uuid.UUID) ([]*model.Band, error)
	UpdateBandName(ctx context.Context, q database.Queryable, bandID uuid.UUID, name string) error
	UpdateMembershipSettings(ctx context.Context, q database.Queryable, m *model.Membership) error
}

type venueRepository interface {
	CreateVenue(ctx context.Context, q database.Queryable, venue *model.VenueCreate) (uuid.UUID, error)
	GetVenue(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.Venue, error)
	ListVenues(ctx context.Context, q database.Queryable) ([]*model.Venue, error)
	DeleteVenue(ctx context.Context, q database.Queryable, id uuid.UUID) error
}

// occurrenceRepository is the slice of the rehearsal repo the API touches
// directly; everything stateful goes through the rehearsals service.
type occurrenceRepository interface {
	DetachVenue(ctx context.Context, q database.Queryable, venueID uuid.UUID) error
}

type rehearsalsService interface {
	CreateSeries(ctx context.Context, req *rehearsals.CreateSeriesRequest) (*rehearsals.CommitResult, error)
	UpdateSeries(ctx context.Context, seriesID uuid.UUID, req *rehearsals.UpdateSeriesRequest) (*rehearsals.CommitResult, error)
	GetSeries(ctx context.Context, id uuid.UUID) (*model.RehearsalSeries, error)
	RescheduleOccurrence(ctx context.Context, occurrenceID uuid.UUID, req *rehearsals.RescheduleRequest) (*rehearsals.CommitResult, error)
	CancelOccurrence(ctx context.Context, occurrenceID, cancelledByID uuid.UUID) error
	GetOccurrence(ctx context.Context, id uuid.UUID) (*model.RehearsalOccurrence, error)
	ListOccurrences(ctx context.Context, filter model.OccurrencesFilter) ([]*model.RehearsalOccurrence, error)
	RespondAvailability(ctx context.Context, occurrenceID, userID uuid.UUID, status model.AvailabilityStatus) (*rehearsals.AvailabilityResult, error)
	AvailabilitySummary(ctx context.Context, occurrenceID uuid.UUID) (schedule.AvailabilitySummary, error)
	RecordAttendance(ctx context.Context, occurrenceID, userID uuid.UUID, status model.AttendanceStatus, override bool) (*rehearsals.AttendanceResult, error)
	ReconcileAttendance(ctx context.Context, occurrenceID uuid.UUID) ([]schedule.Discrepancy, error)
}

func NewApi(
	logger *zap.SugaredLogger,
	randSource io.Reader,
	jwts jwtManager,
	refreshTokens refreshTokenRepository,
	db database.PGX,
	users userRepository,
	bands bandRepository,
	venues venueRepository,
	occs occurrenceRepository,
	rehearsalsService rehearsalsService,
) (*Api, error) {
	a := &Api{
		logger:        logger,
		randSource:    randSource,
		jwts:          jwts,
		refreshTokens: refreshTokens,
		db:            db,
		users:         users,
		bands:         bands,
		venues:        venues,
		occs:          occs,
		rehearsals:    rehearsalsService,
	}
	a.setupHandler()

	return a, nil
}

func (a *Api) setupHandler() {
	middleware.DefaultLogger = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.logger.Debugw(r.URL.RequestURI(),
				"addr", r.RemoteAddr,
				"protocol", r.Proto,
				"method", r.Method,
			)
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewMux()

	r.Use(middleware.Logger, middleware.Recoverer, middleware.StripSlashes)
	r.NotFound(a.notFoundResponse)
	r.MethodNotAllowed(a.methodNotAllowedResponse)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", a.signUpHandler)
		r.Post("/signin", a.signInHandler)
		r.Post("/refresh", a.refreshTokenHandler)
		r.Post("/logout", a.logoutUserHandler)
	})

	r.With(a.auth).Route("/", func(r chi.Router) {
		r.With(a.userCtx).Route("/user", func(r chi.Router) {
			r.Get("/", a.getUserHandler)
		})

		r.Route("/bands", func(r chi.Router) {
			r.Get("/", a.getUserBandsHandler)
			r.Post("/", a.createBandHandler)

			r.With(a.bandCtx).Route("/{bandID}", func(r chi.Router) {
				r.Get("/", a.getBandHandler)
				r.Patch("/", a.updateBandHandler)
				r.Post("/members", a.addMemberHandler)
				r.Delete("/members/{userID}", a.removeMemberHandler)
				r.Put("/members/settings", a.updateMembershipHandler)
			})
		})

		r.Route("/venues", func(r chi.Router) {
			r.Get("/", a.listVenuesHandler)
			r.Post("/", a.createVenueHandler)
			r.Get("/{venueID}", a.getVenueHandler)
			r.Delete("/{venueID}", a.deleteVenueHandler)
		})

		r.Route("/series", func(r chi.Router) {
			r.Post("/", a.createSeriesHandler)
			r.Get("/{seriesID}", a.getSeriesHandler)
			r.Put("/{seriesID}", a.updateSeriesHandler)
		})

		r.Route("/occurrences", func(r chi.Router) {
			r.Get("/", a.listOccurrencesHandler)
			r.Get("/{occurrenceID}", a.getOccurrenceHandler)
			r.Post("/{occurrenceID}/cancel", a.cancelOccurrenceHandler)
			r.Post("/{occurrenceID}/reschedule", a.rescheduleOccurrenceHandler)
			r.Put("/{occurrenceID}/availability", a.respondAvailabilityHandler)
			r.Get("/{occurrenceID}/availability", a.availabilitySummaryHandler)
			r.Put("/{occurrenceID}/attendance", a.recordAttendanceHandler)
			r.Get("/{occurrenceID}/attendance/discrepancies", a.reconcileAttendanceHandler)
		})
	})

	a.handler = r
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}
