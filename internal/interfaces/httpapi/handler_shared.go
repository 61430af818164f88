package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
	"github.com/frozenbet/scoring-engine/internal/infrastructure/livescore"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
	"github.com/frozenbet/scoring-engine/internal/usecase"
	"github.com/go-playground/validator/v10"
)

// Services bundles the usecases the HTTP layer dispatches to.
type Services struct {
	Auth          *usecase.AuthService
	Competitions  *usecase.CompetitionService
	Matches       *usecase.MatchService
	Groups        *usecase.GroupService
	Rules         *usecase.RuleService
	Predictions   *usecase.PredictionService
	Rankings      *usecase.RankingService
	Invitations   *usecase.InvitationService
	Notifications *usecase.NotificationService
	Statistics    *usecase.StatisticsService
	Jobs          *usecase.JobService
}

// SessionCookieConfig controls the cookie set on login and cleared on logout.
type SessionCookieConfig struct {
	Secure bool
}

type Handler struct {
	authService         *usecase.AuthService
	competitionService  *usecase.CompetitionService
	matchService        *usecase.MatchService
	groupService        *usecase.GroupService
	ruleService         *usecase.RuleService
	predictionService   *usecase.PredictionService
	rankingService      *usecase.RankingService
	invitationService   *usecase.InvitationService
	notificationService *usecase.NotificationService
	statisticsService   *usecase.StatisticsService
	jobService          *usecase.JobService
	liveScores          *livescore.Hub
	cookie              SessionCookieConfig
	heartbeat           time.Duration
	logger              *logging.Logger
	validator           *validator.Validate
}

func NewHandler(services Services, liveScores *livescore.Hub, cookie SessionCookieConfig, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if liveScores == nil {
		liveScores = livescore.NewHub(logger)
	}

	return &Handler{
		authService:         services.Auth,
		competitionService:  services.Competitions,
		matchService:        services.Matches,
		groupService:        services.Groups,
		ruleService:         services.Rules,
		predictionService:   services.Predictions,
		rankingService:      services.Rankings,
		invitationService:   services.Invitations,
		notificationService: services.Notifications,
		statisticsService:   services.Statistics,
		jobService:          services.Jobs,
		liveScores:          liveScores,
		cookie:              cookie,
		heartbeat:           liveScoreHeartbeat,
		logger:              logger,
		validator:           validator.New(),
	}
}

// SetLiveScoreHeartbeat overrides the comment interval written to idle live-score streams.
func (h *Handler) SetLiveScoreHeartbeat(interval time.Duration) {
	if interval > 0 {
		h.heartbeat = interval
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeAndValidate reads a strict JSON body into dst and runs its validate tags.
func (h *Handler) decodeAndValidate(ctx context.Context, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

func parseOptionalInt(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return v, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type registerRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=32"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createGroupRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"omitempty,max=500"`
	CompetitionID string `json:"competitionId" validate:"required"`
	Visibility    string `json:"visibility" validate:"omitempty,oneof=public private"`
}

type joinGroupRequest struct {
	InviteCode string `json:"inviteCode" validate:"required,max=32"`
}

type addRuleRequest struct {
	Type        string `json:"ruleType" validate:"required"`
	Points      int    `json:"points"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

type refreshRankingsRequest struct {
	Reset bool `json:"reset"`
}

type sendInvitationRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type submitPredictionRequest struct {
	MatchID   string `json:"matchId" validate:"required"`
	GroupID   string `json:"groupId" validate:"required"`
	HomeScore *int   `json:"homeScorePrediction" validate:"required,min=0,max=99"`
	AwayScore *int   `json:"awayScorePrediction" validate:"required,min=0,max=99"`
}

type recordResultRequest struct {
	Status    string `json:"status" validate:"required"`
	HomeScore *int   `json:"homeScore" validate:"omitempty,min=0"`
	AwayScore *int   `json:"awayScore" validate:"omitempty,min=0"`
}

type scoreMatchJobRequest struct {
	MatchID    string `json:"matchId" validate:"required"`
	DispatchID string `json:"dispatchId"`
}

type recomputeRankingsJobRequest struct {
	GroupID       string `json:"groupId"`
	CompetitionID string `json:"competitionId"`
	Reset         bool   `json:"reset"`
}

type ingestFixturesRequest struct {
	Competitions []ingestCompetitionRecord `json:"competitions" validate:"omitempty,dive"`
	Teams        []ingestTeamRecord        `json:"teams" validate:"omitempty,dive"`
	Matches      []ingestMatchRecord       `json:"matches" validate:"omitempty,dive"`
}

type ingestCompetitionRecord struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Season      string `json:"season"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	Status      string `json:"status"`
}

type ingestTeamRecord struct {
	ID            string `json:"id" validate:"required"`
	CompetitionID string `json:"competitionId" validate:"required"`
	Name          string `json:"name" validate:"required"`
	ShortName     string `json:"shortName"`
	LogoURL       string `json:"logoUrl" validate:"omitempty,url"`
	Country       string `json:"country"`
}

type ingestMatchRecord struct {
	ID            string `json:"id" validate:"required"`
	CompetitionID string `json:"competitionId" validate:"required"`
	HomeTeamID    string `json:"homeTeamId" validate:"required"`
	AwayTeamID    string `json:"awayTeamId" validate:"required"`
	ScheduledAt   string `json:"scheduledAt" validate:"required"`
	Status        string `json:"status"`
	HomeScore     *int   `json:"homeScore" validate:"omitempty,min=0"`
	AwayScore     *int   `json:"awayScore" validate:"omitempty,min=0"`
	Location      string `json:"location"`
}
