package httpapi

import (
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/invitation"
	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	"github.com/frozenbet/scoring-engine/internal/domain/statistics"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
	"github.com/frozenbet/scoring-engine/internal/usecase"
)

type userDTO struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type sessionDTO struct {
	User      userDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type competitionDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Season      string    `json:"season,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Status      string    `json:"status"`
}

type matchDTO struct {
	ID            string    `json:"id"`
	CompetitionID string    `json:"competitionId"`
	HomeTeamID    string    `json:"homeTeamId"`
	HomeTeamName  string    `json:"homeTeamName"`
	AwayTeamID    string    `json:"awayTeamId"`
	AwayTeamName  string    `json:"awayTeamName"`
	ScheduledAt   time.Time `json:"scheduledAt"`
	Status        string    `json:"status"`
	HomeScore     *int      `json:"homeScore"`
	AwayScore     *int      `json:"awayScore"`
	Location      string    `json:"location,omitempty"`
	IsLocked      bool      `json:"isLocked"`
}

type groupDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	OwnerID       string    `json:"ownerId"`
	CompetitionID string    `json:"competitionId"`
	Visibility    string    `json:"visibility"`
	InviteCode    string    `json:"inviteCode,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type membershipDTO struct {
	Group        groupDTO `json:"group"`
	Role         string   `json:"role"`
	TotalPoints  int      `json:"totalPoints"`
	MyRank       int      `json:"myRank"`
	PreviousRank *int     `json:"previousRank"`
	Movement     string   `json:"movement"`
	MemberCount  int      `json:"memberCount"`
}

type groupSummaryDTO struct {
	Group       groupDTO `json:"group"`
	MemberCount int      `json:"memberCount"`
	IsMember    bool     `json:"isMember"`
}

type memberDTO struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joinedAt"`
	TotalPoints int       `json:"totalPoints"`
}

type groupDetailDTO struct {
	Group    groupDTO     `json:"group"`
	MyRole   string       `json:"myRole,omitempty"`
	IsMember bool         `json:"isMember"`
	Members  []memberDTO  `json:"members"`
	Rules    []ruleDTO    `json:"rules"`
	Rankings []rankingDTO `json:"rankings"`
}

type ruleDTO struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	Type        string    `json:"ruleType"`
	Points      int       `json:"points"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type rankingDTO struct {
	GroupID            string     `json:"groupId"`
	UserID             string     `json:"userId"`
	Username           string     `json:"username"`
	Rank               int        `json:"rank"`
	PreviousRank       *int       `json:"previousRank"`
	Movement           string     `json:"movement"`
	TotalPoints        int        `json:"totalPoints"`
	TotalPredictions   int        `json:"totalPredictions"`
	CorrectPredictions int        `json:"correctPredictions"`
	PointsReachedAt    *time.Time `json:"pointsReachedAt,omitempty"`
	LastCalculatedAt   time.Time  `json:"lastCalculatedAt"`
}

type predictionDTO struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	MatchID      string     `json:"matchId"`
	GroupID      string     `json:"groupId"`
	HomeScore    int        `json:"homeScorePrediction"`
	AwayScore    int        `json:"awayScorePrediction"`
	PredictedAt  time.Time  `json:"predictedAt"`
	PointsEarned *int       `json:"pointsEarned"`
	ScoredAt     *time.Time `json:"scoredAt,omitempty"`
	IsLocked     bool       `json:"isLocked"`
}

type invitationDTO struct {
	ID              string     `json:"id"`
	GroupID         string     `json:"groupId"`
	GroupName       string     `json:"groupName"`
	InviterID       string     `json:"inviterId"`
	InviterUsername string     `json:"inviterUsername"`
	InviteeEmail    string     `json:"inviteeEmail"`
	Status          string     `json:"status"`
	Token           string     `json:"token,omitempty"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
}

type notificationDTO struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Token     string    `json:"token,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type performerDTO struct {
	UserID             string  `json:"userId"`
	Username           string  `json:"username"`
	Rank               int     `json:"rank"`
	PreviousRank       *int    `json:"previousRank"`
	Movement           string  `json:"movement"`
	TotalPoints        int     `json:"totalPoints"`
	TotalPredictions   int     `json:"totalPredictions"`
	CorrectPredictions int     `json:"correctPredictions"`
	Accuracy           float64 `json:"accuracy"`
}

type activityDTO struct {
	PredictionID string    `json:"predictionId"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	MatchID      string    `json:"matchId"`
	MatchLabel   string    `json:"matchLabel"`
	HomeScore    int       `json:"homeScorePrediction"`
	AwayScore    int       `json:"awayScorePrediction"`
	PointsEarned *int      `json:"pointsEarned"`
	PredictedAt  time.Time `json:"predictedAt"`
}

type groupStatisticsDTO struct {
	GroupID          string         `json:"groupId"`
	GroupName        string         `json:"groupName"`
	TotalMembers     int            `json:"totalMembers"`
	TotalPredictions int            `json:"totalPredictions"`
	TopPerformers    []performerDTO `json:"topPerformers"`
	RecentActivity   []activityDTO  `json:"recentActivity"`
	GeneratedAt      time.Time      `json:"generatedAt"`
}

func userToDTO(u user.User) userDTO {
	return userDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName(),
		CreatedAt:   u.CreatedAt,
	}
}

func competitionToDTO(c competition.Competition) competitionDTO {
	return competitionDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Season:      c.Season,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Status:      string(c.Status),
	}
}

func matchToDTO(m usecase.MatchView) matchDTO {
	return matchDTO{
		ID:            m.ID,
		CompetitionID: m.CompetitionID,
		HomeTeamID:    m.HomeTeamID,
		HomeTeamName:  m.HomeTeamName,
		AwayTeamID:    m.AwayTeamID,
		AwayTeamName:  m.AwayTeamName,
		ScheduledAt:   m.ScheduledAt,
		Status:        string(m.Status),
		HomeScore:     m.HomeScore,
		AwayScore:     m.AwayScore,
		Location:      m.Location,
		IsLocked:      m.IsLocked,
	}
}

// groupToDTO hides the invite code from callers who cannot manage the group.
func groupToDTO(g group.Group, showInviteCode bool) groupDTO {
	out := groupDTO{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		OwnerID:       g.OwnerID,
		CompetitionID: g.CompetitionID,
		Visibility:    string(g.Visibility),
		CreatedAt:     g.CreatedAt,
	}
	if showInviteCode {
		out.InviteCode = g.InviteCode
	}
	return out
}

func membershipToDTO(m group.Membership) membershipDTO {
	return membershipDTO{
		Group:        groupToDTO(m.Group, m.Role.CanManage()),
		Role:         string(m.Role),
		TotalPoints:  m.TotalPoints,
		MyRank:       m.MyRank,
		PreviousRank: m.PreviousRank,
		Movement:     string(m.Movement),
		MemberCount:  m.MemberCount,
	}
}

func groupDetailToDTO(d usecase.GroupDetail) groupDetailDTO {
	members := make([]memberDTO, 0, len(d.Members))
	for _, m := range d.Members {
		members = append(members, memberDTO{
			UserID:      m.UserID,
			Username:    m.Username,
			Role:        string(m.Role),
			JoinedAt:    m.JoinedAt,
			TotalPoints: m.TotalPoints,
		})
	}
	return groupDetailDTO{
		Group:    groupToDTO(d.Group, d.MyRole.CanManage()),
		MyRole:   string(d.MyRole),
		IsMember: d.IsMember,
		Members:  members,
		Rules:    rulesToDTO(d.Rules),
		Rankings: rankingsToDTO(d.Rankings),
	}
}

func ruleToDTO(r rule.Rule) ruleDTO {
	return ruleDTO{
		ID:          r.ID,
		GroupID:     r.GroupID,
		Type:        string(r.Type),
		Points:      r.Points,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

func rulesToDTO(rules []rule.Rule) []ruleDTO {
	out := make([]ruleDTO, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleToDTO(r))
	}
	return out
}

func rankingsToDTO(rows []usecase.RankingView) []rankingDTO {
	out := make([]rankingDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, rankingDTO{
			GroupID:            r.GroupID,
			UserID:             r.UserID,
			Username:           r.Username,
			Rank:               r.Rank,
			PreviousRank:       r.PreviousRank,
			Movement:           string(r.Movement),
			TotalPoints:        r.TotalPoints,
			TotalPredictions:   r.TotalPredictions,
			CorrectPredictions: r.CorrectPredictions,
			PointsReachedAt:    r.PointsReachedAt,
			LastCalculatedAt:   r.LastCalculatedAt,
		})
	}
	return out
}

func predictionToDTO(p usecase.PredictionView) predictionDTO {
	return predictionDTO{
		ID:           p.ID,
		UserID:       p.UserID,
		MatchID:      p.MatchID,
		GroupID:      p.GroupID,
		HomeScore:    p.HomeScore,
		AwayScore:    p.AwayScore,
		PredictedAt:  p.PredictedAt,
		PointsEarned: p.PointsEarned,
		ScoredAt:     p.ScoredAt,
		IsLocked:     p.IsLocked,
	}
}

// invitationToDTO exposes the response token only to the invitee.
func invitationToDTO(v usecase.InvitationView, withToken bool) invitationDTO {
	out := invitationDTO{
		ID:              v.ID,
		GroupID:         v.GroupID,
		GroupName:       v.GroupName,
		InviterID:       v.InviterID,
		InviterUsername: v.InviterUsername,
		InviteeEmail:    v.InviteeEmail,
		Status:          string(v.Status),
		ExpiresAt:       v.ExpiresAt,
		CreatedAt:       v.CreatedAt,
		RespondedAt:     v.RespondedAt,
	}
	if withToken {
		out.Token = v.Token
	}
	return out
}

func sentInvitationToDTO(inv invitation.Invitation) invitationDTO {
	return invitationDTO{
		ID:           inv.ID,
		GroupID:      inv.GroupID,
		InviterID:    inv.InviterID,
		InviteeEmail: inv.InviteeEmail,
		Status:       string(inv.Status),
		ExpiresAt:    inv.ExpiresAt,
		CreatedAt:    inv.CreatedAt,
		RespondedAt:  inv.RespondedAt,
	}
}

func notificationToDTO(n usecase.Notification) notificationDTO {
	return notificationDTO{
		ID:        n.ID,
		Kind:      n.Kind,
		Message:   n.Message,
		Token:     n.Token,
		GroupID:   n.GroupID,
		CreatedAt: n.CreatedAt,
	}
}

func groupStatisticsToDTO(s statistics.GroupStatistics) groupStatisticsDTO {
	performers := make([]performerDTO, 0, len(s.TopPerformers))
	for _, p := range s.TopPerformers {
		performers = append(performers, performerDTO{
			UserID:             p.UserID,
			Username:           p.Username,
			Rank:               p.Rank,
			PreviousRank:       p.PreviousRank,
			Movement:           string(p.Movement),
			TotalPoints:        p.TotalPoints,
			TotalPredictions:   p.TotalPredictions,
			CorrectPredictions: p.CorrectPredictions,
			Accuracy:           p.Accuracy,
		})
	}
	activity := make([]activityDTO, 0, len(s.RecentActivity))
	for _, a := range s.RecentActivity {
		activity = append(activity, activityDTO{
			PredictionID: a.PredictionID,
			UserID:       a.UserID,
			Username:     a.Username,
			MatchID:      a.MatchID,
			MatchLabel:   a.MatchLabel,
			HomeScore:    a.HomeScore,
			AwayScore:    a.AwayScore,
			PointsEarned: a.PointsEarned,
			PredictedAt:  a.PredictedAt,
		})
	}
	return groupStatisticsDTO{
		GroupID:          s.GroupID,
		GroupName:        s.GroupName,
		TotalMembers:     s.TotalMembers,
		TotalPredictions: s.TotalPredictions,
		TopPerformers:    performers,
		RecentActivity:   activity,
		GeneratedAt:      s.GeneratedAt,
	}
}
