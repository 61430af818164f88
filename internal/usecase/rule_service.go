package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	idgen "github.com/frozenbet/scoring-engine/internal/platform/id"
	"github.com/frozenbet/scoring-engine/internal/platform/resilience"
)

const maxRuleDescriptionLength = 255

type RuleConfig struct {
	PointsMin int
	PointsMax int
}

type AddRuleInput struct {
	ActorUserID string
	GroupID     string
	Type        string
	Points      int
	Description string
}

type RuleService struct {
	access groupAccess
	rules  rule.Repository
	idGen  idgen.Generator
	cfg    RuleConfig
	locks  resilience.KeyedMutex
	now    func() time.Time
}

func NewRuleService(groupRepo group.Repository, ruleRepo rule.Repository, idGen idgen.Generator, cfg RuleConfig) *RuleService {
	if cfg.PointsMax < cfg.PointsMin {
		cfg.PointsMin, cfg.PointsMax = 0, 100
	}
	return &RuleService{
		access: groupAccess{groups: groupRepo},
		rules:  ruleRepo,
		idGen:  idGen,
		cfg:    cfg,
		now:    time.Now,
	}
}

// AddRule appends a scoring rule. Adding a rule identical to an existing one returns the existing rule.
func (s *RuleService) AddRule(ctx context.Context, input AddRuleInput) (rule.Rule, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RuleService.AddRule")
	defer span.End()

	input.ActorUserID = strings.TrimSpace(input.ActorUserID)
	input.Description = strings.TrimSpace(input.Description)
	if input.ActorUserID == "" {
		return rule.Rule{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	ruleType, ok := rule.ParseType(input.Type)
	if !ok {
		return rule.Rule{}, fmt.Errorf("%w: %s: %q", ErrInvalidInput, rule.ErrUnknownType, input.Type)
	}
	if input.Points < s.cfg.PointsMin || input.Points > s.cfg.PointsMax {
		return rule.Rule{}, fmt.Errorf("%w: points must be between %d and %d", ErrInvalidInput, s.cfg.PointsMin, s.cfg.PointsMax)
	}
	if utf8.RuneCountInString(input.Description) > maxRuleDescriptionLength {
		return rule.Rule{}, fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, maxRuleDescriptionLength)
	}

	g, err := s.access.load(ctx, input.GroupID)
	if err != nil {
		return rule.Rule{}, err
	}
	if _, err := s.access.requireManager(ctx, g, input.ActorUserID); err != nil {
		return rule.Rule{}, err
	}

	candidate := rule.Rule{
		GroupID:     g.ID,
		Type:        ruleType,
		Points:      input.Points,
		Description: input.Description,
	}

	unlock := s.locks.Lock(g.ID)
	defer unlock()

	existing, err := s.rules.ListByGroup(ctx, g.ID)
	if err != nil {
		return rule.Rule{}, fmt.Errorf("list rules: %w", err)
	}
	for _, item := range existing {
		if item.SameDefinition(candidate) {
			return item, nil
		}
	}

	ruleID, err := s.idGen.NewID()
	if err != nil {
		return rule.Rule{}, fmt.Errorf("generate rule id: %w", err)
	}
	candidate.ID = ruleID
	candidate.CreatedAt = s.now().UTC()
	if err := s.rules.Create(ctx, candidate); err != nil {
		return rule.Rule{}, fmt.Errorf("create rule: %w", err)
	}

	return candidate, nil
}

func (s *RuleService) ListRules(ctx context.Context, actorUserID, groupID string) ([]rule.Rule, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RuleService.ListRules")
	defer span.End()

	g, err := s.access.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.access.requireViewer(ctx, g, strings.TrimSpace(actorUserID)); err != nil {
		return nil, err
	}

	items, err := s.rules.ListByGroup(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return items, nil
}
