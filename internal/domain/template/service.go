package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/carenote/carenote/internal/platform/apperror"
	"github.com/carenote/carenote/internal/platform/cache"
)

type Service struct {
	repo     Repository
	cache    *cache.Cache
	cacheTTL time.Duration
}

// NewService creates the template service. cache may be nil (caching
// disabled).
func NewService(repo Repository, c *cache.Cache, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{repo: repo, cache: c, cacheTTL: cacheTTL}
}

func validateDefinition(def *Definition) error {
	if def.Name == "" {
		return apperror.New(apperror.Validation, "name is required")
	}
	if len(def.Sections) == 0 {
		return apperror.New(apperror.Validation, "at least one section is required")
	}
	seen := map[int]bool{}
	for i, s := range def.Sections {
		if !s.VisibilityRule.Valid() {
			return apperror.New(apperror.Validation, "section %d: unknown visibility_rule %q", i, s.VisibilityRule)
		}
		if s.VisibilityRule == VisibilityConditional && (s.PatientFilterRule == nil || *s.PatientFilterRule == "") {
			return apperror.New(apperror.Validation, "section %d: CONDITIONAL visibility requires patient_filter_rule", i)
		}
		if seen[s.OrderIndex] {
			return apperror.New(apperror.Validation, "section %d: duplicate order_index %d", i, s.OrderIndex)
		}
		seen[s.OrderIndex] = true
	}
	return nil
}

// CreateVersion creates a new immutable template version. Existing versions
// are never modified; the prior active version of the same logical template
// is deactivated.
func (s *Service) CreateVersion(ctx context.Context, def *Definition) (*Template, error) {
	if err := validateDefinition(def); err != nil {
		return nil, err
	}

	t := &Template{
		Name:          def.Name,
		Category:      def.Category,
		EncounterType: def.EncounterType,
	}
	if def.TemplateID != nil {
		t.TemplateID = *def.TemplateID
	}
	for _, sd := range def.Sections {
		t.Sections = append(t.Sections, Section{
			SectionType:       sd.SectionType,
			Title:             sd.Title,
			Content:           sd.Content,
			VisibilityRule:    sd.VisibilityRule,
			PatientFilterRule: sd.PatientFilterRule,
			Required:          sd.Required,
			OrderIndex:        sd.OrderIndex,
		})
	}

	if err := s.repo.CreateVersion(ctx, t); err != nil {
		return nil, fmt.Errorf("create template version: %w", err)
	}

	if err := s.cache.DeleteByPattern(ctx, "templates:active:*"); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate template cache")
	}
	return t, nil
}

// GetVersion returns a template version by row id, active or not. Callers
// processing a note decide whether an inactive version is acceptable.
func (s *Service) GetVersion(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := s.repo.GetVersion(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "template version %s not found", id)
		}
		return nil, fmt.Errorf("get template version: %w", err)
	}
	return t, nil
}

type listPage struct {
	Items []*Summary `json:"items"`
	Total int        `json:"total"`
}

func (s *Service) ListActive(ctx context.Context, f Filter, limit, offset int) ([]*Summary, int, error) {
	key := fmt.Sprintf("templates:active:%s:%s:%d:%d", f.Category, f.EncounterType, limit, offset)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var page listPage
		if err := json.Unmarshal([]byte(raw), &page); err == nil {
			return page.Items, page.Total, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Msg("template cache read failed")
	}

	items, total, err := s.repo.ListActive(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}

	if raw, err := json.Marshal(listPage{Items: items, Total: total}); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("template cache write failed")
		}
	}
	return items, total, nil
}
