package recommendation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/carenote/carenote/internal/platform/apperror"
)

// Generator produces a recommendation bundle from intake data. The real
// implementation calls an external model service; the stub serves dev and
// tests.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Bundle, error)
}

// HTTPGenerator calls the external recommendation service. Every failure
// mode (transport error, timeout, non-2xx) maps to RecommendationUnavailable
// so the pipeline can degrade instead of aborting.
type HTTPGenerator struct {
	client *resty.Client
}

func NewHTTPGenerator(baseURL, apiKey string, timeout time.Duration) *HTTPGenerator {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPGenerator{client: client}
}

func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (*Bundle, error) {
	var bundle Bundle
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&bundle).
		Post("/generate")
	if err != nil {
		return nil, apperror.Wrap(apperror.RecommendationUnavailable, err, "recommendation service unreachable")
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.RecommendationUnavailable, "recommendation service returned %d", resp.StatusCode())
	}
	if err := validateBundle(&bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// StubGenerator returns a deterministic canned bundle. Used when no
// RECOMMENDER_URL is configured.
type StubGenerator struct{}

func (StubGenerator) Generate(_ context.Context, req Request) (*Bundle, error) {
	return &Bundle{
		FormID:         req.FormID,
		PatientID:      req.PatientID,
		ConsultationID: req.ConsultationID,
		CategoryID:     req.CategoryID,
		Summary: []SummaryItem{
			{Text: "Intake reviewed, no acute findings reported", Confidence: 0.9},
			{Text: "Lifestyle factors may contribute to presentation", Confidence: 0.6},
		},
		Assessment: "Stable; suitable for standard care pathway.",
		Plan:       "Continue current regimen and reassess at next consultation.",
	}, nil
}

func validateBundle(b *Bundle) error {
	for i, s := range b.Summary {
		if s.Confidence < 0 || s.Confidence > 1 {
			return fmt.Errorf("summary item %d: confidence %v out of range", i, s.Confidence)
		}
	}
	return nil
}
