package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/storage"
)

// ErrInvalidInteraction is returned for interactions other than accepted
// and dismissed.
var ErrInvalidInteraction = errors.New("invalid interaction")

var validInteractions = map[string]bool{
	"accepted":  true,
	"dismissed": true,
}

// RecommendationService mints savings recommendations from analysis
// findings and tracks their lifecycle (pending, shown, interacted).
type RecommendationService struct {
	recommendations storage.RecommendationStore
	analysis        *AnalysisService

	Now func() time.Time
}

func NewRecommendationService(recommendations storage.RecommendationStore, analysis *AnalysisService) *RecommendationService {
	return &RecommendationService{
		recommendations: recommendations,
		analysis:        analysis,
		Now:             time.Now,
	}
}

// Generate runs the savings heuristics and persists one recommendation per
// finding. Findings whose category already has a pending recommendation are
// skipped so regeneration does not pile up duplicates.
func (s *RecommendationService) Generate(ctx context.Context, userID string) ([]models.Recommendation, error) {
	potential, err := s.analysis.SavingsPotential(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("savings analysis failed: %w", err)
	}

	existing, err := s.recommendations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Titles embed running totals, so dedupe keys on the category instead.
	pendingByCategory := map[string]bool{}
	for _, r := range existing {
		if r.Status == models.RecommendationPending {
			pendingByCategory[r.Type+":"+r.CategoryID] = true
		}
	}

	created := []models.Recommendation{}
	for _, finding := range potential.Findings {
		if pendingByCategory[finding.Type+":"+finding.CategoryID] {
			continue
		}
		rec := models.Recommendation{
			ID:              uuid.New().String(),
			UserID:          userID,
			Type:            finding.Type,
			CategoryID:      finding.CategoryID,
			Title:           finding.Title,
			Message:         finding.Message,
			SavingsEstimate: finding.MonthlyEstimate,
			Priority:        finding.Priority,
			Status:          models.RecommendationPending,
			CreatedAt:       s.Now(),
		}
		if err := s.recommendations.Create(ctx, &rec); err != nil {
			return nil, err
		}
		created = append(created, rec)
	}

	logger.L.Info("Generated recommendations", "userID", userID, "findings", len(potential.Findings), "created", len(created))
	return created, nil
}

// List returns the user's recommendations, optionally filtered by status.
func (s *RecommendationService) List(ctx context.Context, userID, status string) ([]models.Recommendation, error) {
	recommendations, err := s.recommendations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return recommendations, nil
	}
	filtered := []models.Recommendation{}
	for _, r := range recommendations {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// MarkShown records that a recommendation was displayed to the user.
func (s *RecommendationService) MarkShown(ctx context.Context, userID, recommendationID string) (*models.Recommendation, error) {
	if _, err := s.recommendations.GetByID(ctx, recommendationID, userID); err != nil {
		return nil, err
	}
	now := s.Now()
	err := s.recommendations.Update(ctx, recommendationID, userID, map[string]interface{}{
		"status":   models.RecommendationShown,
		"shown_at": now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	return s.recommendations.GetByID(ctx, recommendationID, userID)
}

// RecordInteraction stores the user's verdict on a recommendation.
func (s *RecommendationService) RecordInteraction(ctx context.Context, userID, recommendationID, interaction string) (*models.Recommendation, error) {
	if !validInteractions[interaction] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInteraction, interaction)
	}
	if _, err := s.recommendations.GetByID(ctx, recommendationID, userID); err != nil {
		return nil, err
	}
	err := s.recommendations.Update(ctx, recommendationID, userID, map[string]interface{}{
		"interaction": interaction,
	})
	if err != nil {
		return nil, err
	}
	return s.recommendations.GetByID(ctx, recommendationID, userID)
}
