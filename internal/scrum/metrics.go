package scrum

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
)

// MetricInput はスプリントメトリクス記録の入力。
type MetricInput struct {
	Date            string
	RemainingPoints int
	CompletedPoints int
}

// ListMetrics はスプリントのメトリクス履歴を日付順に返す。
func (s *Service) ListMetrics(ctx context.Context, userID, sprintID int64) ([]*model.SprintMetric, error) {
	if _, err := s.sprintFor(ctx, userID, sprintID, s.guard.AssertMember); err != nil {
		return nil, err
	}
	metrics, err := s.repos.Metrics.ListBySprint(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("メトリクスの取得に失敗しました: %w", err)
	}
	return metrics, nil
}

// RecordMetric はその日の残ポイント・完了ポイントを追記する。既存の記録は更新しない。
func (s *Service) RecordMetric(ctx context.Context, userID, sprintID int64, in MetricInput) (*model.SprintMetric, error) {
	if _, err := s.sprintFor(ctx, userID, sprintID, s.guard.AssertProductOwner); err != nil {
		return nil, err
	}
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	if in.RemainingPoints < 0 || in.CompletedPoints < 0 {
		return nil, model.NewValidationError("Points must not be negative.")
	}

	metric := &model.SprintMetric{
		SprintID:        sprintID,
		Date:            date,
		RemainingPoints: in.RemainingPoints,
		CompletedPoints: in.CompletedPoints,
	}
	if err := s.repos.Metrics.Create(ctx, metric); err != nil {
		return nil, fmt.Errorf("メトリクスの記録に失敗しました: %w", err)
	}
	return metric, nil
}

// DeleteMetric は誤って記録したメトリクスを削除する。
func (s *Service) DeleteMetric(ctx context.Context, userID, sprintID, metricID int64) error {
	if _, err := s.sprintFor(ctx, userID, sprintID, s.guard.AssertProductOwner); err != nil {
		return err
	}
	if err := s.repos.Metrics.Delete(ctx, sprintID, metricID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewMetricNotFoundError(metricID)
		}
		return fmt.Errorf("メトリクスの削除に失敗しました: %w", err)
	}
	return nil
}
