package scrum

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/complementai/internal/model"
)

const day = 24 * time.Hour

// Burndown はスプリントのバーンダウンを算出する。値は保存せず毎回メトリクス履歴から導出する。
func (s *Service) Burndown(ctx context.Context, userID, sprintID int64) ([]model.BurndownPoint, error) {
	sprint, err := s.sprintFor(ctx, userID, sprintID, s.guard.AssertMember)
	if err != nil {
		return nil, err
	}
	metrics, err := s.repos.Metrics.ListBySprint(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("メトリクスの取得に失敗しました: %w", err)
	}
	return ComputeBurndown(sprint, metrics, s.now()), nil
}

// ComputeBurndown はスプリント期間の各日について理想線と実績を返す。
//
// 理想線は最初の記録の総ポイント（残＋完了）から最終日の0まで線形に減少する。
// 実績はその日以前で最新の記録の残ポイントで、記録がまだない日とtodayより後の日はnil。
// metricsは日付昇順（同日は記録順）で渡されること。
func ComputeBurndown(sprint *model.Sprint, metrics []*model.SprintMetric, today time.Time) []model.BurndownPoint {
	start := truncateDay(sprint.StartDate)
	end := truncateDay(sprint.EndDate)
	if end.Before(start) {
		return []model.BurndownPoint{}
	}
	today = truncateDay(today)

	total := 0
	if len(metrics) > 0 {
		total = metrics[0].RemainingPoints + metrics[0].CompletedPoints
	}

	days := int(end.Sub(start)/day) + 1
	if days > maxSprintDays {
		days = maxSprintDays
	}
	span := float64(days - 1)

	points := make([]model.BurndownPoint, 0, days)
	next := 0
	var latest *model.SprintMetric
	for i := 0; i < days; i++ {
		date := start.Add(time.Duration(i) * day)

		for next < len(metrics) && !truncateDay(metrics[next].Date).After(date) {
			latest = metrics[next]
			next++
		}

		ideal := float64(total)
		if span > 0 {
			ideal = float64(total) * (1 - float64(i)/span)
		}

		p := model.BurndownPoint{Date: date, Ideal: ideal}
		if latest != nil && !date.After(today) {
			remaining := latest.RemainingPoints
			p.Actual = &remaining
		}
		points = append(points, p)
	}
	return points
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
