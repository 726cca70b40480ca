package scrum

import (
	"testing"
	"time"

	"github.com/hitoshi/complementai/internal/model"
)

func d(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeBurndown(t *testing.T) {
	sprint := &model.Sprint{StartDate: d("2025-03-03"), EndDate: d("2025-03-07")}
	metrics := []*model.SprintMetric{
		{Date: d("2025-03-03"), RemainingPoints: 18, CompletedPoints: 2},
		{Date: d("2025-03-04"), RemainingPoints: 15, CompletedPoints: 5},
		{Date: d("2025-03-04"), RemainingPoints: 14, CompletedPoints: 6},
	}
	today := time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC)

	points := ComputeBurndown(sprint, metrics, today)
	if len(points) != 5 {
		t.Fatalf("len(points) = %d, want 5", len(points))
	}

	wantIdeal := []float64{20, 15, 10, 5, 0}
	for i, p := range points {
		if p.Ideal != wantIdeal[i] {
			t.Errorf("points[%d].Ideal = %v, want %v", i, p.Ideal, wantIdeal[i])
		}
		if want := sprint.StartDate.AddDate(0, 0, i); !p.Date.Equal(want) {
			t.Errorf("points[%d].Date = %s, want %s", i, p.Date, want)
		}
	}

	wantActual := []*int{intPtr(18), intPtr(14), intPtr(14), nil, nil}
	for i, p := range points {
		switch {
		case wantActual[i] == nil && p.Actual != nil:
			t.Errorf("points[%d].Actual = %d, want nil", i, *p.Actual)
		case wantActual[i] != nil && (p.Actual == nil || *p.Actual != *wantActual[i]):
			t.Errorf("points[%d].Actual = %v, want %d", i, p.Actual, *wantActual[i])
		}
	}
}

func TestComputeBurndown_NoMetrics(t *testing.T) {
	sprint := &model.Sprint{StartDate: d("2025-03-03"), EndDate: d("2025-03-04")}
	points := ComputeBurndown(sprint, nil, d("2025-03-10"))

	if len(points) != 2 {
		t.Fatalf("len(points) = %d, want 2", len(points))
	}
	for i, p := range points {
		if p.Ideal != 0 || p.Actual != nil {
			t.Errorf("points[%d] = %+v, want zero ideal and nil actual", i, p)
		}
	}
}

func TestComputeBurndown_MetricBeforeStartCounts(t *testing.T) {
	sprint := &model.Sprint{StartDate: d("2025-03-03"), EndDate: d("2025-03-03")}
	metrics := []*model.SprintMetric{{Date: d("2025-03-01"), RemainingPoints: 9}}

	points := ComputeBurndown(sprint, metrics, d("2025-03-03"))
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	if points[0].Ideal != 9 {
		t.Errorf("Ideal = %v, want 9", points[0].Ideal)
	}
	if points[0].Actual == nil || *points[0].Actual != 9 {
		t.Errorf("Actual = %v, want 9", points[0].Actual)
	}
}
