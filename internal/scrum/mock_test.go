package scrum

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
	"github.com/hitoshi/complementai/internal/security"
)

// --- モック定義 ---

// fakeGuard はユーザーIDごとにPO／メンバーを判定する。
type fakeGuard struct {
	owners  map[int64]bool
	members map[int64]bool
	calls   []int64 // 判定対象になったprojectID
}

func (g *fakeGuard) AssertProductOwner(_ context.Context, userID, projectID int64) error {
	g.calls = append(g.calls, projectID)
	if !g.owners[userID] {
		return model.NewNotProductOwnerError()
	}
	return nil
}

func (g *fakeGuard) AssertMember(_ context.Context, userID, projectID int64) error {
	g.calls = append(g.calls, projectID)
	if !g.owners[userID] && !g.members[userID] {
		return model.NewNotProjectMemberError()
	}
	return nil
}

const (
	ownerID    int64 = 1
	memberID   int64 = 2
	outsiderID int64 = 3
)

type mockProjectRepo struct {
	repository.ProjectRepository
	listByMemberFn func(ctx context.Context, userID int64) ([]*model.Project, error)
}

func (m *mockProjectRepo) ListByMember(ctx context.Context, userID int64) ([]*model.Project, error) {
	return m.listByMemberFn(ctx, userID)
}

type mockMemberRepo struct {
	repository.MemberRepository
	listFn   func(ctx context.Context, projectID int64) ([]*model.ProjectMember, error)
	createFn func(ctx context.Context, m *model.ProjectMember) error
	deleteFn func(ctx context.Context, projectID, memberID int64) error
	acceptFn func(ctx context.Context, projectID, userID int64) (*model.ProjectMember, error)
}

func (m *mockMemberRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectMember, error) {
	return m.listFn(ctx, projectID)
}
func (m *mockMemberRepo) Create(ctx context.Context, member *model.ProjectMember) error {
	return m.createFn(ctx, member)
}
func (m *mockMemberRepo) Delete(ctx context.Context, projectID, memberID int64) error {
	return m.deleteFn(ctx, projectID, memberID)
}
func (m *mockMemberRepo) Accept(ctx context.Context, projectID, userID int64) (*model.ProjectMember, error) {
	return m.acceptFn(ctx, projectID, userID)
}

type mockBacklogRepo struct {
	listFn   func(ctx context.Context, projectID int64) ([]*model.BacklogItem, error)
	createFn func(ctx context.Context, item *model.BacklogItem) error
	updateFn func(ctx context.Context, item *model.BacklogItem) error
	deleteFn func(ctx context.Context, projectID, id int64) error
}

func (m *mockBacklogRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.BacklogItem, error) {
	return m.listFn(ctx, projectID)
}
func (m *mockBacklogRepo) Create(ctx context.Context, item *model.BacklogItem) error {
	return m.createFn(ctx, item)
}
func (m *mockBacklogRepo) Update(ctx context.Context, item *model.BacklogItem) error {
	return m.updateFn(ctx, item)
}
func (m *mockBacklogRepo) Delete(ctx context.Context, projectID, id int64) error {
	return m.deleteFn(ctx, projectID, id)
}

// mockSprintRepo はsprintsに登録されたスプリントだけをFindByIDで返す。
type mockSprintRepo struct {
	sprints  map[int64]*model.Sprint
	createFn func(ctx context.Context, s *model.Sprint) error
	updateFn func(ctx context.Context, s *model.Sprint) error
	deleteFn func(ctx context.Context, projectID, id int64) error
}

func (m *mockSprintRepo) ListByProject(context.Context, int64) ([]*model.Sprint, error) {
	return []*model.Sprint{}, nil
}
func (m *mockSprintRepo) FindByID(_ context.Context, id int64) (*model.Sprint, error) {
	return m.sprints[id], nil
}
func (m *mockSprintRepo) Create(ctx context.Context, s *model.Sprint) error {
	return m.createFn(ctx, s)
}
func (m *mockSprintRepo) Update(ctx context.Context, s *model.Sprint) error {
	return m.updateFn(ctx, s)
}
func (m *mockSprintRepo) Delete(ctx context.Context, projectID, id int64) error {
	return m.deleteFn(ctx, projectID, id)
}

type mockSprintItemRepo struct {
	listFn         func(ctx context.Context, sprintID int64) ([]*model.SprintBacklogItem, error)
	createFn       func(ctx context.Context, item *model.SprintBacklogItem) error
	updateStatusFn func(ctx context.Context, sprintID, id int64, status model.ItemStatus) (*model.SprintBacklogItem, error)
	deleteFn       func(ctx context.Context, sprintID, id int64) error
}

func (m *mockSprintItemRepo) ListBySprint(ctx context.Context, sprintID int64) ([]*model.SprintBacklogItem, error) {
	return m.listFn(ctx, sprintID)
}
func (m *mockSprintItemRepo) Create(ctx context.Context, item *model.SprintBacklogItem) error {
	return m.createFn(ctx, item)
}
func (m *mockSprintItemRepo) UpdateStatus(ctx context.Context, sprintID, id int64, status model.ItemStatus) (*model.SprintBacklogItem, error) {
	return m.updateStatusFn(ctx, sprintID, id, status)
}
func (m *mockSprintItemRepo) Delete(ctx context.Context, sprintID, id int64) error {
	return m.deleteFn(ctx, sprintID, id)
}

type mockParkingLotRepo struct {
	createFn func(ctx context.Context, item *model.ParkingLotItem) error
	deleteFn func(ctx context.Context, projectID, id int64) error
}

func (m *mockParkingLotRepo) ListByProject(context.Context, int64) ([]*model.ParkingLotItem, error) {
	return []*model.ParkingLotItem{}, nil
}
func (m *mockParkingLotRepo) Create(ctx context.Context, item *model.ParkingLotItem) error {
	return m.createFn(ctx, item)
}
func (m *mockParkingLotRepo) Delete(ctx context.Context, projectID, id int64) error {
	return m.deleteFn(ctx, projectID, id)
}

type mockMetricRepo struct {
	listFn   func(ctx context.Context, sprintID int64) ([]*model.SprintMetric, error)
	createFn func(ctx context.Context, metric *model.SprintMetric) error
	deleteFn func(ctx context.Context, sprintID, id int64) error
}

func (m *mockMetricRepo) ListBySprint(ctx context.Context, sprintID int64) ([]*model.SprintMetric, error) {
	return m.listFn(ctx, sprintID)
}
func (m *mockMetricRepo) Create(ctx context.Context, metric *model.SprintMetric) error {
	return m.createFn(ctx, metric)
}
func (m *mockMetricRepo) Delete(ctx context.Context, sprintID, id int64) error {
	return m.deleteFn(ctx, sprintID, id)
}

var (
	_ repository.BacklogRepository    = (*mockBacklogRepo)(nil)
	_ repository.SprintRepository     = (*mockSprintRepo)(nil)
	_ repository.SprintItemRepository = (*mockSprintItemRepo)(nil)
	_ repository.ParkingLotRepository = (*mockParkingLotRepo)(nil)
	_ repository.MetricRepository     = (*mockMetricRepo)(nil)
)

// testEnv はテスト用のServiceとモック一式。
type testEnv struct {
	svc         *Service
	guard       *fakeGuard
	members     *mockMemberRepo
	backlog     *mockBacklogRepo
	sprints     *mockSprintRepo
	sprintItems *mockSprintItemRepo
	parkingLot  *mockParkingLotRepo
	metrics     *mockMetricRepo
}

// newTestEnv はプロジェクト10にスプリント20を持つ環境を作る。
func newTestEnv() *testEnv {
	env := &testEnv{
		guard:       &fakeGuard{owners: map[int64]bool{ownerID: true}, members: map[int64]bool{memberID: true}},
		members:     &mockMemberRepo{},
		backlog:     &mockBacklogRepo{},
		sprints:     &mockSprintRepo{sprints: map[int64]*model.Sprint{20: {ID: 20, ProjectID: 10}}},
		sprintItems: &mockSprintItemRepo{},
		parkingLot:  &mockParkingLotRepo{},
		metrics:     &mockMetricRepo{},
	}
	env.svc = NewService(env.guard, Repositories{
		Projects:    &mockProjectRepo{},
		Members:     env.members,
		Backlog:     env.backlog,
		Sprints:     env.sprints,
		SprintItems: env.sprintItems,
		ParkingLot:  env.parkingLot,
		Metrics:     env.metrics,
	}, security.NewTextSanitizer())
	env.svc.now = func() time.Time { return time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC) }
	return env
}

func codeOf(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func intPtr(v int) *int { return &v }
