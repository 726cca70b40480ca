package handler

import (
	"time"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/scrum"
)

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Theme     string    `json:"theme"`
	CreatedAt time.Time `json:"createdAt"`
}

// sessionResponse は登録・ログイン成功時のレスポンス。
type sessionResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type projectResponse struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"userId"`
	Name        string           `json:"name"`
	Methodology string           `json:"methodology"`
	Stage       string           `json:"stage"`
	Domain      string           `json:"domain"`
	Templates   []model.Template `json:"templates"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type memberResponse struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	UserID    int64     `json:"userId"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

type backlogItemResponse struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"projectId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	StoryPoints *int      `json:"storyPoints"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// sprintResponse の日付はYYYY-MM-DD形式で返す。
type sprintResponse struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Name      string    `json:"name"`
	Goal      string    `json:"goal"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type sprintItemResponse struct {
	ID            int64     `json:"id"`
	SprintID      int64     `json:"sprintId"`
	BacklogItemID int64     `json:"backlogItemId"`
	Status        string    `json:"status"`
	Title         string    `json:"title"`
	Priority      int       `json:"priority"`
	StoryPoints   *int      `json:"storyPoints"`
	CreatedAt     time.Time `json:"createdAt"`
}

type parkingLotItemResponse struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Content   string    `json:"content"`
	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type metricResponse struct {
	ID              int64     `json:"id"`
	SprintID        int64     `json:"sprintId"`
	Date            string    `json:"date"`
	RemainingPoints int       `json:"remainingPoints"`
	CompletedPoints int       `json:"completedPoints"`
	CreatedAt       time.Time `json:"createdAt"`
}

// burndownPointResponse のActualは実績がない日はnullになる。
type burndownPointResponse struct {
	Date   string  `json:"date"`
	Ideal  float64 `json:"ideal"`
	Actual *int    `json:"actual"`
}

// mapAll はスライスの各要素を変換する。空の場合もnullではなく[]を返す。
func mapAll[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Theme:     string(u.Theme),
		CreatedAt: u.CreatedAt,
	}
}

func toProjectResponse(p *model.Project) projectResponse {
	templates := p.Templates
	if templates == nil {
		templates = []model.Template{}
	}
	return projectResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Methodology: string(p.Methodology),
		Stage:       string(p.Stage),
		Domain:      p.Domain,
		Templates:   templates,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toMemberResponse(m *model.ProjectMember) memberResponse {
	return memberResponse{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		UserID:    m.UserID,
		Role:      string(m.Role),
		Status:    string(m.Status),
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		CreatedAt: m.CreatedAt,
	}
}

func toBacklogItemResponse(b *model.BacklogItem) backlogItemResponse {
	return backlogItemResponse{
		ID:          b.ID,
		ProjectID:   b.ProjectID,
		Title:       b.Title,
		Description: b.Description,
		Type:        string(b.Type),
		Status:      string(b.Status),
		Priority:    b.Priority,
		StoryPoints: b.StoryPoints,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func toSprintResponse(s *model.Sprint) sprintResponse {
	return sprintResponse{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Name:      s.Name,
		Goal:      s.Goal,
		StartDate: s.StartDate.Format(scrum.DateLayout),
		EndDate:   s.EndDate.Format(scrum.DateLayout),
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toSprintItemResponse(i *model.SprintBacklogItem) sprintItemResponse {
	return sprintItemResponse{
		ID:            i.ID,
		SprintID:      i.SprintID,
		BacklogItemID: i.BacklogItemID,
		Status:        string(i.Status),
		Title:         i.Title,
		Priority:      i.Priority,
		StoryPoints:   i.StoryPoints,
		CreatedAt:     i.CreatedAt,
	}
}

func toParkingLotItemResponse(p *model.ParkingLotItem) parkingLotItemResponse {
	return parkingLotItemResponse{
		ID:        p.ID,
		ProjectID: p.ProjectID,
		Content:   p.Content,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}

func toMetricResponse(m *model.SprintMetric) metricResponse {
	return metricResponse{
		ID:              m.ID,
		SprintID:        m.SprintID,
		Date:            m.Date.Format(scrum.DateLayout),
		RemainingPoints: m.RemainingPoints,
		CompletedPoints: m.CompletedPoints,
		CreatedAt:       m.CreatedAt,
	}
}

func toBurndownPointResponse(p model.BurndownPoint) burndownPointResponse {
	return burndownPointResponse{
		Date:   p.Date.Format(scrum.DateLayout),
		Ideal:  p.Ideal,
		Actual: p.Actual,
	}
}
