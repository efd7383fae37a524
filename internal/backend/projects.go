package backend

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
)

// ProjectInput proposes a project.
type ProjectInput struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	Budget      float64             `json:"budget" validate:"gte=0"`
	StartDate   *time.Time          `json:"startDate"`
	EndDate     *time.Time          `json:"endDate"`
	Status      model.ProjectStatus `json:"status" validate:"omitempty,oneof=planning active in_progress completed"`
}

// GetAllProjects lists projects; filters: status.
func (b *Backend) GetAllProjects(ctx context.Context, p query.Params) envelope.Response[envelope.List[model.Project]] {
	return run(ctx, b, "GetAllProjects", "Projects retrieved successfully", func() (envelope.List[model.Project], error) {
		return list("projects", projectQuery, b.st.Projects.All(), p)
	})
}

// GetProjectByID returns one project.
func (b *Backend) GetProjectByID(ctx context.Context, id string) envelope.Response[model.Project] {
	return run(ctx, b, "GetProjectByID", "Project retrieved successfully", func() (model.Project, error) {
		return get(b.st.Projects, id)
	})
}

// CreateProject adds a project, in planning unless a status is given.
func (b *Backend) CreateProject(ctx context.Context, createdBy string, in ProjectInput) envelope.Response[model.Project] {
	return run(ctx, b, "CreateProject", "Project created successfully", func() (model.Project, error) {
		in.Title = strings.TrimSpace(in.Title)
		if err := b.validate.Struct(in); err != nil {
			return model.Project{}, err
		}
		if in.Status == "" {
			in.Status = model.ProjectPlanning
		}
		now := b.st.Now()
		p := model.Project{
			ID:           b.st.NewID(),
			Title:        in.Title,
			Description:  in.Description,
			Status:       in.Status,
			Budget:       in.Budget,
			StartDate:    utc(in.StartDate),
			EndDate:      utc(in.EndDate),
			Participants: []string{},
			CreatedBy:    optional(createdBy),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := b.projects.Check(p); err != nil {
			return model.Project{}, err
		}
		if err := b.st.Projects.Insert(p, nil); err != nil {
			return model.Project{}, err
		}
		return p, nil
	})
}

// UpdateProjectStatus changes the lifecycle state. Completed projects stay completed.
func (b *Backend) UpdateProjectStatus(ctx context.Context, id string, status model.ProjectStatus) envelope.Response[model.Project] {
	return run(ctx, b, "UpdateProjectStatus", "Project status updated successfully", func() (model.Project, error) {
		if !status.Valid() {
			return model.Project{}, envelope.Invalid("unknown project status", map[string]string{"status": "oneof"})
		}
		return update(b.st.Projects, id, func(p *model.Project) error {
			if p.Status == model.ProjectCompleted && status != model.ProjectCompleted {
				return envelope.Conflict("project %s is already completed", p.Title)
			}
			p.Status = status
			p.UpdatedAt = b.st.Now()
			return nil
		})
	})
}

// JoinProject adds the parent to an unfinished project.
func (b *Backend) JoinProject(ctx context.Context, projectID, parentID string) envelope.Response[model.Project] {
	return run(ctx, b, "JoinProject", "Joined project successfully", func() (model.Project, error) {
		if _, err := b.parent(parentID); err != nil {
			return model.Project{}, err
		}
		return update(b.st.Projects, projectID, func(p *model.Project) error {
			if p.Status == model.ProjectCompleted {
				return envelope.Conflict("project %s is already completed", p.Title)
			}
			if p.HasParticipant(parentID) {
				return envelope.Conflict("already a participant of %s", p.Title)
			}
			p.Participants = append(p.Participants, parentID)
			p.UpdatedAt = b.st.Now()
			return b.projects.Check(*p)
		})
	})
}

// LeaveProject removes the parent from a project.
func (b *Backend) LeaveProject(ctx context.Context, projectID, parentID string) envelope.Response[model.Project] {
	return run(ctx, b, "LeaveProject", "Left project successfully", func() (model.Project, error) {
		return update(b.st.Projects, projectID, func(p *model.Project) error {
			if !p.HasParticipant(parentID) {
				return envelope.Conflict("not a participant of %s", p.Title)
			}
			p.Participants = slices.DeleteFunc(p.Participants, func(id string) bool { return id == parentID })
			p.UpdatedAt = b.st.Now()
			return nil
		})
	})
}
