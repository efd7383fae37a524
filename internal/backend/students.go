package backend

import (
	"context"
	"strings"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
)

// StudentInput enrolls a student.
type StudentInput struct {
	StudentID  string              `json:"studentId" validate:"required,max=30"`
	FirstName  string              `json:"firstName" validate:"required,max=100"`
	LastName   string              `json:"lastName" validate:"required,max=100"`
	ParentID   *string             `json:"parentId"`
	GradeLevel string              `json:"gradeLevel" validate:"required"`
	Section    string              `json:"section"`
	Status     model.StudentStatus `json:"status" validate:"omitempty,oneof=active inactive graduated transferred"`
}

// StudentUpdate changes the supplied fields of a student.
type StudentUpdate struct {
	FirstName  *string              `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName   *string              `json:"lastName" validate:"omitempty,min=1,max=100"`
	GradeLevel *string              `json:"gradeLevel" validate:"omitempty,min=1"`
	Section    *string              `json:"section"`
	Status     *model.StudentStatus `json:"status" validate:"omitempty,oneof=active inactive graduated transferred"`
}

// GetAllStudents lists students; filters: gradeLevel, section, status, parentId.
func (b *Backend) GetAllStudents(ctx context.Context, p query.Params) envelope.Response[envelope.List[model.Student]] {
	return run(ctx, b, "GetAllStudents", "Students retrieved successfully", func() (envelope.List[model.Student], error) {
		return list("students", studentQuery, b.st.Students.All(), p)
	})
}

// GetStudentByID returns one student.
func (b *Backend) GetStudentByID(ctx context.Context, id string) envelope.Response[model.Student] {
	return run(ctx, b, "GetStudentByID", "Student retrieved successfully", func() (model.Student, error) {
		return get(b.st.Students, id)
	})
}

// CreateStudent enrolls a student. The school-issued number is unique and the
// parent, when given, must be an existing parent account.
func (b *Backend) CreateStudent(ctx context.Context, in StudentInput) envelope.Response[model.Student] {
	return run(ctx, b, "CreateStudent", "Student created successfully", func() (model.Student, error) {
		in.StudentID = strings.TrimSpace(in.StudentID)
		if err := b.validate.Struct(in); err != nil {
			return model.Student{}, err
		}
		if in.Status == "" {
			in.Status = model.StudentActive
		}
		now := b.st.Now()
		s := model.Student{
			ID:         b.st.NewID(),
			StudentID:  in.StudentID,
			FirstName:  strings.TrimSpace(in.FirstName),
			LastName:   strings.TrimSpace(in.LastName),
			ParentID:   optional(deref(in.ParentID)),
			GradeLevel: in.GradeLevel,
			Section:    in.Section,
			Status:     in.Status,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := b.students.Check(s); err != nil {
			return model.Student{}, err
		}
		err := b.st.Students.Insert(s, func(existing model.Student) bool {
			return strings.EqualFold(existing.StudentID, s.StudentID)
		})
		if err != nil {
			return model.Student{}, envelope.Conflict("Student with ID %s already exists", s.StudentID)
		}
		return s, nil
	})
}

// UpdateStudent changes profile fields.
func (b *Backend) UpdateStudent(ctx context.Context, id string, in StudentUpdate) envelope.Response[model.Student] {
	return run(ctx, b, "UpdateStudent", "Student updated successfully", func() (model.Student, error) {
		if err := b.validate.Struct(in); err != nil {
			return model.Student{}, err
		}
		return update(b.st.Students, id, func(s *model.Student) error {
			if in.FirstName != nil {
				s.FirstName = strings.TrimSpace(*in.FirstName)
			}
			if in.LastName != nil {
				s.LastName = strings.TrimSpace(*in.LastName)
			}
			if in.GradeLevel != nil {
				s.GradeLevel = *in.GradeLevel
			}
			if in.Section != nil {
				s.Section = *in.Section
			}
			if in.Status != nil {
				s.Status = *in.Status
			}
			s.UpdatedAt = b.st.Now()
			return nil
		})
	})
}

// LinkStudentToParent sets the student's parent. An empty parentID unlinks.
func (b *Backend) LinkStudentToParent(ctx context.Context, studentID, parentID string) envelope.Response[model.Student] {
	return run(ctx, b, "LinkStudentToParent", "Student linked successfully", func() (model.Student, error) {
		return update(b.st.Students, studentID, func(s *model.Student) error {
			s.ParentID = optional(parentID)
			if err := b.students.Check(*s); err != nil {
				return err
			}
			s.UpdatedAt = b.st.Now()
			return nil
		})
	})
}

// GetMyChildren lists the students linked to parentID.
func (b *Backend) GetMyChildren(ctx context.Context, parentID string) envelope.Response[[]model.Student] {
	return run(ctx, b, "GetMyChildren", "Children retrieved successfully", func() ([]model.Student, error) {
		if _, err := get(b.st.Users, parentID); err != nil {
			return nil, err
		}
		return b.st.ChildrenOf(parentID), nil
	})
}

// DeleteStudent marks the student inactive; attendance and balances that
// refer to the student are unaffected.
func (b *Backend) DeleteStudent(ctx context.Context, id string) envelope.Response[model.Student] {
	return run(ctx, b, "DeleteStudent", "Student deleted successfully", func() (model.Student, error) {
		return update(b.st.Students, id, func(s *model.Student) error {
			s.Status = model.StudentInactive
			s.UpdatedAt = b.st.Now()
			return nil
		})
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
