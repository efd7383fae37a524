package backend

import (
	"time"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
)

var userQuery = query.Descriptor[model.User]{
	Fields: []query.Field[model.User]{
		query.Text("id", func(u model.User) string { return u.ID }),
		query.Text("role", func(u model.User) string { return string(u.Role) }),
		query.Flag("isActive", func(u model.User) bool { return u.IsActive }),
		query.Text("email", func(u model.User) string { return u.Email }),
		query.Text("firstName", func(u model.User) string { return u.FirstName }),
		query.Text("lastName", func(u model.User) string { return u.LastName }),
		query.OptionalText("phone", func(u model.User) *string { return u.Phone }),
		query.Time("createdAt", func(u model.User) time.Time { return u.CreatedAt }),
	},
	Searchable:   []string{"firstName", "lastName", "email", "phone"},
	DefaultSort:  "createdAt",
	DefaultOrder: query.Desc,
}

var studentQuery = query.Descriptor[model.Student]{
	Fields: []query.Field[model.Student]{
		query.Text("id", func(s model.Student) string { return s.ID }),
		query.Text("studentId", func(s model.Student) string { return s.StudentID }),
		query.Text("firstName", func(s model.Student) string { return s.FirstName }),
		query.Text("lastName", func(s model.Student) string { return s.LastName }),
		query.OptionalText("parentId", func(s model.Student) *string { return s.ParentID }),
		query.Text("gradeLevel", func(s model.Student) string { return s.GradeLevel }),
		query.Text("section", func(s model.Student) string { return s.Section }),
		query.Text("status", func(s model.Student) string { return string(s.Status) }),
		query.Time("createdAt", func(s model.Student) time.Time { return s.CreatedAt }),
	},
	Searchable:   []string{"firstName", "lastName", "studentId"},
	DefaultSort:  "lastName",
	DefaultOrder: query.Asc,
}

var meetingQuery = query.Descriptor[model.Meeting]{
	Fields: []query.Field[model.Meeting]{
		query.Text("id", func(m model.Meeting) string { return m.ID }),
		query.Text("title", func(m model.Meeting) string { return m.Title }),
		query.Text("description", func(m model.Meeting) string { return m.Description }),
		query.Text("venue", func(m model.Meeting) string { return m.Venue }),
		query.Text("status", func(m model.Meeting) string { return string(m.Status) }),
		query.Time("date", func(m model.Meeting) time.Time { return m.Date }),
		query.Time("createdAt", func(m model.Meeting) time.Time { return m.CreatedAt }),
	},
	Searchable:   []string{"title", "description", "venue"},
	DefaultSort:  "date",
	DefaultOrder: query.Desc,
}

var contributionQuery = query.Descriptor[model.Contribution]{
	Fields: []query.Field[model.Contribution]{
		query.Text("id", func(c model.Contribution) string { return c.ID }),
		query.Text("parentId", func(c model.Contribution) string { return c.ParentID }),
		query.Text("status", func(c model.Contribution) string { return string(c.Status) }),
		query.Flag("isVerified", func(c model.Contribution) bool { return c.IsVerified }),
		query.Text("paymentMethod", func(c model.Contribution) string { return c.PaymentMethod }),
		query.Text("description", func(c model.Contribution) string { return c.Description }),
		query.Text("reference", func(c model.Contribution) string { return c.Reference }),
		query.Number("amount", func(c model.Contribution) float64 { return c.Amount }),
		query.Time("createdAt", func(c model.Contribution) time.Time { return c.CreatedAt }),
	},
	Searchable:   []string{"description", "reference", "paymentMethod"},
	DefaultSort:  "createdAt",
	DefaultOrder: query.Desc,
}

var announcementQuery = query.Descriptor[model.Announcement]{
	Fields: []query.Field[model.Announcement]{
		query.Text("id", func(a model.Announcement) string { return a.ID }),
		query.Text("title", func(a model.Announcement) string { return a.Title }),
		query.Text("content", func(a model.Announcement) string { return a.Content }),
		query.Text("priority", func(a model.Announcement) string { return string(a.Priority) }),
		query.Text("status", func(a model.Announcement) string { return string(a.Status) }),
		query.Flag("isFeatured", func(a model.Announcement) bool { return a.IsFeatured }),
		query.Flag("isArchived", func(a model.Announcement) bool { return a.IsArchived }),
		query.OptionalTime("publishDate", func(a model.Announcement) *time.Time { return a.PublishDate }),
		query.OptionalTime("expiryDate", func(a model.Announcement) *time.Time { return a.ExpiryDate }),
		query.Time("createdAt", func(a model.Announcement) time.Time { return a.CreatedAt }),
	},
	Searchable:   []string{"title", "content"},
	DefaultSort:  "publishDate",
	DefaultOrder: query.Desc,
}

var projectQuery = query.Descriptor[model.Project]{
	Fields: []query.Field[model.Project]{
		query.Text("id", func(p model.Project) string { return p.ID }),
		query.Text("title", func(p model.Project) string { return p.Title }),
		query.Text("description", func(p model.Project) string { return p.Description }),
		query.Text("status", func(p model.Project) string { return string(p.Status) }),
		query.Number("budget", func(p model.Project) float64 { return p.Budget }),
		query.OptionalTime("startDate", func(p model.Project) *time.Time { return p.StartDate }),
		query.OptionalTime("endDate", func(p model.Project) *time.Time { return p.EndDate }),
		query.Time("createdAt", func(p model.Project) time.Time { return p.CreatedAt }),
	},
	Searchable:   []string{"title", "description"},
	DefaultSort:  "createdAt",
	DefaultOrder: query.Desc,
}

var clearanceQuery = query.Descriptor[model.ClearanceRequest]{
	Fields: []query.Field[model.ClearanceRequest]{
		query.Text("id", func(c model.ClearanceRequest) string { return c.ID }),
		query.Text("parentId", func(c model.ClearanceRequest) string { return c.ParentID }),
		query.OptionalText("studentId", func(c model.ClearanceRequest) *string { return c.StudentID }),
		query.Text("status", func(c model.ClearanceRequest) string { return string(c.Status) }),
		query.Text("purpose", func(c model.ClearanceRequest) string { return c.Purpose }),
		query.OptionalText("remarks", func(c model.ClearanceRequest) *string { return c.Remarks }),
		query.OptionalTime("reviewedAt", func(c model.ClearanceRequest) *time.Time { return c.ReviewedAt }),
		query.Time("createdAt", func(c model.ClearanceRequest) time.Time { return c.CreatedAt }),
	},
	Searchable:   []string{"purpose", "remarks"},
	DefaultSort:  "createdAt",
	DefaultOrder: query.Desc,
}

var notificationQuery = query.Descriptor[model.Notification]{
	Fields: []query.Field[model.Notification]{
		query.Text("kind", func(n model.Notification) string { return n.Kind }),
		query.Flag("isRead", model.Notification.IsRead),
		query.Text("title", func(n model.Notification) string { return n.Title }),
		query.Text("body", func(n model.Notification) string { return n.Body }),
		query.Time("createdAt", func(n model.Notification) time.Time { return n.CreatedAt }),
	},
	Searchable:   []string{"title", "body"},
	DefaultSort:  "createdAt",
	DefaultOrder: query.Desc,
}
