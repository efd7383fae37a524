package backend

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/queue"
)

// AnnouncementInput drafts an announcement, optionally publishing it at once.
type AnnouncementInput struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Content     string         `json:"content" validate:"required"`
	Priority    model.Priority `json:"priority" validate:"omitempty,oneof=urgent high normal"`
	PublishDate *time.Time     `json:"publishDate"`
	ExpiryDate  *time.Time     `json:"expiryDate"`
	IsFeatured  bool           `json:"isFeatured"`
	Publish     bool           `json:"publish"`
}

// AnnouncementView is an announcement as seen by one user.
type AnnouncementView struct {
	model.Announcement
	IsRead bool `json:"isRead"`
}

// Count is a bare counter result.
type Count struct {
	Count int `json:"count"`
}

// GetAllAnnouncements lists announcements; filters: priority, status, isFeatured, isArchived.
func (b *Backend) GetAllAnnouncements(ctx context.Context, p query.Params) envelope.Response[envelope.List[model.Announcement]] {
	return run(ctx, b, "GetAllAnnouncements", "Announcements retrieved successfully", func() (envelope.List[model.Announcement], error) {
		return list("announcements", announcementQuery, b.st.Announcements.All(), p)
	})
}

// GetActiveAnnouncements returns what userID can currently see: featured
// first, then by priority, then newest.
func (b *Backend) GetActiveAnnouncements(ctx context.Context, userID string) envelope.Response[[]AnnouncementView] {
	return run(ctx, b, "GetActiveAnnouncements", "Active announcements retrieved successfully", func() ([]AnnouncementView, error) {
		now := b.st.Now()
		active := b.st.Announcements.Where(func(a model.Announcement) bool { return a.ActiveAt(now) })
		slices.SortStableFunc(active, func(x, y model.Announcement) int {
			if x.IsFeatured != y.IsFeatured {
				if x.IsFeatured {
					return -1
				}
				return 1
			}
			if c := cmp.Compare(x.Priority.Rank(), y.Priority.Rank()); c != 0 {
				return c
			}
			return published(y).Compare(published(x))
		})
		out := make([]AnnouncementView, len(active))
		for i, a := range active {
			out[i] = AnnouncementView{Announcement: a, IsRead: b.st.Reads.Has(model.ReadKey(a.ID, userID))}
		}
		return out, nil
	})
}

func published(a model.Announcement) time.Time {
	if a.PublishDate != nil {
		return *a.PublishDate
	}
	return a.CreatedAt
}

// CreateAnnouncement drafts an announcement. With Publish set it goes out
// immediately and active users are notified.
func (b *Backend) CreateAnnouncement(ctx context.Context, createdBy string, in AnnouncementInput) envelope.Response[model.Announcement] {
	return run(ctx, b, "CreateAnnouncement", "Announcement created successfully", func() (model.Announcement, error) {
		in.Title = strings.TrimSpace(in.Title)
		if err := b.validate.Struct(in); err != nil {
			return model.Announcement{}, err
		}
		if in.Priority == "" {
			in.Priority = model.PriorityNormal
		}
		now := b.st.Now()
		a := model.Announcement{
			ID:          b.st.NewID(),
			Title:       in.Title,
			Content:     in.Content,
			Priority:    in.Priority,
			PublishDate: utc(in.PublishDate),
			ExpiryDate:  utc(in.ExpiryDate),
			Status:      model.StatusDraft,
			IsFeatured:  in.IsFeatured,
			CreatedBy:   optional(createdBy),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if in.Publish {
			a.Status = model.StatusPublished
			if a.PublishDate == nil {
				a.PublishDate = &now
			}
		}
		if err := b.announcements.Check(a); err != nil {
			return model.Announcement{}, err
		}
		if err := b.st.Announcements.Insert(a, nil); err != nil {
			return model.Announcement{}, err
		}
		if in.Publish {
			b.announce(ctx, a)
		}
		return a, nil
	})
}

// PublishAnnouncement makes a draft visible. A draft without a publish date
// is published now.
func (b *Backend) PublishAnnouncement(ctx context.Context, id string) envelope.Response[model.Announcement] {
	return run(ctx, b, "PublishAnnouncement", "Announcement published successfully", func() (model.Announcement, error) {
		a, err := update(b.st.Announcements, id, func(a *model.Announcement) error {
			if a.IsArchived {
				return envelope.Conflict("announcement %s is archived", a.ID)
			}
			if a.Status == model.StatusPublished {
				return envelope.Conflict("announcement %s is already published", a.ID)
			}
			now := b.st.Now()
			a.Status = model.StatusPublished
			if a.PublishDate == nil {
				a.PublishDate = &now
			}
			a.UpdatedAt = now
			return b.announcements.Check(*a)
		})
		if err != nil {
			return model.Announcement{}, err
		}
		b.announce(ctx, a)
		return a, nil
	})
}

func (b *Backend) announce(ctx context.Context, a model.Announcement) {
	b.notify(ctx, queue.Event{
		Type:       queue.AnnouncementPublished,
		RefID:      a.ID,
		Recipients: b.activeIDs(""),
		Title:      a.Title,
		Body:       string(a.Priority),
	})
}

// ArchiveAnnouncement hides an announcement from members.
func (b *Backend) ArchiveAnnouncement(ctx context.Context, id string) envelope.Response[model.Announcement] {
	return run(ctx, b, "ArchiveAnnouncement", "Announcement archived successfully", func() (model.Announcement, error) {
		return update(b.st.Announcements, id, func(a *model.Announcement) error {
			a.IsArchived = true
			a.UpdatedAt = b.st.Now()
			return nil
		})
	})
}

// SetAnnouncementFeatured pins or unpins an announcement.
func (b *Backend) SetAnnouncementFeatured(ctx context.Context, id string, featured bool) envelope.Response[model.Announcement] {
	return run(ctx, b, "SetAnnouncementFeatured", "Announcement updated successfully", func() (model.Announcement, error) {
		return update(b.st.Announcements, id, func(a *model.Announcement) error {
			a.IsFeatured = featured
			a.UpdatedAt = b.st.Now()
			return nil
		})
	})
}

// MarkAnnouncementRead records that userID read the announcement. Marking it
// again keeps the first read time.
func (b *Backend) MarkAnnouncementRead(ctx context.Context, id, userID string) envelope.Response[model.AnnouncementRead] {
	return run(ctx, b, "MarkAnnouncementRead", "Announcement marked as read", func() (model.AnnouncementRead, error) {
		if _, err := get(b.st.Announcements, id); err != nil {
			return model.AnnouncementRead{}, err
		}
		if _, err := get(b.st.Users, userID); err != nil {
			return model.AnnouncementRead{}, err
		}
		if r, err := b.st.Reads.Get(model.ReadKey(id, userID)); err == nil {
			return r, nil
		}
		r := model.AnnouncementRead{AnnouncementID: id, UserID: userID, ReadAt: b.st.Now()}
		if err := b.st.Reads.Insert(r, nil); err != nil {
			// a concurrent mark won; return it
			return b.st.Reads.Get(r.Key())
		}
		return r, nil
	})
}

// GetUnreadAnnouncementCount counts active announcements userID has not read.
func (b *Backend) GetUnreadAnnouncementCount(ctx context.Context, userID string) envelope.Response[Count] {
	return run(ctx, b, "GetUnreadAnnouncementCount", "Unread count retrieved successfully", func() (Count, error) {
		now := b.st.Now()
		var n int
		for _, a := range b.st.Announcements.Where(func(a model.Announcement) bool { return a.ActiveAt(now) }) {
			if !b.st.Reads.Has(model.ReadKey(a.ID, userID)) {
				n++
			}
		}
		return Count{Count: n}, nil
	})
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
