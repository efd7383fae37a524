package backend

import (
	"context"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/rules"
)

// GetMyNotifications pages through userID's notifications, newest first;
// filters: kind, isRead.
func (b *Backend) GetMyNotifications(ctx context.Context, userID string, p query.Params) envelope.Response[envelope.List[model.Notification]] {
	return run(ctx, b, "GetMyNotifications", "Notifications retrieved successfully", func() (envelope.List[model.Notification], error) {
		mine := b.st.Notifications.Where(func(n model.Notification) bool { return n.UserID == userID })
		return list("notifications", notificationQuery, mine, p)
	})
}

// MarkNotificationRead marks one of userID's notifications as read. Another
// user's notification is reported as missing.
func (b *Backend) MarkNotificationRead(ctx context.Context, id, userID string) envelope.Response[model.Notification] {
	return run(ctx, b, "MarkNotificationRead", "Notification marked as read", func() (model.Notification, error) {
		return update(b.st.Notifications, id, func(n *model.Notification) error {
			if n.UserID != userID {
				return envelope.NotFound(b.st.Notifications.Name(), id)
			}
			if n.ReadAt == nil {
				n.ReadAt = ptr(b.st.Now())
			}
			return nil
		})
	})
}

// GetUnreadNotificationCount counts userID's unread notifications.
func (b *Backend) GetUnreadNotificationCount(ctx context.Context, userID string) envelope.Response[Count] {
	return run(ctx, b, "GetUnreadNotificationCount", "Unread count retrieved successfully", func() (Count, error) {
		unread := b.st.Notifications.Where(func(n model.Notification) bool { return n.UserID == userID && !n.IsRead() })
		return Count{Count: len(unread)}, nil
	})
}

// GetDashboardStats reduces the current collections into the admin overview.
func (b *Backend) GetDashboardStats(ctx context.Context) envelope.Response[rules.DashboardStats] {
	return run(ctx, b, "GetDashboardStats", "Dashboard statistics retrieved successfully", func() (rules.DashboardStats, error) {
		return rules.Dashboard(rules.Snapshot{
			Users:         b.st.Users.All(),
			Students:      b.st.Students.All(),
			Meetings:      b.st.Meetings.All(),
			Contributions: b.st.Contributions.All(),
			Announcements: b.st.Announcements.All(),
			Projects:      b.st.Projects.All(),
			Clearances:    b.st.Clearances.All(),
		}, b.st.Now()), nil
	})
}

// SendEmailReminder has no outbound mail server in simulation mode and
// always fails with an unsupported error.
func (b *Backend) SendEmailReminder(ctx context.Context, parentID, subject string) envelope.Response[struct{}] {
	return run(ctx, b, "SendEmailReminder", "", func() (struct{}, error) {
		return struct{}{}, envelope.Unsupported("SendEmailReminder")
	})
}
