package backend

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

const csvContentType = "text/csv; charset=utf-8"

// ExportAttendanceReport renders every attendance mark as CSV, ordered by
// meeting date. Marks whose meeting no longer exists are left out.
func (b *Backend) ExportAttendanceReport(ctx context.Context) envelope.Response[envelope.Binary] {
	return run(ctx, b, "ExportAttendanceReport", "Attendance report generated successfully", func() (envelope.Binary, error) {
		meetings := b.st.Meetings.All()
		names := b.userNames()

		rows := [][]string{{"meeting_id", "meeting_title", "meeting_date", "parent_id", "parent_name", "status", "is_present", "recorded_at"}}
		for _, m := range sortedByDate(meetings) {
			for _, a := range b.st.Attendance.Where(func(a model.Attendance) bool { return a.MeetingID == m.ID }) {
				rows = append(rows, []string{
					m.ID,
					m.Title,
					m.Date.Format(time.RFC3339),
					a.ParentID,
					names[a.ParentID],
					string(a.Status),
					strconv.FormatBool(a.IsPresent),
					a.RecordedAt.Format(time.RFC3339),
				})
			}
		}
		return csvBinary(fmt.Sprintf("attendance-%s.csv", b.st.Now().Format("20060102")), rows)
	})
}

// ExportContributionReport renders every contribution as CSV in insertion order.
func (b *Backend) ExportContributionReport(ctx context.Context) envelope.Response[envelope.Binary] {
	return run(ctx, b, "ExportContributionReport", "Contribution report generated successfully", func() (envelope.Binary, error) {
		names := b.userNames()
		rows := [][]string{{"id", "parent_id", "parent_name", "amount", "status", "is_verified", "payment_method", "reference", "created_at", "verified_at"}}
		for _, c := range b.st.Contributions.All() {
			verifiedAt := ""
			if c.VerifiedAt != nil {
				verifiedAt = c.VerifiedAt.Format(time.RFC3339)
			}
			rows = append(rows, []string{
				c.ID,
				c.ParentID,
				names[c.ParentID],
				strconv.FormatFloat(c.Amount, 'f', 2, 64),
				string(c.Status),
				strconv.FormatBool(c.IsVerified),
				c.PaymentMethod,
				c.Reference,
				c.CreatedAt.Format(time.RFC3339),
				verifiedAt,
			})
		}
		return csvBinary(fmt.Sprintf("contributions-%s.csv", b.st.Now().Format("20060102")), rows)
	})
}

func (b *Backend) userNames() map[string]string {
	users := b.st.Users.All()
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.ID] = u.FullName()
	}
	return out
}

func sortedByDate(ms []model.Meeting) []model.Meeting {
	slices.SortStableFunc(ms, func(x, y model.Meeting) int { return x.Date.Compare(y.Date) })
	return ms
}

func csvBinary(name string, rows [][]string) (envelope.Binary, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return envelope.Binary{}, fmt.Errorf("write csv: %w", err)
	}
	return envelope.Binary{Name: name, ContentType: csvContentType, Data: buf.Bytes()}, nil
}
