package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/backend"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

// bindOptional decodes a JSON body that may be absent.
func bindOptional(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ---------- Meetings ----------

func (h *Handler) ListMeetings(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetAllMeetings(c.Request.Context(), listParams(c)))
}

func (h *Handler) UpcomingMeetings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	respond(c, http.StatusOK, h.b.GetUpcomingMeetings(c.Request.Context(), limit))
}

func (h *Handler) GetMeeting(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetMeetingByID(c.Request.Context(), c.Param("id")))
}

func (h *Handler) CreateMeeting(c *gin.Context) {
	var req backend.MeetingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.b.CreateMeeting(c.Request.Context(), caller(c).UserID, req))
}

func (h *Handler) UpdateMeetingStatus(c *gin.Context) {
	var req struct {
		Status model.MeetingStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.UpdateMeetingStatus(c.Request.Context(), c.Param("id"), req.Status))
}

func (h *Handler) MeetingAttendance(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetMeetingAttendance(c.Request.Context(), c.Param("id")))
}

// RecordAttendance answers 201 for a new mark and 200 when an existing one changed.
func (h *Handler) RecordAttendance(c *gin.Context) {
	var req struct {
		ParentID string                 `json:"parentId"`
		Status   model.AttendanceStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp := h.b.RecordAttendance(c.Request.Context(), c.Param("id"), req.ParentID, req.Status, caller(c).UserID)
	status := http.StatusCreated
	if !resp.Data.Created {
		status = http.StatusOK
	}
	respond(c, status, resp)
}

func (h *Handler) MyAttendance(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetMyAttendance(c.Request.Context(), caller(c).UserID))
}

// ---------- Contributions ----------

func (h *Handler) ListContributions(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetAllContributions(c.Request.Context(), listParams(c)))
}

func (h *Handler) CreateContribution(c *gin.Context) {
	var req backend.ContributionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.b.CreateContribution(c.Request.Context(), caller(c).UserID, req))
}

func (h *Handler) VerifyContribution(c *gin.Context) {
	respond(c, http.StatusOK, h.b.VerifyContribution(c.Request.Context(), c.Param("id"), caller(c).UserID))
}

func (h *Handler) MyBalance(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetMyBalance(c.Request.Context(), caller(c).UserID))
}

// ---------- Clearance ----------

func (h *Handler) ListClearances(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetAllClearanceRequests(c.Request.Context(), listParams(c)))
}

func (h *Handler) MyClearance(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetMyClearanceStatus(c.Request.Context(), caller(c).UserID))
}

func (h *Handler) RequestClearance(c *gin.Context) {
	var req struct {
		StudentID *string `json:"studentId"`
		Purpose   string  `json:"purpose"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.b.RequestClearance(c.Request.Context(), caller(c).UserID, req.StudentID, req.Purpose))
}

type reviewRequest struct {
	Remarks string `json:"remarks"`
}

func (h *Handler) ApproveClearance(c *gin.Context) {
	var req reviewRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.ApproveClearance(c.Request.Context(), c.Param("id"), caller(c).UserID, req.Remarks))
}

func (h *Handler) RejectClearance(c *gin.Context) {
	var req reviewRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.RejectClearance(c.Request.Context(), c.Param("id"), caller(c).UserID, req.Remarks))
}

func (h *Handler) ClearanceCertificate(c *gin.Context) {
	attachment(c, h.b.GenerateClearanceCertificate(c.Request.Context(), c.Param("id")))
}

// ---------- Announcements ----------

func (h *Handler) ListAnnouncements(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetAllAnnouncements(c.Request.Context(), listParams(c)))
}

func (h *Handler) ActiveAnnouncements(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetActiveAnnouncements(c.Request.Context(), caller(c).UserID))
}

func (h *Handler) UnreadAnnouncements(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetUnreadAnnouncementCount(c.Request.Context(), caller(c).UserID))
}

func (h *Handler) MarkAnnouncementRead(c *gin.Context) {
	respond(c, http.StatusOK, h.b.MarkAnnouncementRead(c.Request.Context(), c.Param("id"), caller(c).UserID))
}

func (h *Handler) CreateAnnouncement(c *gin.Context) {
	var req backend.AnnouncementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.b.CreateAnnouncement(c.Request.Context(), caller(c).UserID, req))
}

func (h *Handler) PublishAnnouncement(c *gin.Context) {
	respond(c, http.StatusOK, h.b.PublishAnnouncement(c.Request.Context(), c.Param("id")))
}

func (h *Handler) ArchiveAnnouncement(c *gin.Context) {
	respond(c, http.StatusOK, h.b.ArchiveAnnouncement(c.Request.Context(), c.Param("id")))
}

func (h *Handler) FeatureAnnouncement(c *gin.Context) {
	var req struct {
		IsFeatured *bool `json:"isFeatured" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.SetAnnouncementFeatured(c.Request.Context(), c.Param("id"), *req.IsFeatured))
}

// ---------- Projects ----------

func (h *Handler) ListProjects(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetAllProjects(c.Request.Context(), listParams(c)))
}

func (h *Handler) GetProject(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetProjectByID(c.Request.Context(), c.Param("id")))
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req backend.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.b.CreateProject(c.Request.Context(), caller(c).UserID, req))
}

func (h *Handler) UpdateProjectStatus(c *gin.Context) {
	var req struct {
		Status model.ProjectStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.UpdateProjectStatus(c.Request.Context(), c.Param("id"), req.Status))
}

func (h *Handler) JoinProject(c *gin.Context) {
	respond(c, http.StatusOK, h.b.JoinProject(c.Request.Context(), c.Param("id"), caller(c).UserID))
}

func (h *Handler) LeaveProject(c *gin.Context) {
	respond(c, http.StatusOK, h.b.LeaveProject(c.Request.Context(), c.Param("id"), caller(c).UserID))
}

// ---------- Notifications ----------

func (h *Handler) ListNotifications(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetMyNotifications(c.Request.Context(), caller(c).UserID, listParams(c)))
}

func (h *Handler) UnreadNotifications(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetUnreadNotificationCount(c.Request.Context(), caller(c).UserID))
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	respond(c, http.StatusOK, h.b.MarkNotificationRead(c.Request.Context(), c.Param("id"), caller(c).UserID))
}

// SendReminder always answers 501: there is no mail server behind the simulation.
func (h *Handler) SendReminder(c *gin.Context) {
	var req struct {
		ParentID string `json:"parentId"`
		Subject  string `json:"subject"`
	}
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.SendEmailReminder(c.Request.Context(), req.ParentID, req.Subject))
}

// ---------- Documents ----------

func (h *Handler) ListDocuments(c *gin.Context) {
	respond(c, http.StatusOK, h.b.ListMyDocuments(c.Request.Context(), caller(c).UserID))
}

// UploadDocument expects a multipart form with a "file" field.
func (h *Handler) UploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, backend.MaxDocumentSize+1<<20)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, errors.New("file field required"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Warn("read upload failed", zap.Error(err))
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.b.UploadDocument(c.Request.Context(), caller(c).UserID, header.Filename, header.Header.Get("Content-Type"), data))
}

// DownloadDocument streams a document to its owner or to an admin.
func (h *Handler) DownloadDocument(c *gin.Context) {
	attachment(c, h.b.DownloadDocument(c.Request.Context(), c.Param("id"), caller(c).UserID))
}

// ---------- Reports ----------

func (h *Handler) AttendanceReport(c *gin.Context) {
	attachment(c, h.b.ExportAttendanceReport(c.Request.Context()))
}

func (h *Handler) ContributionReport(c *gin.Context) {
	attachment(c, h.b.ExportContributionReport(c.Request.Context()))
}

func (h *Handler) Dashboard(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetDashboardStats(c.Request.Context()))
}
