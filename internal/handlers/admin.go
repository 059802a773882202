package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/models"
	"clinic-queue-server/internal/queue"
	"clinic-queue-server/internal/utils"
)

// AdminHandler handles admin oversight: doctor onboarding, appointment
// supervision and account blocking.
type AdminHandler struct {
	DB       *gorm.DB
	Queue    *queue.Service
	Notifier events.Notifier
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *gorm.DB, queueService *queue.Service, notifier events.Notifier) *AdminHandler {
	return &AdminHandler{DB: db, Queue: queueService, Notifier: notifier}
}

// GetDoctors lists doctor profiles, optionally filtered by ?status=.
func (h *AdminHandler) GetDoctors(c *gin.Context) {
	query := h.DB.Preload("User")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var doctors []models.Doctor
	if err := query.Order("created_at desc").Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}

// ReviewDoctorRequest represents the approve/reject decision body.
type ReviewDoctorRequest struct {
	Action string `json:"action" binding:"required,oneof=APPROVE REJECT"`
}

// ReviewDoctor approves or rejects a pending doctor profile and notifies the
// doctor of the outcome.
func (h *AdminHandler) ReviewDoctor(c *gin.Context) {
	var req ReviewDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	newStatus := models.DoctorRejected
	eventType := events.DoctorRejected
	if req.Action == "APPROVE" {
		newStatus = models.DoctorApproved
		eventType = events.DoctorApproved
	}

	var doctor models.Doctor
	if err := h.DB.Preload("User").First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	if doctor.Status != models.DoctorPending {
		utils.Conflict(c, "Doctor profile has already been reviewed")
		return
	}

	res := h.DB.Model(&models.Doctor{}).
		Where("id = ? AND status = ?", doctor.ID, models.DoctorPending).
		Update("status", newStatus)
	if res.Error != nil {
		utils.InternalServerError(c, "Failed to update doctor: "+res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		utils.Conflict(c, "Doctor profile has already been reviewed")
		return
	}
	doctor.Status = newStatus

	if h.Notifier != nil {
		party := events.Party{ID: doctor.UserID}
		if doctor.User != nil {
			party.Name = doctor.User.FullName()
			party.Email = doctor.User.Email
		}
		h.Notifier.NotifyEvent(c.Request.Context(), events.Event{
			Type:   eventType,
			Doctor: party,
		})
	}

	utils.Success(c, "Doctor review recorded", doctor)
}

// GetAppointments lists all appointments with optional ?date=, ?status= and
// ?doctorId= filters.
func (h *AdminHandler) GetAppointments(c *gin.Context) {
	query := h.DB.Preload("Doctor.User").Preload("Patient").Preload("WalkIn")
	if date := c.Query("date"); date != "" {
		query = query.Where("date = ?", date)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if doctorID := c.Query("doctorId"); doctorID != "" {
		query = query.Where("doctor_id = ?", doctorID)
	}

	var appointments []models.Appointment
	if err := query.Order("date desc, token_number asc").Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// ForceCancelAppointment cancels an appointment from any non-terminal state.
// The issued token is not recycled.
func (h *AdminHandler) ForceCancelAppointment(c *gin.Context) {
	appt, err := h.Queue.ForceCancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled", appt)
}

// GetUsers lists user accounts, optionally filtered by ?role=.
func (h *AdminHandler) GetUsers(c *gin.Context) {
	query := h.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order("created_at desc").Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, 0, len(users))
	for _, user := range users {
		sanitized = append(sanitized, user.Sanitize())
	}
	utils.Success(c, "Users fetched successfully", sanitized)
}

// SetUserActiveRequest represents the block/unblock body.
type SetUserActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetUserActive blocks or unblocks a user account. Blocked users cannot log in.
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	var req SetUserActiveRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	if user.Role == models.RoleAdmin {
		utils.Forbidden(c, "Admin accounts cannot be blocked")
		return
	}

	if err := h.DB.Model(&user).Update("is_active", *req.IsActive).Error; err != nil {
		utils.InternalServerError(c, "Failed to update user: "+err.Error())
		return
	}

	utils.Success(c, "User updated successfully", user.Sanitize())
}

// GetDashboard returns platform-wide counts for the admin overview.
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	today := time.Now().Format("2006-01-02")

	var patients, doctors, pendingDoctors, todayAppointments int64
	if err := h.DB.Model(&models.User{}).Where("role = ?", models.RolePatient).Count(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to count patients: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Doctor{}).Where("status = ?", models.DoctorApproved).Count(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to count doctors: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Doctor{}).Where("status = ?", models.DoctorPending).Count(&pendingDoctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to count pending doctors: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Appointment{}).Where("date = ?", today).Count(&todayAppointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to count appointments: "+err.Error())
		return
	}

	utils.Success(c, "Dashboard fetched successfully", gin.H{
		"totalPatients":     patients,
		"approvedDoctors":   doctors,
		"pendingDoctors":    pendingDoctors,
		"todayAppointments": todayAppointments,
	})
}
