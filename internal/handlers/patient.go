package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-queue-server/internal/middleware"
	"clinic-queue-server/internal/models"
	"clinic-queue-server/internal/queue"
	"clinic-queue-server/internal/utils"
)

// PatientHandler handles the patient-facing booking and queue requests.
type PatientHandler struct {
	DB    *gorm.DB
	Queue *queue.Service
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB, queueService *queue.Service) *PatientHandler {
	return &PatientHandler{DB: db, Queue: queueService}
}

// BookVisitRequest represents the request body for a clinic/hospital booking.
type BookVisitRequest struct {
	DoctorID        string `json:"doctorId" binding:"required"`
	AppointmentType string `json:"appointmentType" binding:"required,oneof=CLINIC HOSPITAL"`
	Date            string `json:"appointmentDate" binding:"required"`
	Shift           string `json:"shift" binding:"required,oneof=MORNING EVENING"`
	FamilyMemberID  string `json:"familyMemberId"`
}

// BookVisit books a clinic or hospital visit for the logged-in patient and
// returns the issued queue token.
func (h *PatientHandler) BookVisit(c *gin.Context) {
	h.bookVisit(c, models.ChannelPatient)
}

// QRBookVisit books a visit through the doctor's QR code. It draws from the
// same token bucket as every other channel.
func (h *PatientHandler) QRBookVisit(c *gin.Context) {
	h.bookVisit(c, models.ChannelQR)
}

func (h *PatientHandler) bookVisit(c *gin.Context, channel models.BookingChannel) {
	var req BookVisitRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var familyMemberID *string
	if req.FamilyMemberID != "" {
		var member models.FamilyMember
		if err := h.DB.First(&member, "id = ? AND patient_id = ?", req.FamilyMemberID, patientID).Error; err != nil {
			utils.NotFound(c, "Family member not found")
			return
		}
		familyMemberID = &member.ID
	}

	appt, err := h.Queue.Book(c.Request.Context(), queue.BookRequest{
		DoctorID:       req.DoctorID,
		PatientID:      &patientID,
		FamilyMemberID: familyMemberID,
		Type:           models.AppointmentType(req.AppointmentType),
		Date:           req.Date,
		Shift:          models.Shift(req.Shift),
		Channel:        channel,
	})
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	utils.Created(c, "Appointment booked", gin.H{
		"appointmentId": appt.ID,
		"token":         appt.TokenNumber,
		"status":        appt.Status,
	})
}

// BookVideoRequest represents the request body for a video consultation.
type BookVideoRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
	Date     string `json:"appointmentDate" binding:"required"`
	Time     string `json:"appointmentTime" binding:"required"`
}

// BookVideo books a video consultation at a specific time. Video bookings
// do not consume queue tokens; the slot itself must be free.
func (h *PatientHandler) BookVideo(c *gin.Context) {
	var req BookVideoRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, err := h.Queue.Book(c.Request.Context(), queue.BookRequest{
		DoctorID:  req.DoctorID,
		PatientID: &patientID,
		Type:      models.TypeVideo,
		Date:      req.Date,
		Time:      req.Time,
		Channel:   models.ChannelPatient,
	})
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	utils.Created(c, "Video appointment booked", gin.H{
		"appointmentId": appt.ID,
		"status":        appt.Status,
	})
}

// GetAppointments lists the patient's appointments, newest date first.
func (h *PatientHandler) GetAppointments(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var appointments []models.Appointment
	err := h.DB.Where("patient_id = ?", patientID).
		Order("date desc, token_number asc").
		Find(&appointments).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetUpcomingAppointments lists live appointments, optionally filtered with
// ?filter=today or ?filter=next7.
func (h *PatientHandler) GetUpcomingAppointments(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	today := time.Now().Format("2006-01-02")
	query := h.DB.Where("patient_id = ? AND status IN ?", patientID,
		[]models.AppointmentStatus{models.StatusRequested, models.StatusAccepted})

	switch c.Query("filter") {
	case "today":
		query = query.Where("date = ?", today)
	case "next7":
		query = query.Where("date BETWEEN ? AND ?", today, time.Now().AddDate(0, 0, 7).Format("2006-01-02"))
	default:
		query = query.Where("date >= ?", today)
	}

	var appointments []models.Appointment
	if err := query.Order("date asc, token_number asc").Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Upcoming appointments fetched successfully", appointments)
}

// CancelAppointment is patient self-service cancellation. Same-day and past
// appointments cannot be cancelled.
func (h *PatientHandler) CancelAppointment(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, err := h.Queue.CancelByPatient(c.Request.Context(), patientID, c.Param("id"))
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled", appt)
}

// GetTokenStatus returns the patient's token, the token now being served,
// and the estimated wait.
func (h *PatientHandler) GetTokenStatus(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	status, err := h.Queue.GetTokenStatus(c.Request.Context(), patientID, c.Param("id"))
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	utils.Success(c, "Token status fetched successfully", status)
}

// SearchDoctors lists approved doctors filtered by name, specialization or city.
func (h *PatientHandler) SearchDoctors(c *gin.Context) {
	search := "%" + c.Query("search") + "%"
	city := "%" + c.Query("city") + "%"

	var doctors []models.Doctor
	err := h.DB.Preload("User").
		Joins("JOIN users ON users.id = doctors.user_id").
		Where("doctors.status = ?", models.DoctorApproved).
		Where("(doctors.specialization LIKE ? OR users.first_name LIKE ? OR users.last_name LIKE ?)", search, search, search).
		Where("doctors.city LIKE ?", city).
		Find(&doctors).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to search doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDashboard returns the patient's upcoming-appointment count and today's token.
func (h *PatientHandler) GetDashboard(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	today := time.Now().Format("2006-01-02")
	live := []models.AppointmentStatus{models.StatusRequested, models.StatusAccepted}

	var upcoming int64
	if err := h.DB.Model(&models.Appointment{}).
		Where("patient_id = ? AND date >= ? AND status IN ?", patientID, today, live).
		Count(&upcoming).Error; err != nil {
		utils.InternalServerError(c, "Failed to count appointments: "+err.Error())
		return
	}

	var todayToken models.Appointment
	hasToken := true
	err := h.DB.Where("patient_id = ? AND date = ? AND type IN ? AND status IN ?",
		patientID, today, []models.AppointmentType{models.TypeClinic, models.TypeHospital}, live).
		Order("token_number asc").
		First(&todayToken).Error
	if err == gorm.ErrRecordNotFound {
		hasToken = false
	} else if err != nil {
		utils.InternalServerError(c, "Failed to fetch today's token: "+err.Error())
		return
	}

	response := gin.H{"upcomingCount": upcoming, "todayToken": nil}
	if hasToken {
		response["todayToken"] = gin.H{"type": todayToken.Type, "token": todayToken.TokenNumber}
	}
	utils.Success(c, "Dashboard fetched successfully", response)
}

// AddFamilyMemberRequest represents the request body for adding a dependent.
type AddFamilyMemberRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	Relation   string `json:"relation" binding:"required"`
	Gender     string `json:"gender"`
	DOB        string `json:"dob"`
	BloodGroup string `json:"bloodGroup"`
}

// AddFamilyMember adds a dependent the patient can book for.
func (h *PatientHandler) AddFamilyMember(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req AddFamilyMemberRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	member := models.FamilyMember{
		PatientID:  patientID,
		FullName:   req.FullName,
		Relation:   req.Relation,
		Gender:     req.Gender,
		DOB:        req.DOB,
		BloodGroup: req.BloodGroup,
	}
	if err := h.DB.Create(&member).Error; err != nil {
		utils.InternalServerError(c, "Failed to add family member: "+err.Error())
		return
	}

	utils.Created(c, "Family member added successfully", member)
}

// GetFamilyMembers lists the patient's dependents.
func (h *PatientHandler) GetFamilyMembers(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var members []models.FamilyMember
	if err := h.DB.Where("patient_id = ?", patientID).Order("created_at desc").Find(&members).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch family members: "+err.Error())
		return
	}

	utils.Success(c, "Family members fetched successfully", members)
}

// GetNotifications lists the user's in-app notifications, newest first.
func (h *PatientHandler) GetNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var notifications []models.Notification
	if err := h.DB.Where("receiver_id = ?", userID).Order("created_at desc").Find(&notifications).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch notifications: "+err.Error())
		return
	}

	utils.Success(c, "Notifications fetched successfully", notifications)
}

// MarkNotificationRead marks one of the user's notifications as read.
func (h *PatientHandler) MarkNotificationRead(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND receiver_id = ?", c.Param("id"), userID).
		Update("is_read", true)
	if res.Error != nil {
		utils.InternalServerError(c, "Failed to update notification: "+res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		utils.NotFound(c, "Notification not found")
		return
	}

	utils.Success(c, "Notification marked as read", nil)
}
