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

// DoctorHandler handles the doctor-facing queue and appointment requests.
type DoctorHandler struct {
	DB    *gorm.DB
	Queue *queue.Service
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB, queueService *queue.Service) *DoctorHandler {
	return &DoctorHandler{DB: db, Queue: queueService}
}

// doctorProfile loads the doctor row for the logged-in user.
func (h *DoctorHandler) doctorProfile(c *gin.Context) (*models.Doctor, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return nil, false
	}
	var doctor models.Doctor
	if err := h.DB.First(&doctor, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}
	return &doctor, true
}

// GetProfile returns the doctor's own profile.
func (h *DoctorHandler) GetProfile(c *gin.Context) {
	doctor, ok := h.doctorProfile(c)
	if !ok {
		return
	}
	if err := h.DB.Preload("User").First(doctor, "id = ?", doctor.ID).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	utils.Success(c, "Profile fetched successfully", doctor)
}

// UpdateProfileRequest represents the editable doctor profile fields.
type UpdateProfileRequest struct {
	Specialization    string `json:"specialization"`
	Degree            string `json:"degree"`
	ClinicName        string `json:"clinicName"`
	City              string `json:"city"`
	Address           string `json:"address"`
	ConsultationFee   int    `json:"consultationFee"`
	AvgConsultMinutes int    `json:"avgConsultMinutes"`
}

// UpdateProfile updates the doctor's practice details.
func (h *DoctorHandler) UpdateProfile(c *gin.Context) {
	doctor, ok := h.doctorProfile(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updates := map[string]interface{}{}
	if req.Specialization != "" {
		updates["specialization"] = req.Specialization
	}
	if req.Degree != "" {
		updates["degree"] = req.Degree
	}
	if req.ClinicName != "" {
		updates["clinic_name"] = req.ClinicName
	}
	if req.City != "" {
		updates["city"] = req.City
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.ConsultationFee > 0 {
		updates["consultation_fee"] = req.ConsultationFee
	}
	if req.AvgConsultMinutes > 0 {
		updates["avg_consult_minutes"] = req.AvgConsultMinutes
	}
	if len(updates) == 0 {
		utils.BadRequest(c, "Nothing to update")
		return
	}

	if err := h.DB.Model(doctor).Updates(updates).Error; err != nil {
		utils.InternalServerError(c, "Failed to update profile: "+err.Error())
		return
	}

	utils.Success(c, "Profile updated successfully", doctor)
}

// SetAvailabilityRequest represents the availability toggle body.
type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" binding:"required"`
}

// SetAvailability toggles whether the doctor accepts new bookings. Existing
// appointments are untouched.
func (h *DoctorHandler) SetAvailability(c *gin.Context) {
	doctor, ok := h.doctorProfile(c)
	if !ok {
		return
	}

	var req SetAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.DB.Model(doctor).Update("is_available", *req.IsAvailable).Error; err != nil {
		utils.InternalServerError(c, "Failed to update availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability updated successfully", gin.H{"isAvailable": *req.IsAvailable})
}

// GetIncomingRequests lists pending booking requests, oldest date first.
func (h *DoctorHandler) GetIncomingRequests(c *gin.Context) {
	doctor, ok := h.doctorProfile(c)
	if !ok {
		return
	}

	var appointments []models.Appointment
	err := h.DB.Preload("Patient").Preload("FamilyMember").Preload("WalkIn").
		Where("doctor_id = ? AND status = ?", doctor.ID, models.StatusRequested).
		Order("date asc, token_number asc").
		Find(&appointments).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch requests: "+err.Error())
		return
	}

	utils.Success(c, "Incoming requests fetched successfully", appointments)
}

// RespondRequest represents the accept/reject decision body.
type RespondRequest struct {
	Action string `json:"action" binding:"required,oneof=ACCEPT REJECT"`
}

// Respond accepts or rejects a REQUESTED appointment.
func (h *DoctorHandler) Respond(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req RespondRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Queue.Respond(c.Request.Context(), userID, c.Param("id"), req.Action == "ACCEPT")
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	utils.Success(c, "Appointment updated", appt)
}

// GetTodayQueue returns today's queue for one shift: the token in progress
// and the accepted tokens waiting behind it.
func (h *DoctorHandler) GetTodayQueue(c *gin.Context) {
	doctor, ok := h.doctorProfile(c)
	if !ok {
		return
	}

	shift := models.Shift(c.Query("shift"))
	if shift != models.ShiftMorning && shift != models.ShiftEvening {
		utils.BadRequest(c, "shift must be MORNING or EVENING")
		return
	}

	today := time.Now().Format("2006-01-02")
	var appointments []models.Appointment
	err := h.DB.Preload("Patient").Preload("FamilyMember").Preload("WalkIn").
		Where("doctor_id = ? AND date = ? AND shift = ? AND status IN ?",
			doctor.ID, today, shift,
			[]models.AppointmentStatus{models.StatusAccepted, models.StatusInProgress}).
		Order("token_number asc").
		Find(&appointments).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch queue: "+err.Error())
		return
	}

	nowServing := 0
	for _, appt := range appointments {
		if appt.Status == models.StatusInProgress {
			nowServing = appt.TokenNumber
			break
		}
	}

	utils.Success(c, "Queue fetched successfully", gin.H{
		"date":         today,
		"shift":        shift,
		"nowServing":   nowServing,
		"appointments": appointments,
	})
}

// StartAppointment moves an accepted appointment to IN_PROGRESS.
func (h *DoctorHandler) StartAppointment(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, err := h.Queue.Start(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	utils.Success(c, "Appointment started", appt)
}

// CompleteAppointment moves an in-progress appointment to COMPLETED.
func (h *DoctorHandler) CompleteAppointment(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, err := h.Queue.Complete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	utils.Success(c, "Appointment completed", appt)
}

// CallNextRequest represents the call-next body.
type CallNextRequest struct {
	Shift string `json:"shift" binding:"required,oneof=MORNING EVENING"`
}

// CallNext advances today's queue: completes the current consultation and
// calls the smallest waiting token. An empty queue is a valid no-op.
func (h *DoctorHandler) CallNext(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CallNextRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := h.Queue.CallNext(c.Request.Context(), userID, models.Shift(req.Shift))
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	if result.QueueEmpty {
		utils.Success(c, "Queue is empty", result)
		return
	}
	utils.Success(c, "Next patient called", result)
}

// VisitSummaryRequest represents the visit summary body.
type VisitSummaryRequest struct {
	Summary      string `json:"summary" binding:"required"`
	Prescription string `json:"prescription"`
}

// AddVisitSummary attaches notes and a prescription to a completed visit.
func (h *DoctorHandler) AddVisitSummary(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req VisitSummaryRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	err := h.Queue.AddVisitSummary(c.Request.Context(), userID, c.Param("id"), req.Summary, req.Prescription)
	if err != nil {
		utils.QueueError(c, err)
		return
	}

	utils.Success(c, "Visit summary added", nil)
}

// ManualBookingRequest represents a staff-side booking. Either a registered
// patient ID or walk-in details must be supplied.
type ManualBookingRequest struct {
	PatientID       string `json:"patientId"`
	WalkInName      string `json:"walkInName"`
	WalkInPhone     string `json:"walkInPhone"`
	AppointmentType string `json:"appointmentType" binding:"required,oneof=CLINIC HOSPITAL"`
	Date            string `json:"appointmentDate" binding:"required"`
	Shift           string `json:"shift" binding:"required,oneof=MORNING EVENING"`
}

// ManualBooking books a token at the desk, for a registered patient or a
// walk-in. The token comes from the same bucket as online bookings.
func (h *DoctorHandler) ManualBooking(c *gin.Context) {
	doctor, ok := h.doctorProfile(c)
	if !ok {
		return
	}

	var req ManualBookingRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	bookReq := queue.BookRequest{
		DoctorID:    doctor.ID,
		WalkInName:  req.WalkInName,
		WalkInPhone: req.WalkInPhone,
		Type:        models.AppointmentType(req.AppointmentType),
		Date:        req.Date,
		Shift:       models.Shift(req.Shift),
		Channel:     models.ChannelStaff,
	}
	if req.PatientID != "" {
		var patient models.User
		if err := h.DB.First(&patient, "id = ? AND role = ?", req.PatientID, models.RolePatient).Error; err != nil {
			utils.NotFound(c, "Patient not found")
			return
		}
		bookReq.PatientID = &patient.ID
	}

	appt, err := h.Queue.Book(c.Request.Context(), bookReq)
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

// GetAppointmentHistory lists the doctor's past appointments, optionally
// filtered by ?date= and ?status=.
func (h *DoctorHandler) GetAppointmentHistory(c *gin.Context) {
	doctor, ok := h.doctorProfile(c)
	if !ok {
		return
	}

	query := h.DB.Preload("Patient").Preload("FamilyMember").Preload("WalkIn").
		Where("doctor_id = ?", doctor.ID)
	if date := c.Query("date"); date != "" {
		query = query.Where("date = ?", date)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var appointments []models.Appointment
	if err := query.Order("date desc, token_number asc").Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetDashboard returns today's booking counts per shift and the pending
// request count.
func (h *DoctorHandler) GetDashboard(c *gin.Context) {
	doctor, ok := h.doctorProfile(c)
	if !ok {
		return
	}

	today := time.Now().Format("2006-01-02")
	counts := gin.H{}
	for _, shift := range []models.Shift{models.ShiftMorning, models.ShiftEvening} {
		var count int64
		err := h.DB.Model(&models.Appointment{}).
			Where("doctor_id = ? AND date = ? AND shift = ? AND status IN ?", doctor.ID, today, shift,
				[]models.AppointmentStatus{models.StatusRequested, models.StatusAccepted, models.StatusInProgress, models.StatusCompleted}).
			Count(&count).Error
		if err != nil {
			utils.InternalServerError(c, "Failed to count appointments: "+err.Error())
			return
		}
		counts[string(shift)] = count
	}

	var pending int64
	if err := h.DB.Model(&models.Appointment{}).
		Where("doctor_id = ? AND status = ?", doctor.ID, models.StatusRequested).
		Count(&pending).Error; err != nil {
		utils.InternalServerError(c, "Failed to count requests: "+err.Error())
		return
	}

	utils.Success(c, "Dashboard fetched successfully", gin.H{
		"date":            today,
		"todayByShift":    counts,
		"pendingRequests": pending,
	})
}
