package api

import (
	"net/http"
	"strconv"
	"time"

	"library-service/internal/models"
	"library-service/internal/service"
	"library-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	circulation *service.CirculationService
	fines       *service.FineService
	reports     *service.ReportService
}

// NewHandler creates a new HTTP handler
func NewHandler(circulation *service.CirculationService, fines *service.FineService, reports *service.ReportService) *Handler {
	return &Handler{
		circulation: circulation,
		fines:       fines,
		reports:     reports,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/transactions/issue", h.issueBook)
		v1.POST("/transactions/:id/return", h.returnBook)
		v1.GET("/transactions", h.getTransactions)
		v1.GET("/transactions/overdue", h.getOverdue)
		v1.POST("/transactions/overdue/refresh", h.refreshOverdue)
		v1.GET("/transactions/:id", h.getTransaction)
		v1.GET("/transactions/:id/fine", h.previewFine)

		v1.GET("/books", h.getBooks)
		v1.GET("/books/:id", h.getBook)
		v1.GET("/books/:id/availability", h.getAvailability)

		v1.GET("/fines", h.getFines)
		v1.GET("/fines/:id", h.getFine)
		v1.POST("/fines/:id/pay", h.payFine)
		v1.POST("/fines/:id/waive", h.waiveFine)
		v1.GET("/fines/user/:userID", h.getUserFines)

		v1.GET("/reports/dashboard", h.getDashboard)
		v1.GET("/reports/inventory", h.getInventoryReport)
		v1.GET("/reports/circulation", h.getCirculationReport)
		v1.GET("/reports/fines", h.getFinesReport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// issueBook handles book issuance
func (h *Handler) issueBook(c *gin.Context) {
	var req service.IssueBookRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.circulation.IssueBook(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Book issued successfully",
		"transaction_id": resp.TransactionID,
		"due_date":       resp.DueDate,
	})
}

// returnBook handles book returns
func (h *Handler) returnBook(c *gin.Context) {
	transactionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		LibrarianID int64 `json:"librarian_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.circulation.ReturnBook(c.Request.Context(), transactionID, req.LibrarianID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getTransactions lists transactions with optional user_id/status filters
func (h *Handler) getTransactions(c *gin.Context) {
	userID, _ := strconv.ParseInt(c.Query("user_id"), 10, 64)
	status := c.Query("status")

	txns, err := h.circulation.GetTransactions(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txns,
		"count":        len(txns),
	})
}

// getTransaction handles get transaction by ID
func (h *Handler) getTransaction(c *gin.Context) {
	transactionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	txn, err := h.circulation.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// getOverdue lists overdue transactions, refreshing statuses first
func (h *Handler) getOverdue(c *gin.Context) {
	overdue, err := h.circulation.GetOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"overdue_transactions": overdue,
		"count":                len(overdue),
	})
}

// refreshOverdue runs the overdue status sweep
func (h *Handler) refreshOverdue(c *gin.Context) {
	updated, err := h.circulation.RefreshOverdueStatuses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// previewFine reports the fine a loan would incur if returned today
func (h *Handler) previewFine(c *gin.Context) {
	transactionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	preview, err := h.circulation.PreviewFine(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preview": preview})
}

// getBooks lists catalog books
func (h *Handler) getBooks(c *gin.Context) {
	category := c.Query("category")
	availableOnly := c.Query("available") == "true"

	books, err := h.circulation.ListBooks(c.Request.Context(), category, availableOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"count": len(books),
	})
}

// getBook handles get book by ID
func (h *Handler) getBook(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	book, err := h.circulation.GetBook(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"book": book})
}

// getAvailability reports whether a copy is free to issue
func (h *Handler) getAvailability(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	available, err := h.circulation.CheckAvailability(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"book_id":   bookID,
		"available": available,
	})
}

// getFines lists fines with optional user_id/status filters
func (h *Handler) getFines(c *gin.Context) {
	userID, _ := strconv.ParseInt(c.Query("user_id"), 10, 64)
	status := c.Query("status")

	fines, err := h.fines.GetFines(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fines": fines,
		"count": len(fines),
	})
}

// getFine handles get fine by ID
func (h *Handler) getFine(c *gin.Context) {
	fineID, ok := pathID(c, "id")
	if !ok {
		return
	}

	f, err := h.fines.GetFine(c.Request.Context(), fineID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fine": f})
}

// getUserFines lists a borrower's fines with their pending total
func (h *Handler) getUserFines(c *gin.Context) {
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	status := c.Query("status")

	fines, err := h.fines.GetFines(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	totalPending, err := h.fines.TotalPending(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fines":         fines,
		"total_pending": totalPending,
		"count":         len(fines),
	})
}

// payFine marks a fine as paid
func (h *Handler) payFine(c *gin.Context) {
	fineID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	_ = c.ShouldBindJSON(&req)

	f, err := h.fines.PayFine(c.Request.Context(), fineID, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Fine marked as paid",
		"fine":    f,
	})
}

// waiveFine waives a fine
func (h *Handler) waiveFine(c *gin.Context) {
	fineID, ok := pathID(c, "id")
	if !ok {
		return
	}

	f, err := h.fines.WaiveFine(c.Request.Context(), fineID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Fine waived successfully",
		"fine":    f,
	})
}

// getDashboard returns headline stats and recent transactions
func (h *Handler) getDashboard(c *gin.Context) {
	stats, recent, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":               stats,
		"recent_transactions": recent,
	})
}

// getInventoryReport returns per-category copy counts
func (h *Handler) getInventoryReport(c *gin.Context) {
	inventory, err := h.reports.InventoryReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inventory":        inventory,
		"total_categories": len(inventory),
	})
}

// getCirculationReport returns transaction counts by status
func (h *Handler) getCirculationReport(c *gin.Context) {
	report, err := h.reports.CirculationSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"circulation": report})
}

// getFinesReport returns fines in a status with their total amount
func (h *Handler) getFinesReport(c *gin.Context) {
	fines, total, err := h.reports.FinesReport(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fines":        fines,
		"total_amount": total,
		"count":        len(fines),
	})
}

// pathID parses a numeric path parameter, writing a 400 on failure
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps domain error kinds to HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnavailable),
		errors.Is(err, models.ErrLimitExceeded),
		errors.Is(err, models.ErrInvalidState):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
