package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkelleher/invoicehub/internal/application/service"
	"github.com/mkelleher/invoicehub/internal/auth"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

// TokenService issues and rotates the bearer tokens handed to clients.
type TokenService interface {
	IssuePair(userID int64) (*auth.TokenPair, error)
	Refresh(refreshToken string) (string, error)
	VerifyAccess(token string) (int64, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	userService       service.UserService
	invoiceService    service.InvoiceService
	uploadService     service.UploadService
	extractionService service.ExtractionService
	tokens            TokenService
	logger            Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	userService service.UserService,
	invoiceService service.InvoiceService,
	uploadService service.UploadService,
	extractionService service.ExtractionService,
	tokens TokenService,
	logger Logger,
) *Handlers {
	return &Handlers{
		userService:       userService,
		invoiceService:    invoiceService,
		uploadService:     uploadService,
		extractionService: extractionService,
		tokens:            tokens,
		logger:            logger,
	}
}

// GoogleAuthRequest is the identity payload posted after a Google sign-in.
type GoogleAuthRequest struct {
	GoogleID string `json:"google_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Token    string `json:"token"`
}

// AuthUserResponse is the user profile echoed back on login.
type AuthUserResponse struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleAuthResponse is the token pair issued on login.
type GoogleAuthResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	User         AuthUserResponse `json:"user"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// InvoiceListResponse is one page of invoices with page navigation links.
type InvoiceListResponse struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []*entity.Invoice `json:"results"`
}

// ApproveResponse confirms an invoice was recorded as approved.
type ApproveResponse struct {
	Message       string `json:"message"`
	InvoiceNumber string `json:"invoice_number"`
}

// UploadResponse carries the public URL of a stored document.
type UploadResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// ProcessRequest names the stored document to run extraction on.
type ProcessRequest struct {
	PDFURL string `json:"pdf_url"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GoogleAuth handles POST /auth/google/
func (h *Handlers) GoogleAuth(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	user, err := h.userService.ResolveGoogleUser(c.Request.Context(), service.GoogleIdentity{
		GoogleID: req.GoogleID,
		Email:    req.Email,
		Name:     req.Name,
		Picture:  req.Picture,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		h.logger.Error("Failed to issue tokens", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, GoogleAuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User: AuthUserResponse{
			Email:   user.Email,
			Name:    user.FullName(),
			Picture: user.Picture,
		},
	})
}

// RefreshToken handles POST /auth/token/refresh/
func (h *Handlers) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token required"})
		return
	}

	access, err := h.tokens.Refresh(req.Refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}

// ListInvoices handles GET /invoices/
func (h *Handlers) ListInvoices(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	result, err := h.invoiceService.List(c.Request.Context(), currentUserID(c), page, pageSize)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, InvoiceListResponse{
		Count:    result.Count,
		Next:     pageLink(c.Request.URL.Path, result, +1),
		Previous: pageLink(c.Request.URL.Path, result, -1),
		Results:  result.Results,
	})
}

// pageLink builds the adjacent page URL, or nil at the boundary.
func pageLink(path string, page *service.InvoicePage, delta int) *string {
	target := page.Page + delta
	if target < 1 {
		return nil
	}
	lastPage := (page.Count + page.PageSize - 1) / page.PageSize
	if target > lastPage {
		return nil
	}
	link := fmt.Sprintf("%s?page=%d&page_size=%d", path, target, page.PageSize)
	return &link
}

// GetInvoice handles GET /invoices/:id/
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// ApproveInvoice handles POST /approve-invoice/
func (h *Handlers) ApproveInvoice(c *gin.Context) {
	var payload service.ApprovalPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	invoice, err := h.invoiceService.Approve(c.Request.Context(), currentUserID(c), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ApproveResponse{
		Message:       "Invoice approved successfully",
		InvoiceNumber: invoice.InvoiceNumber,
	})
}

// ApproveInvoiceByID handles POST /invoices/approve/:id/
func (h *Handlers) ApproveInvoiceByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	// Body is optional on this endpoint.
	_ = c.ShouldBindJSON(&body)

	invoice, err := h.invoiceService.ApproveByID(c.Request.Context(), currentUserID(c), id, body.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ApproveResponse{
		Message:       "Invoice approved successfully",
		InvoiceNumber: invoice.InvoiceNumber,
	})
}

// UploadInvoice handles POST /upload-invoice/
func (h *Handlers) UploadInvoice(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	defer src.Close()

	url, err := h.uploadService.Upload(c.Request.Context(), file.Filename, src, file.Size)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{URL: url, Message: "File uploaded successfully"})
}

// ProcessInvoice handles POST /process-invoice/
func (h *Handlers) ProcessInvoice(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PDFURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pdf_url is required"})
		return
	}

	extracted, err := h.extractionService.ProcessDocument(c.Request.Context(), req.PDFURL)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, extracted)
}

// ExportInvoices handles GET /invoices/export/
func (h *Handlers) ExportInvoices(c *gin.Context) {
	workbook, err := h.invoiceService.ExportWorkbook(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("invoices_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

// respondError maps domain errors to HTTP status codes.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrAlreadyApproved):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	default:
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
