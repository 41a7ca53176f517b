// scholarship-system/internal/handlers/batch_import_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/internal/batchimport"
	"github.com/anud18/scholarship-system-sub001/internal/middleware"
	"github.com/anud18/scholarship-system-sub001/models"
)

// BatchImportHandler drives the upload / preview-edit / confirm cycle for
// offline-collected application files.
type BatchImportHandler struct {
	DB        *gorm.DB
	Pipeline  *batchimport.Pipeline
	UploadDir string
}

func NewBatchImportHandler(db *gorm.DB, pipeline *batchimport.Pipeline, uploadDir string) *BatchImportHandler {
	return &BatchImportHandler{DB: db, Pipeline: pipeline, UploadDir: uploadDir}
}

// Upload parses the file, runs bulk validation and stores the staged rows for
// preview. Nothing is written to the applications table yet.
func (h *BatchImportHandler) Upload(c *gin.Context) {
	user := middleware.CurrentUser(c)

	typeID, err := strconv.Atoi(c.PostForm("scholarshipTypeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scholarshipTypeId is required"})
		return
	}
	year, err := strconv.Atoi(c.PostForm("academicYear"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "academicYear is required"})
		return
	}
	var semester *int
	if raw := c.PostForm("semester"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "semester must be a number"})
			return
		}
		semester = &v
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		respondError(c, err)
		return
	}

	var schType models.ScholarshipType
	if err := h.DB.Preload("SubTypes").First(&schType, typeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("scholarship type %d not found", typeID))
			return
		}
		respondError(c, err)
		return
	}

	// Optional mapping of extra column labels to form field names, e.g.
	// {"銀行帳號": "bank_account"}. Unmapped extra columns are ignored.
	var customFields map[string]string
	if raw := c.PostForm("customFields"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &customFields); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "customFields must be a JSON object of column label to field name"})
			return
		}
	}

	staged, err := batchimport.Parse(data, fileHeader.Filename, schType.SubTypes, customFields)
	if err != nil {
		respondError(c, err)
		return
	}

	expires := time.Now().Add(models.ParsedDataTTL)
	batch := &models.BatchImport{
		ImporterID:        user.ID,
		CollegeCode:       user.CollegeCode,
		ScholarshipTypeID: uint(typeID),
		AcademicYear:      year,
		Semester:          semester,
		FileName:          fileHeader.Filename,
		TotalRecords:      staged.RecordCount(),
		ImportStatus:      models.BatchPending,
		DataExpiresAt:     &expires,
	}

	if err := h.Pipeline.BulkValidate(c.Request.Context(), staged, batch, user); err != nil {
		respondError(c, err)
		return
	}
	if err := batch.EncodeStagedData(staged); err != nil {
		respondError(c, err)
		return
	}
	if url, err := h.storeOriginal(data, fileHeader.Filename); err == nil {
		batch.StoredFileURL = url
	}
	if err := h.DB.Create(batch).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"batch": batch, "staged": staged})
}

// storeOriginal keeps the raw upload on disk under a random name so a failed
// import can be re-examined later.
func (h *BatchImportHandler) storeOriginal(data []byte, original string) (string, error) {
	if h.UploadDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.New().String() + filepath.Ext(original)
	path := filepath.Join(h.UploadDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Get returns the batch record together with its decoded staging data.
func (h *BatchImportHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch ID"})
		return
	}
	batch, err := h.Pipeline.Load(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	staged, err := batch.DecodeStagedData()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": batch, "staged": staged})
}

// List returns batches, newest first, optionally filtered by status.
func (h *BatchImportHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	query := h.DB.Model(&models.BatchImport{})
	if user.Role != models.RoleSuperAdmin && user.Role != models.RoleAdmin {
		query = query.Where("importer_id = ?", user.ID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("import_status = ?", status)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		respondError(c, err)
		return
	}
	var batches []models.BatchImport
	if err := query.Order("id DESC").Scopes(Paginate(c)).Find(&batches).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, batches, totalRows))
}

// EditRecord patches one staged row and re-runs bulk validation.
func (h *BatchImportHandler) EditRecord(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, index, ok := h.batchAndIndex(c)
	if !ok {
		return
	}

	var edit batchimport.RecordEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	staged, err := h.Pipeline.EditRecord(c.Request.Context(), id, index, edit, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staged": staged})
}

// DeleteRecord marks one staged row as removed from the import.
func (h *BatchImportHandler) DeleteRecord(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, index, ok := h.batchAndIndex(c)
	if !ok {
		return
	}
	staged, err := h.Pipeline.DeleteRecord(c.Request.Context(), id, index, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staged": staged})
}

// Revalidate re-runs the bulk checks against the current database state.
func (h *BatchImportHandler) Revalidate(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch ID"})
		return
	}
	staged, err := h.Pipeline.Revalidate(c.Request.Context(), uint(id), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staged": staged})
}

// Confirm materializes the staged rows into applications, or cancels the
// batch when confirm is false.
func (h *BatchImportHandler) Confirm(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch ID"})
		return
	}
	var body struct {
		Confirm *bool `json:"confirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Pipeline.Confirm(c.Request.Context(), uint(id), *body.Confirm, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BatchImportHandler) batchAndIndex(c *gin.Context) (uint, int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch ID"})
		return 0, 0, false
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record index"})
		return 0, 0, false
	}
	return uint(id), index, true
}
