package handlers

import (
	"backend/models"
	"backend/services"
	"backend/storage"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const maxWorkbookSize = 25 << 20 // 25 MB

// openUploadedWorkbook pulls the multipart "file" field and opens it as an
// Excel workbook.
func openUploadedWorkbook(c *gin.Context) (*excelize.File, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file upload: %v", err)
	}
	if fileHeader.Size > maxWorkbookSize {
		return nil, fmt.Errorf("workbook exceeds %d MB limit", maxWorkbookSize>>20)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %v", err)
	}
	defer src.Close()

	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("file is not a readable Excel workbook: %v", err)
	}
	return f, nil
}

// PreviewBudgetImport parses an uploaded workbook and returns the extracted
// disciplines, allocated line items and WBS tree without writing anything.
// @Summary Preview budget import
// @Description Parse an uploaded BUDGETS workbook and return the allocation preview with validation messages
// @Tags BudgetImport
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Project ID"
// @Param file formData file true "Excel workbook"
// @Success 200 {object} services.BudgetImportResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /api/projects/{id}/budget-import/preview [post]
func PreviewBudgetImport(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		f, err := openUploadedWorkbook(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		importer := services.NewBudgetImporter(nil, nil)
		result, err := importer.ImportWorkbook(f, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse workbook", "details": err.Error()})
			return
		}

		if len(result.Report.Errors) > 0 {
			c.JSON(http.StatusUnprocessableEntity, result)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// CommitBudgetImport parses an uploaded workbook and commits the allocation
// to the database, replacing any previously imported budget for the project.
// @Summary Commit budget import
// @Description Parse and persist a BUDGETS workbook: line items, detail items and the WBS tree, all under one batch ID
// @Tags BudgetImport
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Project ID"
// @Param file formData file true "Excel workbook"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /api/projects/{id}/budget-import [post]
func CommitBudgetImport(db *sql.DB, fcmService *services.FCMService) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var projectName string
		err = db.QueryRow("SELECT name FROM project WHERE project_id = $1", projectID).Scan(&projectName)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project", "details": err.Error()})
			return
		}

		f, err := openUploadedWorkbook(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		importer := services.NewBudgetImporter(nil, nil)
		result, err := importer.ImportWorkbook(f, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse workbook", "details": err.Error()})
			return
		}
		if len(result.Report.Errors) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Workbook failed validation", "report": result.Report})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		// Replace semantics: a re-import supersedes the previous batch.
		if _, err := tx.Exec("DELETE FROM budget_line_items WHERE project_id = $1", projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear previous import", "details": err.Error()})
			return
		}
		if _, err := tx.Exec("DELETE FROM wbs_nodes WHERE project_id = $1", projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear previous WBS", "details": err.Error()})
			return
		}

		insertItem := func(li models.BudgetLineItem) error {
			_, err := tx.Exec(`
			INSERT INTO budget_line_items (project_id, import_batch_id, source_sheet, source_row, wbs_code,
			                               discipline, category, subcategory, cost_type, description,
			                               quantity, unit, rate, manhours,
			                               labor_direct, labor_indirect, labor_staff, materials, equipment,
			                               subcontracts, small_tools, total_cost, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, NOW())`,
				li.ProjectID, li.ImportBatchID, li.SourceSheet, li.SourceRow, li.WBSCode,
				li.Discipline, li.Category, li.Subcategory, li.CostType, li.Description,
				li.Quantity, li.Unit, li.Rate, li.Manhours,
				li.LaborDirect, li.LaborIndirect, li.LaborStaff, li.Materials, li.Equipment,
				li.Subcontracts, li.SmallTools, li.TotalCost)
			return err
		}

		for _, li := range result.LineItems {
			if err := insertItem(li); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert line item", "details": err.Error()})
				return
			}
		}
		for _, li := range result.DetailItems {
			if err := insertItem(li); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert detail item", "details": err.Error()})
				return
			}
		}

		var insertNode func(node *models.WBSNode) error
		insertNode = func(node *models.WBSNode) error {
			_, err := tx.Exec(`
			INSERT INTO wbs_nodes (project_id, import_batch_id, code, parent_code, level, description,
			                       budget_total, manhours_total, material_cost, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
				projectID, result.BatchID, node.Code, node.ParentCode, node.Level, node.Description,
				node.BudgetTotal, node.ManhoursTotal, node.MaterialCost)
			if err != nil {
				return err
			}
			for _, child := range node.Children {
				if err := insertNode(child); err != nil {
					return err
				}
			}
			return nil
		}
		for _, root := range result.Tree {
			if err := insertNode(root); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert WBS node", "details": err.Error()})
				return
			}
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit import", "details": err.Error()})
			return
		}

		lineItemCount := len(result.LineItems) + len(result.DetailItems)
		userEmail := c.GetHeader("X-User-Email")

		logEntry := models.ActivityLog{
			EventContext: "Budget Import",
			EventName:    "Import",
			Description:  fmt.Sprintf("Imported %d budget line items (batch %s)", lineItemCount, result.BatchID),
			HostName:     userEmail,
			IPAddress:    c.ClientIP(),
			ProjectID:    projectID,
			CreatedAt:    time.Now(),
		}
		_ = storage.LogActivity(db, logEntry)

		if userEmail != "" {
			var userID int
			if err := db.QueryRow("SELECT id FROM users WHERE LOWER(email) = LOWER($1)", userEmail).Scan(&userID); err == nil {
				message := fmt.Sprintf("Budget import completed for %s", projectName)
				action := fmt.Sprintf("/project/%d/budget", projectID)
				if fcmService != nil {
					go SendPushNotification(db, fcmService, userID, "Budget Import", message,
						map[string]string{"project_id": strconv.Itoa(projectID)}, action)
				} else {
					_ = storage.InsertNotification(db, models.Notification{
						UserID:  userID,
						Message: message,
						Action:  action,
					})
				}
			}

			es := services.NewEmailService()
			if es.Configured() {
				go func(to, name, batch string, count int, warnings []string) {
					if err := es.SendImportCompletionEmail(to, name, batch, count, warnings, nil); err != nil {
						log.Printf("Failed to send import completion email to %s: %v", to, err)
					}
				}(userEmail, projectName, result.BatchID, lineItemCount, result.Report.Warnings)
			}
		}

		c.JSON(http.StatusCreated, gin.H{
			"batch_id":    result.BatchID,
			"line_items":  lineItemCount,
			"disciplines": len(result.Disciplines),
			"wbs_roots":   len(result.Tree),
			"report":      result.Report,
		})
	}
}

// GetBudgetLineItems returns the committed budget line items for a project.
// @Summary Get budget line items
// @Description Returns the committed budget line items, optionally filtered by discipline or category
// @Tags BudgetImport
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param discipline query string false "Discipline"
// @Param category query string false "Category"
// @Success 200 {array} models.BudgetLineItem
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/budget-line-items [get]
func GetBudgetLineItems(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		query := `
		SELECT id, project_id, import_batch_id, source_sheet, source_row, wbs_code,
		       discipline, category, subcategory, cost_type, description,
		       quantity, unit, rate, manhours,
		       labor_direct, labor_indirect, labor_staff, materials, equipment,
		       subcontracts, small_tools, total_cost, created_at
		FROM budget_line_items
		WHERE project_id = $1`

		params := []interface{}{projectID}
		if discipline := c.Query("discipline"); discipline != "" {
			params = append(params, discipline)
			query += " AND discipline = $" + strconv.Itoa(len(params))
		}
		if category := c.Query("category"); category != "" {
			params = append(params, category)
			query += " AND category = $" + strconv.Itoa(len(params))
		}
		query += " ORDER BY discipline, category, source_row"

		rows, err := db.Query(query, params...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch budget line items", "details": err.Error()})
			return
		}
		defer rows.Close()

		var items []models.BudgetLineItem
		for rows.Next() {
			var li models.BudgetLineItem
			var wbsCode, unit sql.NullString
			var quantity, rate, manhours sql.NullFloat64
			err := rows.Scan(&li.ID, &li.ProjectID, &li.ImportBatchID, &li.SourceSheet, &li.SourceRow, &wbsCode,
				&li.Discipline, &li.Category, &li.Subcategory, &li.CostType, &li.Description,
				&quantity, &unit, &rate, &manhours,
				&li.LaborDirect, &li.LaborIndirect, &li.LaborStaff, &li.Materials, &li.Equipment,
				&li.Subcontracts, &li.SmallTools, &li.TotalCost, &li.CreatedAt)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning line item", "details": err.Error()})
				return
			}
			if wbsCode.Valid {
				v := wbsCode.String
				li.WBSCode = &v
			}
			if unit.Valid {
				v := unit.String
				li.Unit = &v
			}
			if quantity.Valid {
				v := quantity.Float64
				li.Quantity = &v
			}
			if rate.Valid {
				v := rate.Float64
				li.Rate = &v
			}
			if manhours.Valid {
				v := manhours.Float64
				li.Manhours = &v
			}
			items = append(items, li)
		}

		c.JSON(http.StatusOK, items)
	}
}
