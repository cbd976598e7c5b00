package handlers

import (
	"backend/models"
	"backend/storage"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAllProjects returns all projects with their client names.
// @Summary Get all projects
// @Description Returns the project list, optionally filtered by status or client
// @Tags Projects
// @Accept json
// @Produce json
// @Param status query string false "Project status"
// @Param client_id query int false "Client ID"
// @Success 200 {array} models.Project
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects [get]
func GetAllProjects(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
		SELECT p.project_id, p.job_number, p.name, COALESCE(p.description, ''), p.client_id, COALESCE(cl.name, ''),
		       p.status, p.start_date, p.end_date,
		       COALESCE(p.original_budget, 0), COALESCE(p.revised_budget, 0),
		       COALESCE(p.labor_budget, 0), COALESCE(p.manhours_budget, 0),
		       p.created_at, p.updated_at
		FROM project p
		LEFT JOIN clients cl ON p.client_id = cl.client_id
		WHERE 1=1`

		params := []interface{}{}
		if status := c.Query("status"); status != "" {
			params = append(params, status)
			query += " AND p.status = $1"
		}
		if clientID := c.Query("client_id"); clientID != "" {
			params = append(params, clientID)
			query += " AND p.client_id = $" + strconv.Itoa(len(params))
		}
		query += " ORDER BY p.job_number"

		rows, err := db.Query(query, params...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch projects", "details": err.Error()})
			return
		}
		defer rows.Close()

		var projects []models.Project
		for rows.Next() {
			var p models.Project
			var start, end sql.NullTime
			err := rows.Scan(&p.ProjectID, &p.JobNumber, &p.Name, &p.Description, &p.ClientID, &p.ClientName,
				&p.Status, &start, &end, &p.OriginalBudget, &p.RevisedBudget,
				&p.LaborBudget, &p.ManhoursBudget, &p.CreatedAt, &p.UpdatedAt)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning project", "details": err.Error()})
				return
			}
			if start.Valid {
				t := start.Time
				p.StartDate = &t
			}
			if end.Valid {
				t := end.Time
				p.EndDate = &t
			}
			projects = append(projects, p)
		}

		c.JSON(http.StatusOK, projects)
	}
}

// GetProjectByID returns one project.
// @Summary Get project
// @Description Returns one project by ID with its client name
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.Project
// @Failure 404 {object} models.ErrorResponse
// @Router /api/projects/{id} [get]
func GetProjectByID(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		query := `
		SELECT p.project_id, p.job_number, p.name, COALESCE(p.description, ''), p.client_id, COALESCE(cl.name, ''),
		       p.status, p.start_date, p.end_date,
		       COALESCE(p.original_budget, 0), COALESCE(p.revised_budget, 0),
		       COALESCE(p.labor_budget, 0), COALESCE(p.manhours_budget, 0),
		       p.created_at, p.updated_at
		FROM project p
		LEFT JOIN clients cl ON p.client_id = cl.client_id
		WHERE p.project_id = $1`

		var p models.Project
		var start, end sql.NullTime
		err = db.QueryRow(query, projectID).Scan(
			&p.ProjectID, &p.JobNumber, &p.Name, &p.Description, &p.ClientID, &p.ClientName,
			&p.Status, &start, &end, &p.OriginalBudget, &p.RevisedBudget,
			&p.LaborBudget, &p.ManhoursBudget, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project", "details": err.Error()})
			return
		}
		if start.Valid {
			t := start.Time
			p.StartDate = &t
		}
		if end.Valid {
			t := end.Time
			p.EndDate = &t
		}

		c.JSON(http.StatusOK, p)
	}
}

// CreateProject creates a new project.
// @Summary Create project
// @Description Create a new project record
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body models.Project true "Project"
// @Success 201 {object} models.Project
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/projects [post]
func CreateProject(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p models.Project
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		if strings.TrimSpace(p.JobNumber) == "" || strings.TrimSpace(p.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Job number and name are required"})
			return
		}

		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM project WHERE job_number = $1)", p.JobNumber).Scan(&exists)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check job number", "details": err.Error()})
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "Job number already exists"})
			return
		}

		if p.Status == "" {
			p.Status = "active"
		}

		query := `
		INSERT INTO project (job_number, name, description, client_id, status, start_date, end_date,
		                     original_budget, revised_budget, labor_budget, manhours_budget, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING project_id, created_at, updated_at`

		err = db.QueryRow(query, p.JobNumber, p.Name, p.Description, p.ClientID, p.Status,
			p.StartDate, p.EndDate, p.OriginalBudget, p.RevisedBudget, p.LaborBudget, p.ManhoursBudget).
			Scan(&p.ProjectID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project", "details": err.Error()})
			return
		}

		logEntry := models.ActivityLog{
			EventContext: "Project",
			EventName:    "Post",
			Description:  "Project " + p.JobNumber + " created",
			HostName:     c.GetHeader("X-User-Email"),
			IPAddress:    c.ClientIP(),
			ProjectID:    p.ProjectID,
			CreatedAt:    time.Now(),
		}
		_ = storage.LogActivity(db, logEntry)

		c.JSON(http.StatusCreated, p)
	}
}

// UpdateProject updates an existing project.
// @Summary Update project
// @Description Update a project by ID
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body models.Project true "Project"
// @Success 200 {object} models.Project
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/projects/{id} [put]
func UpdateProject(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var p models.Project
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		query := `
		UPDATE project
		SET name = $1, description = $2, client_id = $3, status = $4, start_date = $5, end_date = $6,
		    original_budget = $7, revised_budget = $8, labor_budget = $9, manhours_budget = $10, updated_at = NOW()
		WHERE project_id = $11`

		result, err := db.Exec(query, p.Name, p.Description, p.ClientID, p.Status, p.StartDate, p.EndDate,
			p.OriginalBudget, p.RevisedBudget, p.LaborBudget, p.ManhoursBudget, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		p.ProjectID = projectID
		c.JSON(http.StatusOK, p)
	}
}

// DeleteProject removes a project and its dependent rows.
// @Summary Delete project
// @Description Delete a project by ID together with its labor, budget and PO rows
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/projects/{id} [delete]
func DeleteProject(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		dependents := []string{
			"DELETE FROM labor_actuals WHERE project_id = $1",
			"DELETE FROM headcount_forecasts WHERE project_id = $1",
			"DELETE FROM budget_line_items WHERE project_id = $1",
			"DELETE FROM wbs_nodes WHERE project_id = $1",
			"DELETE FROM purchase_orders WHERE project_id = $1",
		}
		for _, q := range dependents {
			if _, err := tx.Exec(q, projectID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project data", "details": err.Error()})
				return
			}
		}

		result, err := tx.Exec("DELETE FROM project WHERE project_id = $1", projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project", "details": err.Error()})
			return
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
	}
}
