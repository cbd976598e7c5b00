package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"backend/utils"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetLaborActuals returns a project's historical labor weeks.
// @Summary Get labor actuals
// @Description Returns all labor actual rows for a project ordered by week
// @Tags Labor
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} models.LaborActual
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/labor-actuals [get]
func GetLaborActuals(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		ctx, cancel := utils.GetFastQueryContext(c.Request.Context())
		defer cancel()

		actuals, err := repository.FetchLaborActuals(ctx, db, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch labor actuals", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, actuals)
	}
}

// CreateLaborActual records one week of actual labor. The week ending date is
// normalized to the Sunday ending its week before it is stored.
// @Summary Create labor actual
// @Description Record one week of actual labor hours and cost for a project
// @Tags Labor
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body models.LaborActual true "Labor actual"
// @Success 201 {object} models.LaborActual
// @Failure 400 {object} models.ErrorResponse
// @Router /api/projects/{id}/labor-actuals [post]
func CreateLaborActual(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var la models.LaborActual
		if err := c.ShouldBindJSON(&la); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if la.WeekEnding.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Week ending date is required"})
			return
		}
		if la.ActualHours < 0 || la.ActualCost < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Hours and cost must not be negative"})
			return
		}
		if la.CraftTypeID == nil && la.LaborCategory == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Either craft_type_id or labor_category is required"})
			return
		}

		la.ProjectID = projectID
		la.WeekEnding = services.WeekEndingSunday(la.WeekEnding)

		query := `
		INSERT INTO labor_actuals (project_id, week_ending, craft_type_id, labor_category,
		                           actual_hours, actual_cost, actual_cost_with_burden, burden_amount,
		                           description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at`

		err = db.QueryRow(query, la.ProjectID, la.WeekEnding, la.CraftTypeID, la.LaborCategory,
			la.ActualHours, la.ActualCost, la.ActualCostWithBurden, la.BurdenAmount, la.Description).
			Scan(&la.ID, &la.CreatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create labor actual", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, la)
	}
}

// UpdateLaborActual updates one labor actual row.
// @Summary Update labor actual
// @Description Update a labor actual row by ID
// @Tags Labor
// @Accept json
// @Produce json
// @Param actual_id path int true "Labor actual ID"
// @Param request body models.LaborActual true "Labor actual"
// @Success 200 {object} models.LaborActual
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/labor-actuals/{actual_id} [put]
func UpdateLaborActual(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actualID, err := strconv.Atoi(c.Param("actual_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid labor actual ID"})
			return
		}

		var la models.LaborActual
		if err := c.ShouldBindJSON(&la); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if la.ActualHours < 0 || la.ActualCost < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Hours and cost must not be negative"})
			return
		}
		if !la.WeekEnding.IsZero() {
			la.WeekEnding = services.WeekEndingSunday(la.WeekEnding)
		}

		query := `
		UPDATE labor_actuals
		SET week_ending = $1, craft_type_id = $2, labor_category = $3,
		    actual_hours = $4, actual_cost = $5, actual_cost_with_burden = $6, burden_amount = $7,
		    description = $8, updated_at = NOW()
		WHERE id = $9`

		result, err := db.Exec(query, la.WeekEnding, la.CraftTypeID, la.LaborCategory,
			la.ActualHours, la.ActualCost, la.ActualCostWithBurden, la.BurdenAmount,
			la.Description, actualID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update labor actual", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Labor actual not found"})
			return
		}

		la.ID = actualID
		now := time.Now()
		la.UpdatedAt = &now
		c.JSON(http.StatusOK, la)
	}
}

// DeleteLaborActual removes one labor actual row.
// @Summary Delete labor actual
// @Description Delete a labor actual row by ID
// @Tags Labor
// @Accept json
// @Produce json
// @Param actual_id path int true "Labor actual ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/labor-actuals/{actual_id} [delete]
func DeleteLaborActual(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actualID, err := strconv.Atoi(c.Param("actual_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid labor actual ID"})
			return
		}

		result, err := db.Exec("DELETE FROM labor_actuals WHERE id = $1", actualID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete labor actual", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Labor actual not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Labor actual deleted"})
	}
}
