package handlers

import (
	"backend/repository"
	"backend/services"
	"backend/utils"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// buildForecastSeries assembles the merged actual/forecast weekly series for
// a project: fetch everything in parallel, normalize craft-tagged rows into
// category-tagged ones, derive realized category rates, then build the series.
func buildForecastSeries(c *gin.Context, db *sql.DB, projectID, horizonWeeks int) (*services.ForecastSeries, *repository.LaborDataset, error) {
	ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
	defer cancel()

	dataset, err := repository.FetchLaborDataset(ctx, db, projectID)
	if err != nil {
		return nil, nil, err
	}

	actuals := services.NormalizeActuals(dataset.Actuals, dataset.CraftTypes)
	forecasts := services.NormalizeForecasts(dataset.Forecasts, dataset.CraftTypes)
	rates := services.CalculateCategoryRates(actuals)

	series := services.BuildWeeklySeries(actuals, forecasts, rates, time.Now().UTC(), horizonWeeks)
	return series, dataset, nil
}

// weekIndex locates a week in the series by its week-ending date. Any date
// inside the week matches; returns -1 when the week is outside the series.
func weekIndex(series *services.ForecastSeries, weekEnding time.Time) int {
	target := services.WeekEndingSunday(weekEnding).Format("2006-01-02")
	for i, wd := range series.Weeks {
		if wd.WeekEnding.Format("2006-01-02") == target {
			return i
		}
	}
	return -1
}

// persistForecastWeeks rewrites the headcount_forecasts rows for the given
// series indices inside one transaction. Each forecast week is stored as one
// row per labor category with a non-zero headcount; actual weeks are skipped.
func persistForecastWeeks(db *sql.DB, projectID int, series *services.ForecastSeries, indices []int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, i := range indices {
		wd := series.Weeks[i]
		if wd.IsActual {
			continue
		}

		if _, err := tx.Exec("DELETE FROM headcount_forecasts WHERE project_id = $1 AND week_starting = $2",
			projectID, wd.WeekEnding); err != nil {
			return err
		}

		for _, cat := range services.LaborCategories {
			entry := wd.Entry(cat)
			if entry.Headcount <= 0 {
				continue
			}
			_, err := tx.Exec(`
			INSERT INTO headcount_forecasts (project_id, week_starting, labor_category, headcount, avg_weekly_hours, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
				projectID, wd.WeekEnding, cat, entry.Headcount, wd.HoursPerWeek)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetForecastSeries returns the merged weekly labor series.
// @Summary Get forecast series
// @Description Returns the continuous actual+forecast weekly labor series for a project
// @Tags Forecast
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param horizon query int false "Forecast horizon in weeks (default 26)"
// @Success 200 {object} services.ForecastSeries
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/forecast [get]
func GetForecastSeries(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		horizon := 0
		if h := c.Query("horizon"); h != "" {
			horizon, err = strconv.Atoi(h)
			if err != nil || horizon < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid horizon"})
				return
			}
		}

		series, dataset, err := buildForecastSeries(c, db, projectID, horizon)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build forecast series", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"weeks":        series.Weeks,
			"labor_budget": dataset.LaborBudget,
			"hours_budget": dataset.HoursBudget,
		})
	}
}

type headcountEditRequest struct {
	WeekEnding time.Time `json:"week_ending" binding:"required"`
	Category   string    `json:"category" binding:"required"`
	Headcount  float64   `json:"headcount"`
}

// SetForecastHeadcount edits one category's headcount on a forecast week.
// @Summary Set forecast headcount
// @Description Edit one labor category's headcount for a forecast week. Actual weeks are rejected.
// @Tags Forecast
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body headcountEditRequest true "Edit"
// @Success 200 {object} services.ForecastSeries
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/projects/{id}/forecast/headcount [put]
func SetForecastHeadcount(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var req headcountEditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		series, _, err := buildForecastSeries(c, db, projectID, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build forecast series", "details": err.Error()})
			return
		}

		index := weekIndex(series, req.WeekEnding)
		if index == -1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Week is outside the forecast window"})
			return
		}

		if err := series.SetHeadcount(index, req.Category, req.Headcount); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		if err := persistForecastWeeks(db, projectID, series, []int{index}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save forecast", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, series)
	}
}

type hoursEditRequest struct {
	WeekEnding   time.Time `json:"week_ending" binding:"required"`
	HoursPerWeek float64   `json:"hours_per_week"`
}

// SetForecastHours edits a forecast week's hours-per-person.
// @Summary Set forecast weekly hours
// @Description Edit the hours-per-person figure for a forecast week. Actual weeks are rejected.
// @Tags Forecast
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body hoursEditRequest true "Edit"
// @Success 200 {object} services.ForecastSeries
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/projects/{id}/forecast/hours [put]
func SetForecastHours(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var req hoursEditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		series, _, err := buildForecastSeries(c, db, projectID, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build forecast series", "details": err.Error()})
			return
		}

		index := weekIndex(series, req.WeekEnding)
		if index == -1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Week is outside the forecast window"})
			return
		}

		if err := series.SetHoursPerWeek(index, req.HoursPerWeek); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		if err := persistForecastWeeks(db, projectID, series, []int{index}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save forecast", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, series)
	}
}

type copyForwardRequest struct {
	WeekEnding time.Time `json:"week_ending" binding:"required"`
	All        bool      `json:"all"`
}

// CopyForecastForward copies a week's staffing into following forecast weeks.
// @Summary Copy forecast forward
// @Description Copy headcount and weekly hours from one week into the next 4 forecast weeks, or all remaining weeks
// @Tags Forecast
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body copyForwardRequest true "Copy request"
// @Success 200 {object} services.ForecastSeries
// @Failure 400 {object} models.ErrorResponse
// @Router /api/projects/{id}/forecast/copy-forward [post]
func CopyForecastForward(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var req copyForwardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		series, _, err := buildForecastSeries(c, db, projectID, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build forecast series", "details": err.Error()})
			return
		}

		index := weekIndex(series, req.WeekEnding)
		if index == -1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Week is outside the forecast window"})
			return
		}

		if err := series.CopyForward(index, req.All); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		changed := []int{}
		for i := index + 1; i < len(series.Weeks); i++ {
			if !req.All && i > index+4 {
				break
			}
			if !series.Weeks[i].IsActual {
				changed = append(changed, i)
			}
		}
		if err := persistForecastWeeks(db, projectID, series, changed); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save forecast", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, series)
	}
}

// ClearForecast zeroes every forecast week for a project.
// @Summary Clear forecast
// @Description Remove all forecast staffing for a project. Actual weeks are untouched.
// @Tags Forecast
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/forecast [delete]
func ClearForecast(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		if _, err := db.Exec("DELETE FROM headcount_forecasts WHERE project_id = $1", projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear forecast", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Forecast cleared"})
	}
}
