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

// GetLaborDashboard returns the labor analytics block for a project: KPIs,
// per-craft breakdown, weekly trend and the period grid. Everything is
// derived from one dataset fetch so the numbers agree with each other.
// @Summary Get labor dashboard
// @Description Returns labor KPIs, craft breakdown, weekly trend and period breakdown for a project
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/dashboard/labor [get]
func GetLaborDashboard(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		ctx, cancel := utils.GetSlowQueryContext(c.Request.Context())
		defer cancel()

		dataset, err := repository.FetchLaborDataset(ctx, db, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch labor data", "details": err.Error()})
			return
		}

		craftBudgets, err := repository.FetchCraftBudgets(ctx, db, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch craft budgets", "details": err.Error()})
			return
		}

		actuals := services.NormalizeActuals(dataset.Actuals, dataset.CraftTypes)
		forecasts := services.NormalizeForecasts(dataset.Forecasts, dataset.CraftTypes)
		rates := services.CalculateCategoryRates(actuals)
		series := services.BuildWeeklySeries(actuals, forecasts, rates, time.Now().UTC(), 0)

		c.JSON(http.StatusOK, gin.H{
			"kpis":             services.BuildLaborKPIs(actuals, dataset.LaborBudget, dataset.HoursBudget),
			"craft_breakdown":  services.BuildCraftBreakdown(dataset.Actuals, dataset.CraftTypes, craftBudgets),
			"weekly_trend":     services.BuildWeeklyTrend(series),
			"period_breakdown": services.BuildPeriodBreakdown(series),
			"labor_budget":     dataset.LaborBudget,
			"hours_budget":     dataset.HoursBudget,
		})
	}
}

// GetWBSTree returns the committed work breakdown structure for a project,
// reassembled into a tree from the flat stored rows.
// @Summary Get WBS tree
// @Description Returns the project's work breakdown structure as a nested tree with rolled-up totals
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} models.WBSNode
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/wbs [get]
func GetWBSTree(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		rows, err := db.Query(`
		SELECT code, parent_code, level, description, budget_total, manhours_total, material_cost
		FROM wbs_nodes
		WHERE project_id = $1
		ORDER BY level, code`, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch WBS nodes", "details": err.Error()})
			return
		}
		defer rows.Close()

		byCode := map[string]*models.WBSNode{}
		var ordered []*models.WBSNode
		for rows.Next() {
			var node models.WBSNode
			var parent sql.NullString
			err := rows.Scan(&node.Code, &parent, &node.Level, &node.Description,
				&node.BudgetTotal, &node.ManhoursTotal, &node.MaterialCost)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning WBS node", "details": err.Error()})
				return
			}
			if parent.Valid {
				v := parent.String
				node.ParentCode = &v
			}
			byCode[node.Code] = &node
			ordered = append(ordered, &node)
		}

		var roots []*models.WBSNode
		for _, node := range ordered {
			if node.ParentCode != nil {
				if p, ok := byCode[*node.ParentCode]; ok {
					p.Children = append(p.Children, node)
					continue
				}
			}
			roots = append(roots, node)
		}

		c.JSON(http.StatusOK, roots)
	}
}

// GetProjectSummary returns the top-level cost picture for a project: budget,
// change orders, labor to date and the PO forecast, combined into one card.
// @Summary Get project summary
// @Description Returns the combined cost summary for a project dashboard header
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/dashboard/summary [get]
func GetProjectSummary(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var p models.Project
		err = db.QueryRow(`
		SELECT project_id, job_number, name, status,
		       COALESCE(original_budget, 0), COALESCE(revised_budget, 0),
		       COALESCE(labor_budget, 0), COALESCE(manhours_budget, 0)
		FROM project WHERE project_id = $1`, projectID).
			Scan(&p.ProjectID, &p.JobNumber, &p.Name, &p.Status,
				&p.OriginalBudget, &p.RevisedBudget, &p.LaborBudget, &p.ManhoursBudget)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project", "details": err.Error()})
			return
		}

		var budgetTotal, laborHours, laborCost float64
		_ = db.QueryRow("SELECT COALESCE(SUM(total_cost), 0) FROM budget_line_items WHERE project_id = $1", projectID).
			Scan(&budgetTotal)
		_ = db.QueryRow(`
		SELECT COALESCE(SUM(actual_hours), 0),
		       COALESCE(SUM(COALESCE(actual_cost_with_burden, actual_cost)), 0)
		FROM labor_actuals WHERE project_id = $1`, projectID).
			Scan(&laborHours, &laborCost)

		var approvedCOs, pendingCOs float64
		_ = db.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN status = 'approved' THEN amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status IN ('pending', 'submitted') THEN amount ELSE 0 END), 0)
		FROM change_orders WHERE project_id = $1`, projectID).
			Scan(&approvedCOs, &pendingCOs)

		rows, err := db.Query(`SELECT `+poSelectColumns+` FROM purchase_orders WHERE project_id = $1`, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchase orders", "details": err.Error()})
			return
		}
		defer rows.Close()

		var pos []models.PurchaseOrder
		for rows.Next() {
			po, err := scanPurchaseOrder(rows)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning purchase order", "details": err.Error()})
				return
			}
			pos = append(pos, po)
		}
		poTotals := services.CalculateTotalPOForecast(pos)

		c.JSON(http.StatusOK, gin.H{
			"project":                p,
			"imported_budget":        services.SanitizeFinite(budgetTotal),
			"labor_hours_to_date":    services.SanitizeFinite(laborHours),
			"labor_cost_to_date":     services.SanitizeFinite(laborCost),
			"approved_change_orders": services.SanitizeFinite(approvedCOs),
			"pending_change_orders":  services.SanitizeFinite(pendingCOs),
			"po_forecast":            poTotals,
		})
	}
}
