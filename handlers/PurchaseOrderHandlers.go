package handlers

import (
	"backend/models"
	"backend/services"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func scanPurchaseOrder(rows interface {
	Scan(dest ...interface{}) error
}) (models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	var committed, invoiced, forecast, finalCost sql.NullFloat64
	var issueDate sql.NullTime

	err := rows.Scan(&po.POID, &po.ProjectID, &po.PONumber, &po.VendorName, &po.Description,
		&po.Status, &committed, &invoiced, &forecast, &finalCost, &issueDate,
		&po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return po, err
	}
	if committed.Valid {
		v := committed.Float64
		po.CommittedAmount = &v
	}
	if invoiced.Valid {
		v := invoiced.Float64
		po.InvoicedAmount = &v
	}
	if forecast.Valid {
		v := forecast.Float64
		po.ForecastAmount = &v
	}
	if finalCost.Valid {
		v := finalCost.Float64
		po.ForecastedFinalCost = &v
	}
	if issueDate.Valid {
		t := issueDate.Time
		po.IssueDate = &t
	}
	return po, nil
}

const poSelectColumns = `po_id, project_id, po_number, vendor_name, COALESCE(description, ''),
       status, committed_amount, invoiced_amount, forecast_amount, forecasted_final_cost,
       issue_date, created_at, updated_at`

// GetPurchaseOrders lists a project's purchase orders.
// @Summary Get purchase orders
// @Description Returns all purchase orders for a project
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} models.PurchaseOrder
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/purchase-orders [get]
func GetPurchaseOrders(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		rows, err := db.Query(`SELECT `+poSelectColumns+` FROM purchase_orders WHERE project_id = $1 ORDER BY po_number`, projectID)
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

		c.JSON(http.StatusOK, pos)
	}
}

// GetPOForecast returns the aggregated purchase order forecast for a project.
// Each PO contributes its best available forecast figure, floored at the
// already-invoiced amount.
// @Summary Get PO forecast
// @Description Returns committed/invoiced/forecast totals plus per-PO forecast values
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/po-forecast [get]
func GetPOForecast(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		rows, err := db.Query(`SELECT `+poSelectColumns+` FROM purchase_orders WHERE project_id = $1 ORDER BY po_number`, projectID)
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

		totals := services.CalculateTotalPOForecast(pos)

		type poForecastRow struct {
			POID     int     `json:"po_id"`
			PONumber string  `json:"po_number"`
			Vendor   string  `json:"vendor_name"`
			Forecast float64 `json:"forecast"`
		}
		perPO := make([]poForecastRow, 0, len(pos))
		for _, po := range pos {
			perPO = append(perPO, poForecastRow{
				POID:     po.POID,
				PONumber: po.PONumber,
				Vendor:   po.VendorName,
				Forecast: services.CalculatePOForecast(po),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"totals":          totals,
			"purchase_orders": perPO,
		})
	}
}

// CreatePurchaseOrder creates a new purchase order.
// @Summary Create purchase order
// @Description Create a purchase order for a project
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body models.PurchaseOrder true "Purchase order"
// @Success 201 {object} models.PurchaseOrder
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/projects/{id}/purchase-orders [post]
func CreatePurchaseOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var po models.PurchaseOrder
		if err := c.ShouldBindJSON(&po); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if strings.TrimSpace(po.PONumber) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "PO number is required"})
			return
		}
		po.ProjectID = projectID
		if po.Status == "" {
			po.Status = "open"
		}

		var exists bool
		err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM purchase_orders WHERE project_id = $1 AND po_number = $2)",
			projectID, po.PONumber).Scan(&exists)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check PO number", "details": err.Error()})
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "PO number already exists for this project"})
			return
		}

		query := `
		INSERT INTO purchase_orders (project_id, po_number, vendor_name, description, status,
		                             committed_amount, invoiced_amount, forecast_amount, forecasted_final_cost,
		                             issue_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING po_id, created_at, updated_at`

		err = db.QueryRow(query, po.ProjectID, po.PONumber, po.VendorName, po.Description, po.Status,
			po.CommittedAmount, po.InvoicedAmount, po.ForecastAmount, po.ForecastedFinalCost, po.IssueDate).
			Scan(&po.POID, &po.CreatedAt, &po.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create purchase order", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, po)
	}
}

// UpdatePurchaseOrder updates an existing purchase order.
// @Summary Update purchase order
// @Description Update a purchase order by ID
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param po_id path int true "PO ID"
// @Param request body models.PurchaseOrder true "Purchase order"
// @Success 200 {object} models.PurchaseOrder
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/purchase-orders/{po_id} [put]
func UpdatePurchaseOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		poID, err := strconv.Atoi(c.Param("po_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid PO ID"})
			return
		}

		var po models.PurchaseOrder
		if err := c.ShouldBindJSON(&po); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		query := `
		UPDATE purchase_orders
		SET vendor_name = $1, description = $2, status = $3,
		    committed_amount = $4, invoiced_amount = $5, forecast_amount = $6, forecasted_final_cost = $7,
		    issue_date = $8, updated_at = NOW()
		WHERE po_id = $9`

		result, err := db.Exec(query, po.VendorName, po.Description, po.Status,
			po.CommittedAmount, po.InvoicedAmount, po.ForecastAmount, po.ForecastedFinalCost,
			po.IssueDate, poID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update purchase order", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}

		po.POID = poID
		c.JSON(http.StatusOK, po)
	}
}

// DeletePurchaseOrder removes a purchase order.
// @Summary Delete purchase order
// @Description Delete a purchase order by ID
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param po_id path int true "PO ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/purchase-orders/{po_id} [delete]
func DeletePurchaseOrder(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		poID, err := strconv.Atoi(c.Param("po_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid PO ID"})
			return
		}

		result, err := db.Exec("DELETE FROM purchase_orders WHERE po_id = $1", poID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete purchase order", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Purchase order deleted"})
	}
}
