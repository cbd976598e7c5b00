package handlers

import (
	"backend/models"
	"backend/storage"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Change orders are the one table managed through GORM rather than raw SQL;
// the model carries its own schema tags and is auto-migrated at startup.

// GetChangeOrders lists a project's change orders.
// @Summary Get change orders
// @Description Returns all change orders for a project, optionally filtered by status
// @Tags ChangeOrders
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param status query string false "Change order status"
// @Success 200 {array} models.ChangeOrder
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/change-orders [get]
func GetChangeOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		gdb := storage.GetGormDB()
		if gdb == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database not available"})
			return
		}

		query := gdb.Where("project_id = ?", projectID)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var orders []models.ChangeOrder
		if err := query.Order("co_number").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch change orders", "details": err.Error()})
			return
		}

		var approvedAmount, pendingAmount float64
		for _, co := range orders {
			switch co.Status {
			case "approved":
				approvedAmount += co.Amount
			case "pending", "submitted":
				pendingAmount += co.Amount
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"change_orders":   orders,
			"approved_amount": approvedAmount,
			"pending_amount":  pendingAmount,
		})
	}
}

// CreateChangeOrder creates a new change order.
// @Summary Create change order
// @Description Create a change order for a project
// @Tags ChangeOrders
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body models.ChangeOrder true "Change order"
// @Success 201 {object} models.ChangeOrder
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/projects/{id}/change-orders [post]
func CreateChangeOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var co models.ChangeOrder
		if err := c.ShouldBindJSON(&co); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if strings.TrimSpace(co.CONumber) == "" || strings.TrimSpace(co.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "CO number and title are required"})
			return
		}
		co.ID = 0
		co.ProjectID = projectID
		if co.Status == "" {
			co.Status = "pending"
		}

		gdb := storage.GetGormDB()
		if gdb == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database not available"})
			return
		}

		var count int64
		gdb.Model(&models.ChangeOrder{}).
			Where("project_id = ? AND co_number = ?", projectID, co.CONumber).
			Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "CO number already exists for this project"})
			return
		}

		if err := gdb.Create(&co).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create change order", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, co)
	}
}

// UpdateChangeOrder updates an existing change order. Moving a change order
// into "approved" stamps the approval date if the caller did not supply one.
// @Summary Update change order
// @Description Update a change order by ID
// @Tags ChangeOrders
// @Accept json
// @Produce json
// @Param co_id path int true "Change order ID"
// @Param request body models.ChangeOrder true "Change order"
// @Success 200 {object} models.ChangeOrder
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/change-orders/{co_id} [put]
func UpdateChangeOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		coID, err := strconv.Atoi(c.Param("co_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid change order ID"})
			return
		}

		var input models.ChangeOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		gdb := storage.GetGormDB()
		if gdb == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database not available"})
			return
		}

		var co models.ChangeOrder
		if err := gdb.First(&co, coID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Change order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch change order", "details": err.Error()})
			return
		}

		co.Title = input.Title
		co.Description = input.Description
		co.Amount = input.Amount
		co.ManhoursDelta = input.ManhoursDelta
		co.SubmittedDate = input.SubmittedDate
		co.ApprovedDate = input.ApprovedDate
		if input.Status != "" {
			co.Status = input.Status
		}
		if co.Status == "approved" && co.ApprovedDate == nil {
			now := time.Now()
			co.ApprovedDate = &now
		}

		if err := gdb.Save(&co).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update change order", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, co)
	}
}

// DeleteChangeOrder removes a change order.
// @Summary Delete change order
// @Description Delete a change order by ID
// @Tags ChangeOrders
// @Accept json
// @Produce json
// @Param co_id path int true "Change order ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/change-orders/{co_id} [delete]
func DeleteChangeOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		coID, err := strconv.Atoi(c.Param("co_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid change order ID"})
			return
		}

		gdb := storage.GetGormDB()
		if gdb == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database not available"})
			return
		}

		result := gdb.Delete(&models.ChangeOrder{}, coID)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete change order", "details": result.Error.Error()})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Change order not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Change order deleted"})
	}
}
