package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetCraftTypes returns all craft types.
// @Summary Get craft types
// @Description Returns the craft type catalog. Pass active=true to exclude retired crafts.
// @Tags CraftTypes
// @Accept json
// @Produce json
// @Param active query bool false "Only active craft types"
// @Success 200 {array} models.CraftType
// @Failure 500 {object} models.ErrorResponse
// @Router /api/craft-types [get]
func GetCraftTypes(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
		SELECT id, code, name, category, COALESCE(default_rate, 0), billing_rate, is_active
		FROM craft_types`
		if c.Query("active") == "true" {
			query += " WHERE is_active = true"
		}
		query += " ORDER BY name"

		rows, err := db.Query(query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch craft types", "details": err.Error()})
			return
		}
		defer rows.Close()

		var crafts []models.CraftType
		for rows.Next() {
			var ct models.CraftType
			var billing sql.NullFloat64
			err := rows.Scan(&ct.ID, &ct.Code, &ct.Name, &ct.Category, &ct.DefaultRate, &billing, &ct.IsActive)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning craft type", "details": err.Error()})
				return
			}
			if billing.Valid {
				v := billing.Float64
				ct.BillingRate = &v
			}
			crafts = append(crafts, ct)
		}

		c.JSON(http.StatusOK, crafts)
	}
}

// CreateCraftType creates a new craft type.
// @Summary Create craft type
// @Description Create a craft type. Category must be direct, indirect or staff.
// @Tags CraftTypes
// @Accept json
// @Produce json
// @Param request body models.CraftType true "Craft type"
// @Success 201 {object} models.CraftType
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/craft-types [post]
func CreateCraftType(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ct models.CraftType
		if err := c.ShouldBindJSON(&ct); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		ct.Code = strings.ToUpper(strings.TrimSpace(ct.Code))
		ct.Category = strings.ToLower(strings.TrimSpace(ct.Category))
		if ct.Code == "" || strings.TrimSpace(ct.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Code and name are required"})
			return
		}
		switch ct.Category {
		case "direct", "indirect", "staff":
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category must be direct, indirect or staff"})
			return
		}

		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM craft_types WHERE code = $1)", ct.Code).Scan(&exists)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check craft code", "details": err.Error()})
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "Craft code already exists"})
			return
		}

		ct.IsActive = true
		query := `
		INSERT INTO craft_types (code, name, category, default_rate, billing_rate, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING id`

		err = db.QueryRow(query, ct.Code, ct.Name, ct.Category, ct.DefaultRate, ct.BillingRate).Scan(&ct.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create craft type", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, ct)
	}
}

// UpdateCraftType updates an existing craft type.
// @Summary Update craft type
// @Description Update a craft type by ID
// @Tags CraftTypes
// @Accept json
// @Produce json
// @Param id path int true "Craft type ID"
// @Param request body models.CraftType true "Craft type"
// @Success 200 {object} models.CraftType
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/craft-types/{id} [put]
func UpdateCraftType(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		craftID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid craft type ID"})
			return
		}

		var ct models.CraftType
		if err := c.ShouldBindJSON(&ct); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		ct.Category = strings.ToLower(strings.TrimSpace(ct.Category))
		switch ct.Category {
		case "direct", "indirect", "staff":
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category must be direct, indirect or staff"})
			return
		}

		query := `
		UPDATE craft_types
		SET name = $1, category = $2, default_rate = $3, billing_rate = $4, is_active = $5
		WHERE id = $6`

		result, err := db.Exec(query, ct.Name, ct.Category, ct.DefaultRate, ct.BillingRate, ct.IsActive, craftID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update craft type", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Craft type not found"})
			return
		}

		ct.ID = craftID
		c.JSON(http.StatusOK, ct)
	}
}

// DeleteCraftType retires a craft type. Rows referenced by labor actuals are
// deactivated instead of deleted so historical data keeps its classification.
// @Summary Delete craft type
// @Description Delete a craft type, or deactivate it when labor history references it
// @Tags CraftTypes
// @Accept json
// @Produce json
// @Param id path int true "Craft type ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/craft-types/{id} [delete]
func DeleteCraftType(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		craftID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid craft type ID"})
			return
		}

		var referenced bool
		err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM labor_actuals WHERE craft_type_id = $1)", craftID).Scan(&referenced)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check craft usage", "details": err.Error()})
			return
		}

		if referenced {
			result, err := db.Exec("UPDATE craft_types SET is_active = false WHERE id = $1", craftID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate craft type", "details": err.Error()})
				return
			}
			rowsAffected, _ := result.RowsAffected()
			if rowsAffected == 0 {
				c.JSON(http.StatusNotFound, gin.H{"error": "Craft type not found"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Craft type deactivated (labor history references it)"})
			return
		}

		result, err := db.Exec("DELETE FROM craft_types WHERE id = $1", craftID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete craft type", "details": err.Error()})
			return
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Craft type not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Craft type deleted"})
	}
}
