package handlers

import (
	"backend/models"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// SearchClients searches clients by query params.
// @Summary Search clients
// @Description Search clients with optional query filters. Returns array of clients.
// @Tags Clients
// @Accept json
// @Produce json
// @Param client_id query string false "Client ID"
// @Param name query string false "Client name"
// @Param city query string false "City"
// @Param state query string false "State"
// @Success 200 {array} models.Client
// @Failure 500 {object} models.ErrorResponse
// @Router /api/client_search [get]
func SearchClients(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		baseQuery := `
		SELECT client_id, name, contact_person, contact_email, contact_number,
		       address, city, state, created_at, updated_at
		FROM clients
		WHERE 1=1`

		queryConditions := []string{}
		queryParams := []interface{}{}
		paramIndex := 1

		fieldMap := map[string]string{
			"client_id":     "client_id",
			"name":          "name",
			"contact_email": "contact_email",
			"city":          "city",
			"state":         "state",
		}

		for field, column := range fieldMap {
			if value := c.Query(field); value != "" {
				queryConditions = append(queryConditions, fmt.Sprintf("%s = $%d", column, paramIndex))
				queryParams = append(queryParams, value)
				paramIndex++
			}
		}

		if len(queryConditions) > 0 {
			baseQuery += " AND " + strings.Join(queryConditions, " AND ")
		}

		rows, err := db.Query(baseQuery, queryParams...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search clients", "details": err.Error()})
			return
		}
		defer rows.Close()

		var clients []models.Client
		for rows.Next() {
			var client models.Client
			err := rows.Scan(
				&client.ClientID, &client.Name, &client.ContactPerson, &client.ContactEmail,
				&client.ContactNumber, &client.Address, &client.City, &client.State,
				&client.CreatedAt, &client.UpdatedAt,
			)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning client details", "details": err.Error()})
				return
			}
			clients = append(clients, client)
		}

		if err = rows.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Row iteration error", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, clients)
	}
}

// GetAllClients returns all clients.
// @Summary Get all clients
// @Description Returns clients list ordered by name.
// @Tags Clients
// @Accept json
// @Produce json
// @Success 200 {array} models.Client
// @Failure 500 {object} models.ErrorResponse
// @Router /api/clients [get]
func GetAllClients(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
		SELECT client_id, name, contact_person, contact_email, contact_number,
		       address, city, state, created_at, updated_at
		FROM clients
		ORDER BY name`

		rows, err := db.Query(query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch clients", "details": err.Error()})
			return
		}
		defer rows.Close()

		var clients []models.Client
		for rows.Next() {
			var client models.Client
			err := rows.Scan(
				&client.ClientID, &client.Name, &client.ContactPerson, &client.ContactEmail,
				&client.ContactNumber, &client.Address, &client.City, &client.State,
				&client.CreatedAt, &client.UpdatedAt,
			)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning client details", "details": err.Error()})
				return
			}
			clients = append(clients, client)
		}

		c.JSON(http.StatusOK, clients)
	}
}

// CreateClient creates a new client.
// @Summary Create client
// @Description Create a new client record
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body models.Client true "Client"
// @Success 201 {object} models.Client
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/clients [post]
func CreateClient(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var client models.Client
		if err := c.ShouldBindJSON(&client); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		if strings.TrimSpace(client.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Client name is required"})
			return
		}

		query := `
		INSERT INTO clients (name, contact_person, contact_email, contact_number, address, city, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING client_id, created_at, updated_at`

		err := db.QueryRow(query, client.Name, client.ContactPerson, client.ContactEmail,
			client.ContactNumber, client.Address, client.City, client.State).
			Scan(&client.ClientID, &client.CreatedAt, &client.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, client)
	}
}

// UpdateClient updates an existing client.
// @Summary Update client
// @Description Update a client by ID
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param request body models.Client true "Client"
// @Success 200 {object} models.Client
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id} [put]
func UpdateClient(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
			return
		}

		var client models.Client
		if err := c.ShouldBindJSON(&client); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		query := `
		UPDATE clients
		SET name = $1, contact_person = $2, contact_email = $3, contact_number = $4,
		    address = $5, city = $6, state = $7, updated_at = NOW()
		WHERE client_id = $8`

		result, err := db.Exec(query, client.Name, client.ContactPerson, client.ContactEmail,
			client.ContactNumber, client.Address, client.City, client.State, clientID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update client", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}

		client.ClientID = clientID
		c.JSON(http.StatusOK, client)
	}
}

// DeleteClient removes a client.
// @Summary Delete client
// @Description Delete a client by ID. Fails if projects still reference it.
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/clients/{id} [delete]
func DeleteClient(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
			return
		}

		var projectCount int
		err = db.QueryRow("SELECT COUNT(*) FROM project WHERE client_id = $1", clientID).Scan(&projectCount)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check client projects", "details": err.Error()})
			return
		}
		if projectCount > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Client has projects and cannot be deleted", "project_count": projectCount})
			return
		}

		result, err := db.Exec("DELETE FROM clients WHERE client_id = $1", clientID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete client", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
	}
}
