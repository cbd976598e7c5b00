package handlers

import (
	"backend/models"
	"backend/utils"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const userSelectColumns = `id, COALESCE(employee_id, ''), email, first_name, last_name,
       COALESCE(role, 'viewer'), COALESCE(phone_no, ''), COALESCE(suspended, false),
       created_at, updated_at`

func scanUser(rows interface {
	Scan(dest ...interface{}) error
}) (models.User, error) {
	var u models.User
	err := rows.Scan(&u.ID, &u.EmployeeId, &u.Email, &u.FirstName, &u.LastName,
		&u.Role, &u.PhoneNo, &u.Suspended, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetAllUsers returns all users. Passwords are never included.
// @Summary Get all users
// @Description Returns the user list ordered by name
// @Tags Users
// @Accept json
// @Produce json
// @Success 200 {array} models.User
// @Failure 500 {object} models.ErrorResponse
// @Router /api/users [get]
func GetAllUsers(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := db.Query(`SELECT ` + userSelectColumns + ` FROM users ORDER BY first_name, last_name`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users", "details": err.Error()})
			return
		}
		defer rows.Close()

		var users []models.User
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning user", "details": err.Error()})
				return
			}
			users = append(users, u)
		}

		c.JSON(http.StatusOK, users)
	}
}

// GetUser returns one user by ID.
// @Summary Get user
// @Description Returns one user by ID
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /api/users/{id} [get]
func GetUser(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}

		u, err := scanUser(db.QueryRow(`SELECT `+userSelectColumns+` FROM users WHERE id = $1`, userID))
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, u)
	}
}

// CreateUser creates a new user with a bcrypt-hashed password.
// @Summary Create user
// @Description Create a user account. The password is stored hashed.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body models.User true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/users [post]
func CreateUser(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var u models.User
		if err := c.ShouldBindJSON(&u); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if u.Email == "" || u.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
			return
		}
		if u.Role == "" {
			u.Role = "viewer"
		}

		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = $1)", u.Email).Scan(&exists)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email", "details": err.Error()})
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}

		hashed, err := utils.HashPassword(u.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password", "details": err.Error()})
			return
		}

		query := `
		INSERT INTO users (employee_id, email, password, first_name, last_name, role, phone_no, suspended, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, NOW(), NOW())
		RETURNING id, created_at, updated_at`

		err = db.QueryRow(query, u.EmployeeId, u.Email, hashed, u.FirstName, u.LastName, u.Role, u.PhoneNo).
			Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": err.Error()})
			return
		}

		u.Password = ""
		c.JSON(http.StatusCreated, u)
	}
}

// UpdateUser updates a user's profile. A non-empty password is re-hashed;
// an empty one leaves the stored hash alone.
// @Summary Update user
// @Description Update a user by ID
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body models.User true "User"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/users/{id} [put]
func UpdateUser(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}

		var u models.User
		if err := c.ShouldBindJSON(&u); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		var result sql.Result
		if u.Password != "" {
			hashed, err := utils.HashPassword(u.Password)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password", "details": err.Error()})
				return
			}
			result, err = db.Exec(`
			UPDATE users
			SET employee_id = $1, first_name = $2, last_name = $3, role = $4, phone_no = $5,
			    suspended = $6, password = $7, updated_at = NOW()
			WHERE id = $8`,
				u.EmployeeId, u.FirstName, u.LastName, u.Role, u.PhoneNo, u.Suspended, hashed, userID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user", "details": err.Error()})
				return
			}
		} else {
			result, err = db.Exec(`
			UPDATE users
			SET employee_id = $1, first_name = $2, last_name = $3, role = $4, phone_no = $5,
			    suspended = $6, updated_at = NOW()
			WHERE id = $7`,
				u.EmployeeId, u.FirstName, u.LastName, u.Role, u.PhoneNo, u.Suspended, userID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user", "details": err.Error()})
				return
			}
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		u.ID = userID
		u.Password = ""
		c.JSON(http.StatusOK, u)
	}
}

// DeleteUser removes a user and their sessions.
// @Summary Delete user
// @Description Delete a user by ID together with their sessions and refresh tokens
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/users/{id} [delete]
func DeleteUser(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec("DELETE FROM session WHERE user_id = $1", userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete sessions", "details": err.Error()})
			return
		}

		result, err := tx.Exec("DELETE FROM users WHERE id = $1", userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user", "details": err.Error()})
			return
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}
