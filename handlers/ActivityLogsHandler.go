package handlers

import (
	"backend/models"
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func getStringOrEmpty(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func getIntOrZero(ni sql.NullInt64) int {
	if ni.Valid {
		return int(ni.Int64)
	}
	return 0
}

func scanActivityLog(rows *sql.Rows) (models.ActivityLog, error) {
	var (
		entry        models.ActivityLog
		userName     sql.NullString
		hostName     sql.NullString
		eventContext sql.NullString
		ipAddress    sql.NullString
		description  sql.NullString
		eventName    sql.NullString
		projectID    sql.NullInt64
	)

	err := rows.Scan(&entry.ID, &entry.CreatedAt, &userName, &hostName, &eventContext,
		&ipAddress, &description, &eventName, &projectID)
	if err != nil {
		return entry, err
	}

	entry.UserName = getStringOrEmpty(userName)
	entry.HostName = getStringOrEmpty(hostName)
	entry.EventContext = getStringOrEmpty(eventContext)
	entry.IPAddress = getStringOrEmpty(ipAddress)
	entry.Description = getStringOrEmpty(description)
	entry.EventName = getStringOrEmpty(eventName)
	entry.ProjectID = getIntOrZero(projectID)
	return entry, nil
}

// GetActivityLogsHandler godoc
// @Summary      Get activity logs
// @Tags         activity-logs
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Limit"
// @Param        project_id query int false "Project ID"
// @Success      200    {object}  object
// @Router       /api/logs [get]
func GetActivityLogsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err != nil || limit < 1 {
			limit = 10
		}
		offset := (page - 1) * limit

		where := ""
		countArgs := []interface{}{}
		if projectID := c.Query("project_id"); projectID != "" {
			id, err := strconv.Atoi(projectID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project_id"})
				return
			}
			where = " WHERE project_id = $1"
			countArgs = append(countArgs, id)
		}

		var totalRecords int
		if err := db.QueryRow("SELECT COUNT(*) FROM activity_logs"+where, countArgs...).Scan(&totalRecords); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting logs"})
			return
		}

		totalPages := int(math.Ceil(float64(totalRecords) / float64(limit)))

		query := `
		SELECT id, created_at, user_name, host_name, event_context, ip_address,
		       description, event_name, project_id
		FROM activity_logs` + where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(len(countArgs)+1) + ` OFFSET $` + strconv.Itoa(len(countArgs)+2)

		args := append(countArgs, limit, offset)
		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error querying logs"})
			return
		}
		defer rows.Close()

		var logs []models.ActivityLog
		for rows.Next() {
			entry, err := scanActivityLog(rows)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning logs"})
				return
			}
			logs = append(logs, entry)
		}

		c.JSON(http.StatusOK, gin.H{
			"logs": logs,
			"pagination": gin.H{
				"current_page":  page,
				"page_size":     limit,
				"total_records": totalRecords,
				"total_pages":   totalPages,
				"has_next":      page < totalPages,
				"has_prev":      page > 1,
			},
		})
	}
}

// SearchActivityLogsHandler godoc
// @Summary      Search activity logs
// @Tags         activity-logs
// @Param        event_context  query  string  false  "Event context"
// @Param        event_name     query  string  false  "Event name"
// @Param        user_name      query  string  false  "User name"
// @Success      200  {object}  object
// @Router       /api/log/search [get]
func SearchActivityLogsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := map[string]string{
			"user_name":     c.Query("user_name"),
			"host_name":     c.Query("host_name"),
			"event_context": c.Query("event_context"),
			"ip_address":    c.Query("ip_address"),
			"description":   c.Query("description"),
			"event_name":    c.Query("event_name"),
			"project_id":    c.Query("project_id"),
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 10
		}
		offset := (page - 1) * limit

		whereClauses := []string{}
		args := []interface{}{}
		argIndex := 1

		for key, value := range filters {
			strVal := strings.TrimSpace(value)
			if strVal == "" {
				continue
			}

			if key == "project_id" {
				val, err := strconv.Atoi(strVal)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project_id"})
					return
				}
				whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", key, argIndex))
				args = append(args, val)
			} else {
				whereClauses = append(whereClauses, fmt.Sprintf("%s ILIKE $%d", key, argIndex))
				args = append(args, "%"+strVal+"%")
			}
			argIndex++
		}

		countQuery := "SELECT COUNT(*) FROM activity_logs"
		if len(whereClauses) > 0 {
			countQuery += " WHERE " + strings.Join(whereClauses, " AND ")
		}

		var totalRecords int
		if err := db.QueryRow(countQuery, args...).Scan(&totalRecords); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting logs"})
			return
		}

		totalPages := int(math.Ceil(float64(totalRecords) / float64(limit)))

		selectQuery := `
		SELECT id, created_at, user_name, host_name, event_context, ip_address,
		       description, event_name, project_id
		FROM activity_logs`
		if len(whereClauses) > 0 {
			selectQuery += " WHERE " + strings.Join(whereClauses, " AND ")
		}
		selectQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, limit, offset)

		rows, err := db.Query(selectQuery, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error searching logs"})
			return
		}
		defer rows.Close()

		var logs []models.ActivityLog
		for rows.Next() {
			entry, err := scanActivityLog(rows)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning logs"})
				return
			}
			logs = append(logs, entry)
		}

		c.JSON(http.StatusOK, gin.H{
			"logs": logs,
			"pagination": gin.H{
				"current_page":  page,
				"page_size":     limit,
				"total_records": totalRecords,
				"total_pages":   totalPages,
				"has_next":      page < totalPages,
				"has_prev":      page > 1,
			},
		})
	}
}
