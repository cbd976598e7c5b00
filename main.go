// @title           CostControl API
// @version         1.0
// @description     Construction project cost control backend - labor forecasting, budget import and PO tracking.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	_ "backend/docs" // placeholder spec; run `swag init` to regenerate the endpoint listing
	"backend/handlers"
	"backend/models"
	"backend/services"
	"backend/storage"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"https://costcontrol.example.com",
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer", "X-User-Email",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

var cronRunning int32

func safeGo(ctx context.Context, wg *sync.WaitGroup, name string, fn func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("%s failed: %v", name, err)
		} else {
			log.Printf("%s completed successfully", name)
		}
	}()
}

// runWeeklySnapshotJob records last week's labor totals for every active
// project in the activity log, and emails the configured recipient when SMTP
// credentials are present.
func runWeeklySnapshotJob(ctx context.Context, db *sql.DB) error {
	weekEnding := services.WeekEndingSunday(time.Now().UTC().AddDate(0, 0, -7))

	rows, err := db.QueryContext(ctx, `SELECT project_id, name FROM project WHERE status = 'active'`)
	if err != nil {
		return fmt.Errorf("failed to list active projects: %v", err)
	}
	defer rows.Close()

	type projectRef struct {
		id   int
		name string
	}
	var projects []projectRef
	for rows.Next() {
		var p projectRef
		if err := rows.Scan(&p.id, &p.name); err != nil {
			return err
		}
		projects = append(projects, p)
	}

	es := services.NewEmailService()
	recipient := os.Getenv("SNAPSHOT_RECIPIENT")

	for _, p := range projects {
		var totalHours, totalCost float64
		err := db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(actual_hours), 0),
		       COALESCE(SUM(COALESCE(actual_cost_with_burden, actual_cost)), 0)
		FROM labor_actuals
		WHERE project_id = $1 AND week_ending = $2`, p.id, weekEnding).
			Scan(&totalHours, &totalCost)
		if err != nil {
			log.Printf("Snapshot query failed for project %d: %v", p.id, err)
			continue
		}

		entry := models.ActivityLog{
			EventContext: "Weekly Snapshot",
			EventName:    "Snapshot",
			Description: fmt.Sprintf("Week ending %s: %.1f hours, $%.2f labor cost",
				weekEnding.Format("2006-01-02"), totalHours, totalCost),
			HostName:  "scheduler",
			ProjectID: p.id,
			CreatedAt: time.Now(),
		}
		if err := storage.LogActivity(db, entry); err != nil {
			log.Printf("Snapshot log failed for project %d: %v", p.id, err)
		}

		if recipient != "" && es.Configured() && totalHours > 0 {
			if err := es.SendWeeklySnapshotEmail(recipient, p.name, weekEnding, totalHours, totalCost); err != nil {
				log.Printf("Snapshot email failed for project %d: %v", p.id, err)
			}
		}
	}

	return nil
}

func main() {
	db := storage.InitDB()
	_ = storage.InitGormDB()

	credentialsPath := os.Getenv("FCM_CREDENTIALS_PATH")
	if credentialsPath == "" {
		credentialsPath = "firebase-credentials.json"
	}
	fcmService, err := services.NewFCMService(credentialsPath, db)
	if err != nil {
		log.Printf("Warning: Failed to initialize FCM service: %v. Push notifications will be disabled.", err)
		fcmService = nil
	} else {
		log.Println("FCM service initialized successfully")
	}

	// Nightly maintenance at 01:30: session cleanup plus the weekly labor
	// snapshot on Monday mornings.
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	_, err = c.AddFunc("30 1 * * *", func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		var wg sync.WaitGroup

		safeGo(ctx, &wg, "CleanupExpiredSessions", func(ctx context.Context) error {
			return storage.CleanupExpiredSessions(db)
		})

		if time.Now().UTC().Weekday() == time.Monday {
			safeGo(ctx, &wg, "WeeklySnapshotJob", func(ctx context.Context) error {
				return runWeeklySnapshotJob(ctx, db)
			})
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All cron jobs finished")
		case <-ctx.Done():
			log.Println("Cron timeout reached, jobs cancelled")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule maintenance cron job: %v", err)
	}
	c.Start()

	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH & SESSIONS ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/refresh-token", handlers.RefreshTokenHandler(db))
	r.POST("/api/validate-session", handlers.ValidateSession(db))
	r.DELETE("/api/session/:user_id", handlers.DeleteSessionHandler(db))
	r.GET("/api/active-devices", handlers.GetActiveDevicesHandler(db))
	r.POST("/api/logout-device", handlers.LogoutDeviceHandler(db))

	// ==================== 2. USERS ====================
	r.GET("/api/users", handlers.GetAllUsers(db))
	r.GET("/api/users/:id", handlers.GetUser(db))
	r.POST("/api/users", handlers.CreateUser(db))
	r.PUT("/api/users/:id", handlers.UpdateUser(db))
	r.DELETE("/api/users/:id", handlers.DeleteUser(db))

	// ==================== 3. CLIENTS ====================
	r.GET("/api/clients", handlers.GetAllClients(db))
	r.GET("/api/client_search", handlers.SearchClients(db))
	r.POST("/api/clients", handlers.CreateClient(db))
	r.PUT("/api/clients/:id", handlers.UpdateClient(db))
	r.DELETE("/api/clients/:id", handlers.DeleteClient(db))

	// ==================== 4. PROJECTS ====================
	r.GET("/api/projects", handlers.GetAllProjects(db))
	r.GET("/api/projects/:id", handlers.GetProjectByID(db))
	r.POST("/api/projects", handlers.CreateProject(db))
	r.PUT("/api/projects/:id", handlers.UpdateProject(db))
	r.DELETE("/api/projects/:id", handlers.DeleteProject(db))

	// ==================== 5. CRAFT TYPES ====================
	r.GET("/api/craft-types", handlers.GetCraftTypes(db))
	r.POST("/api/craft-types", handlers.CreateCraftType(db))
	r.PUT("/api/craft-types/:id", handlers.UpdateCraftType(db))
	r.DELETE("/api/craft-types/:id", handlers.DeleteCraftType(db))

	// ==================== 6. LABOR ACTUALS ====================
	r.GET("/api/projects/:id/labor-actuals", handlers.GetLaborActuals(db))
	r.POST("/api/projects/:id/labor-actuals", handlers.CreateLaborActual(db))
	r.PUT("/api/labor-actuals/:actual_id", handlers.UpdateLaborActual(db))
	r.DELETE("/api/labor-actuals/:actual_id", handlers.DeleteLaborActual(db))

	// ==================== 7. LABOR FORECAST ====================
	r.GET("/api/projects/:id/forecast", handlers.GetForecastSeries(db))
	r.PUT("/api/projects/:id/forecast/headcount", handlers.SetForecastHeadcount(db))
	r.PUT("/api/projects/:id/forecast/hours", handlers.SetForecastHours(db))
	r.POST("/api/projects/:id/forecast/copy-forward", handlers.CopyForecastForward(db))
	r.DELETE("/api/projects/:id/forecast", handlers.ClearForecast(db))

	// ==================== 8. BUDGET IMPORT ====================
	r.POST("/api/projects/:id/budget-import/preview", handlers.PreviewBudgetImport(db))
	r.POST("/api/projects/:id/budget-import", handlers.CommitBudgetImport(db, fcmService))
	r.GET("/api/projects/:id/budget-line-items", handlers.GetBudgetLineItems(db))
	r.GET("/api/projects/:id/wbs", handlers.GetWBSTree(db))

	// ==================== 9. PURCHASE ORDERS ====================
	r.GET("/api/projects/:id/purchase-orders", handlers.GetPurchaseOrders(db))
	r.POST("/api/projects/:id/purchase-orders", handlers.CreatePurchaseOrder(db))
	r.PUT("/api/purchase-orders/:po_id", handlers.UpdatePurchaseOrder(db))
	r.DELETE("/api/purchase-orders/:po_id", handlers.DeletePurchaseOrder(db))
	r.GET("/api/projects/:id/po-forecast", handlers.GetPOForecast(db))

	// ==================== 10. CHANGE ORDERS ====================
	r.GET("/api/projects/:id/change-orders", handlers.GetChangeOrders())
	r.POST("/api/projects/:id/change-orders", handlers.CreateChangeOrder())
	r.PUT("/api/change-orders/:co_id", handlers.UpdateChangeOrder())
	r.DELETE("/api/change-orders/:co_id", handlers.DeleteChangeOrder())

	// ==================== 11. DASHBOARDS ====================
	r.GET("/api/projects/:id/dashboard/labor", handlers.GetLaborDashboard(db))
	r.GET("/api/projects/:id/dashboard/summary", handlers.GetProjectSummary(db))

	// ==================== 12. EXPORTS ====================
	r.GET("/api/projects/:id/export/budget", handlers.ExportBudgetWorkbook(db))
	r.GET("/api/projects/:id/export/summary-pdf", handlers.GenerateProjectSummaryPDF(db))
	r.GET("/api/projects/:id/export/qr", handlers.GenerateProjectQRCode(db))

	// ==================== 13. ACTIVITY LOGS ====================
	r.GET("/api/logs", handlers.GetActivityLogsHandler(db))
	r.GET("/api/log/search", handlers.SearchActivityLogsHandler(db))

	// ==================== 14. NOTIFICATIONS ====================
	r.GET("/api/notifications", handlers.GetMyNotificationsHandler(db))
	r.PUT("/api/notifications/:id/read", handlers.MarkNotificationAsReadHandler(db))
	r.PUT("/api/notifications/read-all", handlers.MarkAllNotificationsAsReadHandler(db))
	r.DELETE("/api/notifications/:id", handlers.DeleteNotificationHandler(db))
	r.POST("/api/fcm/register-token", handlers.RegisterFCMTokenHandler(db, fcmService))
	r.DELETE("/api/fcm/remove-token", handlers.RemoveFCMTokenHandler(db, fcmService))

	// ==================== 15. SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	portInt, err := strconv.Atoi(port)
	if err != nil || portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT environment variable: %s", port)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cronCtx := c.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(10 * time.Second):
		log.Println("Cron jobs did not finish in time")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
