package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classledger/internal/attendance"
	"classledger/internal/auth"
	"classledger/internal/config"
	"classledger/internal/handler"
	"classledger/internal/httpmiddleware"
	"classledger/internal/school"
	"classledger/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

// rosterAdapter lets the attendance core read rosters from the school service.
type rosterAdapter struct {
	school *school.Service
}

func (a rosterAdapter) Roster(ctx context.Context, classID string) ([]attendance.RosterStudent, error) {
	students, err := a.school.Roster(ctx, classID)
	if err != nil {
		return nil, err
	}
	roster := make([]attendance.RosterStudent, 0, len(students))
	for _, st := range students {
		roster = append(roster, attendance.RosterStudent{ID: st.ID, Name: st.Name, RollNo: st.RollNo})
	}
	return roster, nil
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	schoolRepo := school.NewRepository(db.Client)
	rosterCache := school.NewRosterCache(redisClient, cfg.RosterCacheTTL)
	schoolSvc := school.NewService(schoolRepo, rosterCache)

	attRepo := attendance.NewRepository(db.Client)
	attSvc := attendance.NewService(attRepo, rosterAdapter{school: schoolSvc})

	h := handler.New(schoolSvc, attSvc, handler.AuthConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
		TokenTTL:   cfg.TokenTTL,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	bearer := auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer)

	teacher := r.Group("/api/teacher")
	{
		teacher.POST("/register", h.RegisterTeacher)
		teacher.POST("/login", h.LoginTeacher)
		teacher.GET("/profile", bearer, h.GetProfile)
		teacher.PUT("/profile", bearer, h.UpdateProfile)
	}

	student := r.Group("/api/student", bearer)
	{
		student.POST("", h.AddStudent)
		student.GET("", h.GetStudents)
		student.GET("/:id", h.GetStudentByID)
		student.GET("/class/:classId", h.GetStudentsByClass)
		student.PUT("/:id", h.UpdateStudent)
		student.DELETE("/:id", h.DeleteStudent)
	}

	class := r.Group("/api/class", bearer)
	{
		class.POST("/addClass", h.AddClass)
		class.GET("/all-classes", h.GetClasses)
		class.GET("/:id", h.GetClassByID)
		class.PUT("/:id", h.UpdateClass)
		class.DELETE("/:id", h.DeleteClass)
	}

	subject := r.Group("/api/subject", bearer)
	{
		subject.POST("", h.CreateSubject)
		subject.GET("/all-subjects", h.GetAllSubjects)
		subject.GET("/:id", h.GetSubjectByID)
		subject.PUT("/:id", h.UpdateSubject)
		subject.DELETE("/:id", h.DeleteSubject)
	}

	att := r.Group("/api/attendance", bearer)
	{
		att.POST("/mark", h.MarkAttendance)
		att.GET("", h.GetAttendance)
		att.GET("/report", h.GetAttendanceReport)
		att.GET("/report/daily", h.GetDailyAttendanceReport)
		att.GET("/trends", h.GetAttendanceTrends)
		att.GET("/debug", h.DebugAttendance)
		att.GET("/student/:studentId/report", h.GetStudentAttendanceReport)
	}

	admin := r.Group("/api/admin", bearer, auth.RequireRole(school.RoleAdmin))
	{
		admin.POST("/teacher/add-class", h.AddClassToTeacher)
		admin.POST("/teacher/remove-class", h.RemoveClassFromTeacher)
		admin.POST("/teacher/add-subject", h.AddSubjectToTeacher)
		admin.POST("/teacher/remove-subject", h.RemoveSubjectFromTeacher)
		admin.DELETE("/teacher/:id", h.DeleteTeacher)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
