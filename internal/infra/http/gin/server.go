package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"cleanmarket/internal/infra/config"
	"cleanmarket/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Accept(c *gin.Context)
	Decline(c *gin.Context)
	Schedule(c *gin.Context)
	OnTheWay(c *gin.Context)
	CheckIn(c *gin.Context)
	CheckOut(c *gin.Context)
	Approve(c *gin.Context)
	Cancel(c *gin.Context)
	CancellationQuote(c *gin.Context)
	Reschedule(c *gin.Context)
	FileDispute(c *gin.Context)
	DisputeWindow(c *gin.Context)
	SubmitReview(c *gin.Context)
}

type WorkerHTTP interface {
	CheckAvailability(c *gin.Context)
	Slots(c *gin.Context)
	Score(c *gin.Context)
	Recompute(c *gin.Context)
	RecomputeAll(c *gin.Context)
}

type GeofenceHTTP interface {
	Validate(c *gin.Context)
}

type Handlers struct {
	Booking     BookingHTTP
	Worker      WorkerHTTP
	Geofence    GeofenceHTTP
	Idempotency gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter registers every route. Missing handler groups are skipped.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", HeaderActorID, HeaderIdempotencyKey, obs.HeaderRequestID},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.HeaderRequestID,
			HeaderReplayed,
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Worker != nil {
		workers := api.Group("/workers/:id")
		workers.GET("/availability", h.Worker.CheckAvailability)
		workers.GET("/slots", h.Worker.Slots)
		workers.GET("/reliability", h.Worker.Score)
		workers.POST("/reliability/recompute", h.Worker.Recompute)
		api.POST("/reliability/recompute", h.Worker.RecomputeAll)
	}
	if h.Geofence != nil {
		api.POST("/geofence/validate", h.Geofence.Validate)
	}
	if h.Booking != nil {
		create := []gin.HandlerFunc{h.Booking.Create}
		if h.Idempotency != nil {
			create = append([]gin.HandlerFunc{h.Idempotency}, create...)
		}
		api.POST("/bookings", create...)
		bookings := api.Group("/bookings/:id")
		bookings.GET("", h.Booking.Get)
		bookings.POST("/accept", h.Booking.Accept)
		bookings.POST("/decline", h.Booking.Decline)
		bookings.POST("/schedule", h.Booking.Schedule)
		bookings.POST("/on-the-way", h.Booking.OnTheWay)
		bookings.POST("/check-in", h.Booking.CheckIn)
		bookings.POST("/check-out", h.Booking.CheckOut)
		bookings.POST("/approve", h.Booking.Approve)
		bookings.POST("/cancel", h.Booking.Cancel)
		bookings.GET("/cancellation-quote", h.Booking.CancellationQuote)
		bookings.POST("/reschedule", h.Booking.Reschedule)
		bookings.POST("/disputes", h.Booking.FileDispute)
		bookings.GET("/dispute-window", h.Booking.DisputeWindow)
		bookings.POST("/reviews", h.Booking.SubmitReview)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

var (
	_ BookingHTTP  = BookingHandler{}
	_ WorkerHTTP   = WorkerHandler{}
	_ GeofenceHTTP = GeofenceHandler{}
)
