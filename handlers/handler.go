package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/racetiming/app"
	mw "github.com/padraicbc/racetiming/middleware"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	app              *app.App
	db               *bun.DB
	log              *zap.Logger
	subscriberBuffer int
	JWTKey           []byte
	Admins           []string
}

// New creates a Handler serving the given competition app. db holds the
// operator accounts used by Signin.
func New(a *app.App, db *bun.DB, jwtKey []byte, log *zap.Logger, subscriberBuffer int) *Handler {
	if subscriberBuffer < 1 {
		subscriberBuffer = 1
	}
	return &Handler{app: a, db: db, log: log, subscriberBuffer: subscriberBuffer, JWTKey: jwtKey}
}

// Register mounts the public sign-in route and the protected /api group.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/signin", h.Signin)

	api := e.Group("/api", mw.JWT(h.JWTKey))
	api.POST("/password-hash", h.PasswordHash)

	api.POST("/create-competition", h.CreateCompetition)
	api.POST("/register-next-car", h.RegisterNextCar)
	api.POST("/start", h.Start)
	api.POST("/stop", h.Stop)
	api.POST("/red-flag", h.RedFlag)
	api.POST("/mark-pylon-touch", h.MarkPylonTouch)
	api.POST("/remove-pylon-touch", h.RemovePylonTouch)
	api.POST("/mark-derailment", h.MarkDerailment)
	api.POST("/remove-derailment", h.RemoveDerailment)
	api.POST("/mark-dnf", h.MarkDNF)
	api.POST("/mark-miss-course", h.MarkMissCourse)
	api.POST("/set-track-record-type", h.SetTrackRecordType)
	api.POST("/mark-dnf-to-record", h.MarkDNFToRecord)
	api.POST("/mark-miss-course-to-record", h.MarkMissCourseToRecord)
	api.POST("/remove-record", h.RemoveRecord)
	api.POST("/recovery-record", h.RecoveryRecord)
	api.POST("/change-record-pylon-touch-count", h.ChangeRecordPylonTouchCount)
	api.POST("/change-record-derailment-count", h.ChangeRecordDerailmentCount)
	api.POST("/change-record-type", h.ChangeRecordType)

	api.GET("/registered-next-car", h.GetRegisteredNextCar)
	api.GET("/running-cars", h.GetRunningCars)
	api.GET("/tracks", h.GetCurrentTracks)
	api.GET("/state-tree", h.GetStateTree)
	api.GET("/subscribe-state-change", h.SubscribeStateChange)
}
