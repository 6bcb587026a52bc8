package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racetiming/app"
	"github.com/padraicbc/racetiming/timing"
)

var notFound = []error{
	timing.ErrNoSuchTrack,
	timing.ErrNoSuchRecord,
	app.ErrCompetitionConfigurationNotFound,
}

var rejected = []error{
	timing.ErrTimerAlreadyStarted,
	timing.ErrTimerNotStarted,
	timing.ErrTrackNextCarNotRegistered,
	timing.ErrTrackOverlapLimitExceeded,
	timing.ErrTrackSpecifiedCarNotFound,
	timing.ErrTrackNobodyRunning,
	app.ErrCompetitionNotConfigured,
}

// commandError maps a domain error to an HTTP error. Rejected commands are
// reported as failed preconditions; unknown ids as not found.
func commandError(err error) error {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
	}
	for _, target := range rejected {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusPreconditionFailed, err.Error())
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
