package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racetiming/timing"
)

type registeredNextCarResponse struct {
	CarID *timing.EntryID `json:"carID,omitempty"`
}

type runningCarsResponse struct {
	CarIDs []timing.EntryID `json:"carIDs"`
}

type currentTracksResponse struct {
	TrackIDs []timing.TrackID `json:"trackIDs"`
}

type stateTreeResponse struct {
	State string `json:"state"`
}

func (h *Handler) GetRegisteredNextCar(c echo.Context) error {
	track := c.QueryParam("trackID")
	if err := required("trackID", track); err != nil {
		return err
	}
	entry, ok, err := h.app.RegisteredNextCar(timing.TrackID(track))
	if err != nil {
		return commandError(err)
	}
	var resp registeredNextCarResponse
	if ok {
		resp.CarID = &entry
	}
	return c.JSON(http.StatusOK, resp)
}

// GetRunningCars lists running cars on a track, longest running first.
func (h *Handler) GetRunningCars(c echo.Context) error {
	track := c.QueryParam("trackID")
	if err := required("trackID", track); err != nil {
		return err
	}
	running, err := h.app.RunningCars(timing.TrackID(track))
	if err != nil {
		return commandError(err)
	}
	if running == nil {
		running = []timing.EntryID{}
	}
	return c.JSON(http.StatusOK, runningCarsResponse{CarIDs: running})
}

func (h *Handler) GetCurrentTracks(c echo.Context) error {
	tracks, err := h.app.CurrentTracks()
	if err != nil {
		return commandError(err)
	}
	return c.JSON(http.StatusOK, currentTracksResponse{TrackIDs: tracks})
}

func (h *Handler) GetStateTree(c echo.Context) error {
	tree, err := h.app.StateTree()
	if err != nil {
		return commandError(err)
	}
	return c.JSON(http.StatusOK, stateTreeResponse{State: tree})
}
