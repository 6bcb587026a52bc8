package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racetiming/timing"
)

type createCompetitionRequest struct {
	ConfigurationID string `json:"competitionConfigurationID"`
}

type registerNextCarRequest struct {
	Timestamp *int64 `json:"timestamp"`
	TrackID   string `json:"trackID"`
	CarID     string `json:"carID"`
}

type trackRequest struct {
	Timestamp *int64 `json:"timestamp"`
	TrackID   string `json:"trackID"`
}

type stopRequest struct {
	Timestamp *int64  `json:"timestamp"`
	TrackID   string  `json:"trackID"`
	CarID     *string `json:"carID,omitempty"`
}

type runningCarRequest struct {
	Timestamp *int64 `json:"timestamp"`
	TrackID   string `json:"trackID"`
	CarID     string `json:"carID"`
}

type recordRequest struct {
	Timestamp *int64 `json:"timestamp"`
	RecordID  string `json:"recordID"`
}

type recordCountRequest struct {
	Timestamp *int64 `json:"timestamp"`
	RecordID  string `json:"recordID"`
	Count     int    `json:"count"`
}

type recordTypeRequest struct {
	Timestamp  *int64 `json:"timestamp"`
	RecordID   string `json:"recordID"`
	RecordType string `json:"recordType"`
}

type trackRecordTypeRequest struct {
	Timestamp  *int64 `json:"timestamp"`
	TrackID    string `json:"trackID"`
	RecordType string `json:"recordType"`
}

type recordCreated struct {
	RecordID string `json:"recordID"`
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, name+" is required")
	}
	return nil
}

func timestamp(ts *int64) (int64, error) {
	if ts == nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "timestamp is required")
	}
	return *ts, nil
}

func accepted(c echo.Context, err error) error {
	if err != nil {
		return commandError(err)
	}
	return c.NoContent(http.StatusAccepted)
}

func created(c echo.Context, id timing.ResultID, err error) error {
	if err != nil {
		return commandError(err)
	}
	return c.JSON(http.StatusAccepted, recordCreated{RecordID: string(id)})
}

// CreateCompetition replaces the running competition with a fresh one.
func (h *Handler) CreateCompetition(c echo.Context) error {
	var req createCompetitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := required("competitionConfigurationID", req.ConfigurationID); err != nil {
		return err
	}
	err := h.app.CreateCompetition(c.Request().Context(), timing.ConfigurationID(req.ConfigurationID))
	return accepted(c, err)
}

// RegisterNextCar sets the car the next start launches. Without a timestamp
// the arrival time is used.
func (h *Handler) RegisterNextCar(c echo.Context) error {
	var req registerNextCarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := required("trackID", req.TrackID); err != nil {
		return err
	}
	if err := required("carID", req.CarID); err != nil {
		return err
	}
	ts := time.Now().UnixMilli()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	return accepted(c, h.app.RegisterNextCar(ts, timing.TrackID(req.TrackID), timing.EntryID(req.CarID)))
}

func (h *Handler) trackCommand(fn func(int64, timing.TrackID) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req trackRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := required("trackID", req.TrackID); err != nil {
			return err
		}
		ts, err := timestamp(req.Timestamp)
		if err != nil {
			return err
		}
		return accepted(c, fn(ts, timing.TrackID(req.TrackID)))
	}
}

func (h *Handler) Start(c echo.Context) error {
	return h.trackCommand(h.app.Start)(c)
}

// Stop finishes the named car, or the first running car when carID is absent.
func (h *Handler) Stop(c echo.Context) error {
	var req stopRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := required("trackID", req.TrackID); err != nil {
		return err
	}
	ts, err := timestamp(req.Timestamp)
	if err != nil {
		return err
	}
	var entry timing.EntryID
	if req.CarID != nil {
		if err := required("carID", *req.CarID); err != nil {
			return err
		}
		entry = timing.EntryID(*req.CarID)
	}
	id, err := h.app.Stop(ts, timing.TrackID(req.TrackID), entry)
	return created(c, id, err)
}

// RedFlag discards every running car on the track.
func (h *Handler) RedFlag(c echo.Context) error {
	return h.trackCommand(h.app.RedFlag)(c)
}

func (h *Handler) SetTrackRecordType(c echo.Context) error {
	var req trackRecordTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := required("trackID", req.TrackID); err != nil {
		return err
	}
	ts, err := timestamp(req.Timestamp)
	if err != nil {
		return err
	}
	return accepted(c, h.app.SetTrackRecordType(ts, timing.TrackID(req.TrackID), req.RecordType))
}

// runningCar binds a request addressed to one running car.
func runningCar(c echo.Context) (int64, timing.TrackID, timing.EntryID, error) {
	var req runningCarRequest
	if err := c.Bind(&req); err != nil {
		return 0, "", "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := required("trackID", req.TrackID); err != nil {
		return 0, "", "", err
	}
	if err := required("carID", req.CarID); err != nil {
		return 0, "", "", err
	}
	ts, err := timestamp(req.Timestamp)
	if err != nil {
		return 0, "", "", err
	}
	return ts, timing.TrackID(req.TrackID), timing.EntryID(req.CarID), nil
}

func (h *Handler) runningCarCommand(fn func(int64, timing.TrackID, timing.EntryID) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		ts, track, entry, err := runningCar(c)
		if err != nil {
			return err
		}
		return accepted(c, fn(ts, track, entry))
	}
}

func (h *Handler) MarkPylonTouch(c echo.Context) error {
	return h.runningCarCommand(h.app.MarkPylonTouch)(c)
}

func (h *Handler) RemovePylonTouch(c echo.Context) error {
	return h.runningCarCommand(h.app.RemovePylonTouch)(c)
}

func (h *Handler) MarkDerailment(c echo.Context) error {
	return h.runningCarCommand(h.app.MarkDerailment)(c)
}

func (h *Handler) RemoveDerailment(c echo.Context) error {
	return h.runningCarCommand(h.app.RemoveDerailment)(c)
}

func (h *Handler) MarkDNF(c echo.Context) error {
	ts, track, entry, err := runningCar(c)
	if err != nil {
		return err
	}
	id, err := h.app.MarkDNF(ts, track, entry)
	return created(c, id, err)
}

func (h *Handler) MarkMissCourse(c echo.Context) error {
	ts, track, entry, err := runningCar(c)
	if err != nil {
		return err
	}
	id, err := h.app.MarkMissCourse(ts, track, entry)
	return created(c, id, err)
}

func (h *Handler) recordCommand(fn func(int64, timing.ResultID) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req recordRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := required("recordID", req.RecordID); err != nil {
			return err
		}
		ts, err := timestamp(req.Timestamp)
		if err != nil {
			return err
		}
		return accepted(c, fn(ts, timing.ResultID(req.RecordID)))
	}
}

func (h *Handler) MarkDNFToRecord(c echo.Context) error {
	return h.recordCommand(h.app.MarkDNFToRecord)(c)
}

func (h *Handler) MarkMissCourseToRecord(c echo.Context) error {
	return h.recordCommand(h.app.MarkMissCourseToRecord)(c)
}

func (h *Handler) RemoveRecord(c echo.Context) error {
	return h.recordCommand(h.app.RemoveRecord)(c)
}

func (h *Handler) RecoveryRecord(c echo.Context) error {
	return h.recordCommand(h.app.RecoveryRecord)(c)
}

func (h *Handler) recordCountCommand(fn func(int64, timing.ResultID, int) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req recordCountRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := required("recordID", req.RecordID); err != nil {
			return err
		}
		if req.Count < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "count must not be negative")
		}
		ts, err := timestamp(req.Timestamp)
		if err != nil {
			return err
		}
		return accepted(c, fn(ts, timing.ResultID(req.RecordID), req.Count))
	}
}

func (h *Handler) ChangeRecordPylonTouchCount(c echo.Context) error {
	return h.recordCountCommand(h.app.ChangeRecordPylonTouchCount)(c)
}

func (h *Handler) ChangeRecordDerailmentCount(c echo.Context) error {
	return h.recordCountCommand(h.app.ChangeRecordDerailmentCount)(c)
}

func (h *Handler) ChangeRecordType(c echo.Context) error {
	var req recordTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := required("recordID", req.RecordID); err != nil {
		return err
	}
	ts, err := timestamp(req.Timestamp)
	if err != nil {
		return err
	}
	return accepted(c, h.app.ChangeRecordType(ts, timing.ResultID(req.RecordID), req.RecordType))
}
