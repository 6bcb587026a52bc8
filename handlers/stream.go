package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SubscribeStateChange streams the state tree as server-sent events, one
// "state" event per coalesced change. The first event carries the current
// state. The stream ends when the client goes away.
func (h *Handler) SubscribeStateChange(c echo.Context) error {
	ctx := c.Request().Context()
	updates := h.app.Subscribe(ctx, h.subscriberBuffer)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	user, _ := c.Get("username").(string)
	h.log.Info("state stream opened", zap.String("username", user))
	sent := 0
	for tree := range updates {
		if err := writeEvent(w, "state", tree); err != nil {
			h.log.Debug("state stream write failed", zap.Error(err))
			break
		}
		w.Flush()
		sent++
	}
	h.log.Info("state stream closed", zap.String("username", user), zap.Int("events", sent))
	return nil
}

// writeEvent writes one event, splitting multi-line data across data fields.
func writeEvent(w io.Writer, event, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(strings.TrimSuffix(data, "\n"), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
