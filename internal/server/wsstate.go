package server

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// handleWSState streams state events to a connected UI: an initial full
// snapshot, then every session/sensor/calibration change as it happens.
func handleWSState(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			app.Logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()

		snapshot := StateEvent{
			Type:        "snapshot",
			Session:     sessionPayload(app.Session.Snapshot()),
			Sensor:      app.sensorPayload(app.Tracker.Latest()),
			Calibration: calibrationPayload(app.Calibrator.State(), app.Calibrating()),
		}
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = wsjson.Write(writeCtx, conn, snapshot)
		cancel()
		if err != nil {
			app.Logger.Debug("websocket initial write failed", "error", err)
			return
		}

		ch := app.broker.Subscribe()
		defer app.broker.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case data := <-ch:
				writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				err := conn.Write(writeCtx, websocket.MessageText, data)
				cancel()
				if err != nil {
					app.Logger.Debug("websocket write ended", "error", err)
					return
				}
			}
		}
	}
}
