package status

import (
	"net/http"
	"testing"
	"time"

	"github.com/driptide/irrigationd/internal/controller"
	"github.com/driptide/irrigationd/internal/telemetry"
	"github.com/driptide/irrigationd/utils"
)

func TestGetStatus(t *testing.T) {
	t.Run("Succeed in reading the current status", func(t *testing.T) {
		tracker := telemetry.NewTracker(telemetry.Snapshot{
			State:        controller.StateWatering,
			Raw:          432,
			Average:      441,
			DryThreshold: 450,
			WetThreshold: 520,
			TankOK:       true,
			PumpOn:       true,
			Elapsed:      12 * time.Second,
			At:           time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		})
		h := NewHandler(tracker, nil)

		rr := utils.TestRequest(t, http.MethodGet, "/v1/status", nil, h.handlerStatusGet)

		utils.TestExpectedStatus(t, rr, http.StatusOK)
		utils.TestExpectedMessage(t, rr, `"state":"WATERING"`)
		utils.TestExpectedMessage(t, rr, `"average":441`)
		utils.TestExpectedMessage(t, rr, `"pump_on":true`)
	})

	t.Run("Report zero values before the first sample", func(t *testing.T) {
		tracker := telemetry.NewTracker(telemetry.Snapshot{State: controller.StateIdle})
		h := NewHandler(tracker, nil)

		rr := utils.TestRequest(t, http.MethodGet, "/v1/status", nil, h.handlerStatusGet)

		utils.TestExpectedStatus(t, rr, http.StatusOK)
		utils.TestExpectedMessage(t, rr, `"state":"IDLE"`)
		utils.TestExpectedMessage(t, rr, `"raw":0`)
	})
}
