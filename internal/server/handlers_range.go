package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vpp-platform/battery-service/internal/httputil"
	"github.com/vpp-platform/battery-service/internal/rangequery"
	"github.com/vpp-platform/battery-service/internal/telemetry"
	"github.com/vpp-platform/battery-service/pkg/types"
)

const rangeQueryFailedMessage = "an error occurred while querying the batteries"

// handleBatteryRange answers with a fixed JSON shape rather than the problem
// format: a summary, an empty-range message or {"error": ...}.
func (s *Server) handleBatteryRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := s.ranges.Evaluate(r.Context(), rangequery.Request{
		StartPostcode: q.Get("startPostCode"),
		EndPostcode:   q.Get("endPostCode"),
		StartCapacity: q.Get("startCapacity"),
		EndCapacity:   q.Get("endCapacity"),
	})
	if err != nil {
		var validationErr *rangequery.ValidationError
		if errors.As(err, &validationErr) {
			s.metrics.RecordRangeQuery(telemetry.RangeOutcomeInvalid, 0)
			httputil.RespondJSON(w, http.StatusBadRequest, types.BatteryRangeError{Error: validationErr.Message})
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Str("handler", "batteryRange").Msg("range query failed")
		s.metrics.RecordRangeQuery(telemetry.RangeOutcomeError, 0)
		httputil.RespondJSON(w, http.StatusInternalServerError, types.BatteryRangeError{Error: rangeQueryFailedMessage})
		return
	}

	if result.IsEmpty() {
		s.metrics.RecordRangeQuery(telemetry.RangeOutcomeEmpty, 0)
		httputil.RespondJSON(w, http.StatusOK, types.BatteryRangeEmpty{Message: types.RangeEmptyMessage})
		return
	}

	s.metrics.RecordRangeQuery(telemetry.RangeOutcomeMatched, len(result.Names))
	httputil.RespondJSON(w, http.StatusOK, types.BatteryRangeSummary{
		Batteries:       result.Names,
		TotalCapacity:   result.TotalCapacity,
		AverageCapacity: result.AverageCapacity,
	})
}
