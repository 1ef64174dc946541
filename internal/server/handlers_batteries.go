package server

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/vpp-platform/battery-service/internal/audit"
	"github.com/vpp-platform/battery-service/internal/events"
	"github.com/vpp-platform/battery-service/internal/httputil"
	"github.com/vpp-platform/battery-service/internal/model"
	"github.com/vpp-platform/battery-service/internal/store"
	"github.com/vpp-platform/battery-service/pkg/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	duplicateNameDetail = "Battery with the same name already exists"
)

// Postcodes are stored as text and compared as BIGINT, so at most 18 digits.
var postcodePattern = regexp.MustCompile(`^[0-9]{1,18}$`)

func (s *Server) handleCreateBattery(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	logger := log.Ctx(r.Context()).With().Str("handler", "createBattery").Logger()

	completion := audit.Completion{
		Event:     audit.EventBatteryCreate,
		RequestID: middleware.GetReqID(r.Context()),
		CallerSub: callerSubject(r),
	}
	defer func() {
		completion.Duration = time.Since(started)
		s.audit.Complete(completion)
	}()
	fail := func(status int, detail string) {
		completion.Result = "rejected"
		if status >= http.StatusInternalServerError {
			completion.Result = "error"
		}
		completion.ResponseCode = status
		completion.ErrorDetail = detail
	}

	var req types.CreateBatteryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		fail(http.StatusBadRequest, err.Error())
		httputil.RespondProblemf(w, r, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	completion.BatteryName = req.Name

	if errs := validateCreateRequest(req); len(errs) > 0 {
		fail(http.StatusUnprocessableEntity, "request validation failed")
		httputil.RespondValidationProblem(w, r, errs)
		return
	}

	exists, err := s.store.ExistsByName(r.Context(), req.Name)
	if err != nil {
		logger.Error().Err(err).Msg("failed to check battery name")
		fail(http.StatusInternalServerError, err.Error())
		httputil.RespondProblem(w, r, http.StatusInternalServerError, "failed to create battery")
		return
	}
	if exists {
		fail(http.StatusConflict, duplicateNameDetail)
		httputil.RespondProblem(w, r, http.StatusConflict, duplicateNameDetail)
		return
	}

	created, err := s.store.CreateBattery(r.Context(), model.Battery{
		Name:     req.Name,
		Postcode: req.Postcode,
		Capacity: req.Capacity,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			fail(http.StatusConflict, duplicateNameDetail)
			httputil.RespondProblem(w, r, http.StatusConflict, duplicateNameDetail)
			return
		}
		logger.Error().Err(err).Msg("failed to create battery")
		fail(http.StatusInternalServerError, err.Error())
		httputil.RespondProblem(w, r, http.StatusInternalServerError, "failed to create battery")
		return
	}

	s.metrics.RecordBatteryCreated()
	s.publishCreated(r, created)

	completion.Result = "success"
	completion.ResponseCode = http.StatusCreated
	completion.BatteryID = created.IDString()

	w.Header().Set("Location", batteryLocation(created.ID))
	httputil.RespondJSON(w, http.StatusCreated, toBatteryResource(created))
}

// publishCreated emits the created event. Failures are logged and never
// surface to the caller since the battery is already stored.
func (s *Server) publishCreated(r *http.Request, b model.Battery) {
	logger := log.Ctx(r.Context())

	event, err := events.NewBatteryCreatedEvent(b)
	if err != nil {
		logger.Warn().Err(err).Int64("battery_id", b.ID).Msg("failed to build battery created event")
		return
	}
	if err := s.publisher.Publish(r.Context(), event); err != nil {
		logger.Warn().Err(err).Str("event_id", event.ID).Int64("battery_id", b.ID).Msg("failed to publish battery created event")
	}
}

func (s *Server) handleListBatteries(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		httputil.RespondProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := s.store.ListBatteries(r.Context(), opts)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("handler", "listBatteries").Msg("failed to list batteries")
		httputil.RespondProblem(w, r, http.StatusInternalServerError, "failed to list batteries")
		return
	}

	resources := make([]types.Resource[types.Battery], 0, len(items))
	for _, item := range items {
		resources = append(resources, toBatteryResource(item))
	}

	httputil.RespondJSON(w, http.StatusOK, types.ResourceList[types.Battery]{
		Kind:       types.KindBatteryList,
		APIVersion: types.APIVersion,
		Metadata: types.ListMetadata{
			Total:  total,
			Limit:  opts.Limit,
			Offset: opts.Offset,
		},
		Items: resources,
	})
}

func (s *Server) handleGetBattery(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondProblemf(w, r, http.StatusBadRequest, "invalid battery id %q", raw)
		return
	}

	battery, err := s.store.GetBattery(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondProblemf(w, r, http.StatusNotFound, "battery %d not found", id)
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Str("handler", "getBattery").Int64("battery_id", id).Msg("failed to get battery")
		httputil.RespondProblem(w, r, http.StatusInternalServerError, "failed to get battery")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, toBatteryResource(battery))
}

func validateCreateRequest(req types.CreateBatteryRequest) []types.ValidationError {
	var errs []types.ValidationError

	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, types.ValidationError{Field: "name", Message: "name is required"})
	}
	switch {
	case strings.TrimSpace(req.Postcode) == "":
		errs = append(errs, types.ValidationError{Field: "postcode", Message: "postcode is required"})
	case !postcodePattern.MatchString(req.Postcode):
		errs = append(errs, types.ValidationError{Field: "postcode", Message: "postcode must contain 1 to 18 digits"})
	}
	switch {
	case req.Capacity <= 0:
		errs = append(errs, types.ValidationError{Field: "capacity", Message: "capacity must be a positive number"})
	case req.Capacity > model.MaxCapacity:
		errs = append(errs, types.ValidationError{
			Field:   "capacity",
			Message: fmt.Sprintf("capacity must not exceed %d", model.MaxCapacity),
		})
	}

	return errs
}

func parseListOptions(r *http.Request) (store.ListOptions, error) {
	q := r.URL.Query()
	opts := store.ListOptions{
		Limit:     defaultListLimit,
		SortField: store.SortByID,
	}

	if value := strings.TrimSpace(q.Get("limit")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return store.ListOptions{}, fmt.Errorf("invalid limit value %q", value)
		}
		opts.Limit = min(parsed, maxListLimit)
	}

	if value := strings.TrimSpace(q.Get("offset")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			return store.ListOptions{}, fmt.Errorf("invalid offset value %q", value)
		}
		opts.Offset = parsed
	}

	if value := strings.TrimSpace(q.Get("sort")); value != "" {
		if !store.IsValidSortField(value) {
			return store.ListOptions{}, fmt.Errorf("invalid sort field %q", value)
		}
		opts.SortField = value
	}

	switch value := strings.ToLower(strings.TrimSpace(q.Get("direction"))); value {
	case "", "asc":
	case "desc":
		opts.Descending = true
	default:
		return store.ListOptions{}, fmt.Errorf("invalid direction value %q", value)
	}

	return opts, nil
}

func batteryLocation(id int64) string {
	return apiPrefix + "/batteries/" + strconv.FormatInt(id, 10)
}

func toBatteryResource(b model.Battery) types.Resource[types.Battery] {
	return types.Resource[types.Battery]{
		Kind:       types.KindBattery,
		APIVersion: types.APIVersion,
		Metadata: types.Metadata{
			ID:        b.IDString(),
			CreatedAt: b.CreatedAt.UTC(),
		},
		Spec: types.Battery{
			Name:     b.Name,
			Postcode: b.Postcode,
			Capacity: b.Capacity,
		},
	}
}
