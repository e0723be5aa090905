package reservation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/roomkit/panelcore/internal/rest"
	"github.com/roomkit/panelcore/pkg/bridge"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type optionsResponse struct {
	Anchor       time.Time   `json:"anchor"`
	StartOptions []time.Time `json:"startOptions"`
	EndOptions   []time.Time `json:"endOptions"`
}

type createRequest struct {
	Subject   string    `json:"subject"`
	Organizer string    `json:"organizer"`
	Start     time.Time `json:"dtStart"`
	End       time.Time `json:"dtEnd"`
}

type extendRequest struct {
	Minutes int `json:"minutes"`
}

type searchRequest struct {
	Start    time.Time `json:"dtStart"`
	Duration int       `json:"duration"`
}

// GetOptions godoc
// @Summary Bookable start and end times
// @Description Resolves the reservation anchor and the start/end times
// @Description bookable from it. `tapped` anchors at a timeline tap;
// @Description `start` selects the start the end options are generated for.
// @Produce json
// @Param tapped query string false "Tapped timeline time (RFC 3339)"
// @Param start query string false "Chosen start time (RFC 3339)"
// @Success 200 {object} optionsResponse
// @Failure 409 {object} rest.ErrorResponse "Room not available"
// @Router /api/reservation/options [get]
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting reservation options")

	tapped, err := timeParam(r, "tapped")
	if err != nil {
		badRequest(w, "Invalid 'tapped' time format")
		return
	}
	start, err := timeParam(r, "start")
	if err != nil {
		badRequest(w, "Invalid 'start' time format")
		return
	}

	options, err := h.service.Options(tapped, start)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := optionsResponse{
		Anchor:       options.Anchor,
		StartOptions: options.StartOptions,
		EndOptions:   options.EndOptions,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetExtendOptions godoc
// @Summary Extend offsets for the current meeting
// @Produce json
// @Success 200 {object} map[string][]int
// @Failure 404 {object} rest.ErrorResponse "No current meeting"
// @Router /api/event/current/extend-options [get]
func (h *Handler) GetExtendOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting extend options")

	options, err := h.service.ExtendOptions()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if options == nil {
		options = []int{}
	}

	if err := json.NewEncoder(w).Encode(map[string][]int{"options": options}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CreateReservation godoc
// @Summary Reserve the room
// @Accept json
// @Success 201
// @Failure 400 {object} rest.ErrorResponse "Invalid draft"
// @Failure 409 {object} rest.ErrorResponse "Room not available or action in progress"
// @Router /api/reservation [post]
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Creating reservation")

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body format")
		return
	}

	err := h.service.Create(r.Context(), Draft{
		Subject:   req.Subject,
		Organizer: req.Organizer,
		Start:     req.Start,
		End:       req.End,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ExtendCurrent godoc
// @Summary Extend the current meeting
// @Accept json
// @Success 204
// @Router /api/event/current/extend [post]
func (h *Handler) ExtendCurrent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Extending current meeting")

	var req extendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body format")
		return
	}

	if err := h.service.ExtendCurrent(r.Context(), req.Minutes); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EndCurrent godoc
// @Summary End the current meeting now
// @Success 204
// @Router /api/event/current/end [post]
func (h *Handler) EndCurrent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Ending current meeting")

	if err := h.service.EndCurrent(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckIn godoc
// @Summary Check in the targeted meeting
// @Success 204
// @Router /api/event/checkin [post]
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Checking in meeting")

	if err := h.service.CheckIn(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchRooms godoc
// @Summary Search for other available rooms
// @Accept json
// @Success 204
// @Router /api/rooms/search [post]
func (h *Handler) SearchRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Searching rooms")

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body format")
		return
	}

	if err := h.service.SearchRoom(r.Context(), req.Start, req.Duration); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidDraft):
		badRequest(w, err.Error())
	case errors.Is(err, ErrNoCurrentEvent), errors.Is(err, ErrNothingToCheckIn):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRoomNotAvailable), errors.Is(err, ErrActionInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, bridge.ErrCommandFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
		Error: message,
	})
	if encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}
