package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Bridge feed (inbound payloads from the panel bridge)
	r.HandleFunc("/bridge/config", deps.FeedHandler.ApplyConfig).Methods("POST")
	r.HandleFunc("/bridge/timeline", deps.FeedHandler.ApplyTimeline).Methods("POST")
	r.HandleFunc("/bridge/events", deps.FeedHandler.ApplyEvents).Methods("POST")
	r.HandleFunc("/bridge/provider-status", deps.FeedHandler.ApplyProviderStatus).Methods("POST")

	// Room view-model
	r.HandleFunc("/api/room", deps.RoomHandler.GetRoom).Methods("GET")
	r.HandleFunc("/api/room/timeline", deps.RoomHandler.GetTimeline).Methods("GET")

	// Reservation flow
	r.HandleFunc("/api/reservation/options", deps.ReservationHandler.GetOptions).Methods("GET")
	r.HandleFunc("/api/reservation", deps.ReservationHandler.CreateReservation).Methods("POST")

	// Current meeting actions
	r.HandleFunc("/api/event/current/extend-options", deps.ReservationHandler.GetExtendOptions).Methods("GET")
	r.HandleFunc("/api/event/current/extend", deps.ReservationHandler.ExtendCurrent).Methods("POST")
	r.HandleFunc("/api/event/current/end", deps.ReservationHandler.EndCurrent).Methods("POST")
	r.HandleFunc("/api/event/checkin", deps.ReservationHandler.CheckIn).Methods("POST")

	// Room search
	r.HandleFunc("/api/rooms/search", deps.ReservationHandler.SearchRooms).Methods("POST")
}
