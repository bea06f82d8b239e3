package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes wires the API surface onto a router.
func Routes(video *VideoHandler, question *QuestionHandler, health *HealthHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", health.HandleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos", video.HandleIngest).Methods(http.MethodPost)
	api.HandleFunc("/videos", video.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}", video.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}", video.HandleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/videos/{id}/questions", question.HandleAsk).Methods(http.MethodPost)
	api.HandleFunc("/videos/{id}/questions", question.HandleHistory).Methods(http.MethodGet)

	return r
}
