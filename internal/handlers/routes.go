package handlers

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *mux.Router, h *Handler) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/fqdns", h.ListFQDNs).Methods("GET")
	api.HandleFunc("/query_data", h.GetEntry).Methods("GET")
	api.HandleFunc("/save_query_data", h.SaveEntry).Methods("POST")
	api.HandleFunc("/query_data/{fqdn}", h.DeleteEntry).Methods("DELETE")
	api.HandleFunc("/execute_query", h.ExecuteQuery).Methods("POST")
	api.HandleFunc("/health", h.Health).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
