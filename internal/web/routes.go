package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/patrikzak/attendo/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	employeesHandler := handlers.NewEmployeesHandler(s.store)
	facesHandler := handlers.NewFacesHandler(s.recognizer, s.store)
	attendanceHandler := handlers.NewAttendanceHandler(s.recognizer, s.attendance, s.store)
	statsHandler := handlers.NewStatsHandler(s.store)
	settingsHandler := handlers.NewSettingsHandler(s.store)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Employees
		r.Get("/employees", employeesHandler.List)
		r.Post("/employees", employeesHandler.Create)
		r.Get("/employees/{employeeId}", employeesHandler.Get)
		r.Put("/employees/{employeeId}", employeesHandler.Update)
		r.Delete("/employees/{employeeId}", employeesHandler.Delete)
		r.Get("/employees/{employeeId}/attendance", attendanceHandler.Monthly)

		// Face enrollment
		r.Post("/face/detect", facesHandler.Detect)
		r.Post("/face/quality", facesHandler.Quality)
		r.Post("/face/register", facesHandler.Register)
		r.Delete("/face/{employeeId}", facesHandler.Delete)

		// Attendance
		r.Post("/attendance/check-in", attendanceHandler.CheckIn)
		r.Post("/attendance/check-out", attendanceHandler.CheckOut)
		r.Post("/attendance/scan", attendanceHandler.Scan)
		r.Get("/attendance/today", attendanceHandler.Today)
		r.Get("/attendance/records", attendanceHandler.Records)
		r.Get("/attendance/day", attendanceHandler.Day)
		r.Get("/attendance/export", attendanceHandler.Export)

		// Statistics
		r.Get("/statistics/today", statsHandler.Today)

		// Settings
		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Update)
	})

	// Enrolled face images
	s.router.Handle("/faces/*", http.StripPrefix("/faces/",
		http.FileServer(http.Dir(s.config.Storage.FacesDir))))
}
