package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/branch-greeter/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	customersHandler := handlers.NewCustomersHandler(s.deps.Customers, s.deps.Visits)
	recognizeHandler := handlers.NewRecognizeHandler(s.deps.Recognizer)
	queueHandler := handlers.NewQueueHandler(s.deps.Queue)
	eventsHandler := handlers.NewEventsHandler(s.deps.Queue)
	insightsHandler := handlers.NewInsightsHandler(s.deps.Customers, s.deps.Visits, s.deps.Insights)
	countersHandler := handlers.NewCountersHandler(&s.config.Branch)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Recognition pipeline
		r.Post("/recognize", recognizeHandler.Recognize)

		// Customers
		r.Get("/customers", customersHandler.List)
		r.Post("/customers", customersHandler.Create)
		r.Post("/customers/similar", customersHandler.Similar)
		r.Get("/customers/{id}", customersHandler.Get)
		r.Put("/customers/{id}", customersHandler.Update)
		r.Get("/customers/{id}/visits", customersHandler.Visits)
		r.Post("/customers/{id}/visits", customersHandler.CreateVisit)
		r.Get("/customers/{id}/insights", insightsHandler.Get)

		// Queue
		r.Get("/queue", queueHandler.List)
		r.Post("/queue", queueHandler.Enqueue)
		r.Get("/queue/events", eventsHandler.Events)
		r.Get("/queue/{id}", queueHandler.Get)
		r.Post("/queue/{id}/assign", queueHandler.Assign)
		r.Post("/queue/{id}/complete", queueHandler.Complete)

		// Branch catalog
		r.Get("/counters", countersHandler.List)
	})
}
