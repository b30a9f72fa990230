package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/macroscoach/backend/internal/auth"
	"github.com/macroscoach/backend/internal/blob"
	"github.com/macroscoach/backend/internal/config"
	"github.com/macroscoach/backend/internal/foods"
	"github.com/macroscoach/backend/internal/meals"
	"github.com/macroscoach/backend/internal/openfoodfacts"
	"github.com/macroscoach/backend/internal/plans"
	"github.com/macroscoach/backend/internal/reports"
	"github.com/macroscoach/backend/internal/schedules"
	"github.com/macroscoach/backend/internal/storage"
	"github.com/macroscoach/backend/internal/storage/memory"
	"github.com/macroscoach/backend/internal/storage/postgres"
	"github.com/macroscoach/backend/internal/summary"
	"github.com/macroscoach/backend/internal/weights"
	"github.com/macroscoach/backend/internal/workouts"
)

// Server is the HTTP API server.
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	authMiddleware *auth.Middleware
}

func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	s.initStorage()
	s.routes()
	return s
}

// initStorage picks Postgres when DATABASE_URL is set, memory otherwise.
// A failed Postgres connection falls back to memory instead of aborting.
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("using in-memory storage")
		s.storage = memory.New()
		return
	}

	log.Println("connecting to PostgreSQL...")
	pgStorage, err := postgres.New(context.Background(), s.config.DatabaseURL)
	if err != nil {
		log.Printf("PostgreSQL connection failed: %v", err)
		log.Println("falling back to in-memory storage")
		s.storage = memory.New()
		return
	}

	log.Println("PostgreSQL connected")
	s.storage = pgStorage
}

func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config, s.storage)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	s.mux.HandleFunc("POST /v1/auth/register", authHandler.HandleRegister)
	s.mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
	s.mux.HandleFunc("POST /v1/auth/demo", authHandler.HandleDemo)
	s.mux.HandleFunc("GET /v1/users/me", authHandler.HandleMe)

	// Plan API
	plansService := plans.NewService(s.getPlansStorage())
	plansHandler := plans.NewHandlers(plansService)
	s.mux.HandleFunc("GET /v1/plan", plansHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/plan", plansHandler.HandleReplace)

	// Schedule API
	schedulesService := schedules.NewService(s.getDayModesStorage())
	schedulesHandler := schedules.NewHandlers(schedulesService)
	s.mux.HandleFunc("GET /v1/schedule", schedulesHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/schedule", schedulesHandler.HandleReplace)

	// Foods API
	offClient := openfoodfacts.NewClient(s.config.OFFBaseURL, time.Duration(s.config.OFFTimeoutSeconds)*time.Second)
	foodsService := foods.NewService(s.getFoodsStorage(), s.getMealsStorage(), offClient)
	foodsHandler := foods.NewHandlers(foodsService)
	s.mux.HandleFunc("GET /v1/foods/search", foodsHandler.HandleSearch)
	s.mux.HandleFunc("GET /v1/foods/recent", foodsHandler.HandleRecent)
	s.mux.HandleFunc("GET /v1/foods/recent-by-slot", foodsHandler.HandleRecentBySlot)
	s.mux.HandleFunc("GET /v1/foods/barcode/{code}", foodsHandler.HandleLookupBarcode)
	s.mux.HandleFunc("PUT /v1/foods/barcode/{code}", foodsHandler.HandleConfirmBarcode)

	// Meals API
	mealsService := meals.NewService(s.getMealsStorage(), s.storage, plansService, schedulesService, foodsService)
	mealsHandler := meals.NewHandlers(mealsService)
	s.mux.HandleFunc("POST /v1/meals", mealsHandler.HandleCreate)
	s.mux.HandleFunc("POST /v1/meals/from-barcode", mealsHandler.HandleCreateFromBarcode)
	s.mux.HandleFunc("GET /v1/meals/today", mealsHandler.HandleToday)
	s.mux.HandleFunc("GET /v1/meals/{id}", mealsHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/meals/{id}", mealsHandler.HandlePatch)
	s.mux.HandleFunc("DELETE /v1/meals/{id}", mealsHandler.HandleDelete)

	// Weights API
	weightsService := weights.NewService(s.getWeightsStorage(), s.storage)
	weightsHandler := weights.NewHandlers(weightsService)
	s.mux.HandleFunc("POST /v1/weights", weightsHandler.HandleAdd)
	s.mux.HandleFunc("GET /v1/weights", weightsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/weights/range", weightsHandler.HandleRange)
	s.mux.HandleFunc("GET /v1/weights/weekly", weightsHandler.HandleWeekly)
	s.mux.HandleFunc("GET /v1/weights/trend", weightsHandler.HandleTrend)
	s.mux.HandleFunc("DELETE /v1/weights/{id}", weightsHandler.HandleDelete)

	// Workouts API
	workoutsService := workouts.NewService(s.getWorkoutsStorage())
	workoutsHandler := workouts.NewHandlers(workoutsService)
	s.mux.HandleFunc("POST /v1/workouts", workoutsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/workouts", workoutsHandler.HandleList)

	// Summary API
	summaryService := summary.NewService(s.getMealsStorage(), s.getWorkoutsStorage(), s.storage, plansService, schedulesService)
	summaryHandler := summary.NewHandlers(summaryService)
	s.mux.HandleFunc("GET /v1/summary/day", summaryHandler.HandleDay)
	s.mux.HandleFunc("GET /v1/summary/week", summaryHandler.HandleWeek)
	s.mux.HandleFunc("GET /v1/summary/weekly-check", summaryHandler.HandleWeeklyCheck)

	// Reports API
	blobStore := s.initBlobStore()
	generator := reports.NewGenerator(s.getMealsStorage(), s.getWeightsStorage())
	reportsService := reports.NewService(
		s.getReportsStorage(),
		s.storage,
		generator,
		blobStore,
		s.config.ReportsMaxRangeDays,
		s.config.Blob.S3.PresignTTLSeconds,
		s.config.Blob.S3.PublicBaseURL,
		s.config.Blob.S3.PreferPublicURL,
	)
	reportsHandler := reports.NewHandlers(reportsService)
	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)
}

func (s *Server) getPlansStorage() storage.PlansStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetPlansStorage()
	case *postgres.PostgresStorage:
		return st.GetPlansStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getDayModesStorage() storage.DayModesStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetDayModesStorage()
	case *postgres.PostgresStorage:
		return st.GetDayModesStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getMealsStorage() storage.MealsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetMealsStorage()
	case *postgres.PostgresStorage:
		return st.GetMealsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getWeightsStorage() storage.WeightsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetWeightsStorage()
	case *postgres.PostgresStorage:
		return st.GetWeightsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getWorkoutsStorage() storage.WorkoutsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetWorkoutsStorage()
	case *postgres.PostgresStorage:
		return st.GetWorkoutsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getFoodsStorage() storage.FoodsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetFoodsStorage()
	case *postgres.PostgresStorage:
		return st.GetFoodsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getReportsStorage() storage.ReportsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetReportsStorage()
	case *postgres.PostgresStorage:
		return st.GetReportsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

// initBlobStore builds the report payload store per BLOB_MODE.
func (s *Server) initBlobStore() blob.Store {
	store, mode, err := blob.NewBlobStore(s.config.Blob, log.Default())
	if err != nil {
		log.Fatalf("FATAL blob: failed to initialize store: %v", err)
	}
	log.Printf("INFO blob: reports blob mode: %s", mode)
	return store
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start runs the server with the middleware chain
// (outermost first): CORS, rate limit, auth, router.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	var handler http.Handler = s.mux
	handler = s.authMiddleware.RequireAuth(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)

	log.Printf("listening on http://localhost%s", addr)
	log.Printf("health check: http://localhost%s/healthz", addr)

	return http.ListenAndServe(addr, handler)
}

// Close releases the storage backend.
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
