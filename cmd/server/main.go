package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/lingua-prep/backend/internal/adapters"
	"github.com/lingua-prep/backend/internal/database"
	"github.com/lingua-prep/backend/internal/dedup"
	"github.com/lingua-prep/backend/internal/engine"
	"github.com/lingua-prep/backend/internal/events"
	"github.com/lingua-prep/backend/internal/mastery"
	"github.com/lingua-prep/backend/internal/storygen"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Dedup guard: shared redis when configured, per-process maps otherwise.
	var guard dedup.Guard
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisGuard, err := dedup.NewRedisGuard(addr)
		if err != nil {
			log.Fatalf("Failed to connect to redis guard: %v", err)
		}
		guard = redisGuard
		log.Printf("Dedup guard backed by redis at %s", addr)
	} else {
		guard = dedup.NewMemoryGuard()
		log.Println("Dedup guard running in-memory (single instance)")
	}

	bus := events.NewBus()

	// Core services
	wordStore := database.NewWordStore(db)
	masteryService := mastery.NewService(mastery.NewPGStore(db))
	engineService := engine.NewService(wordStore, guard, bus, masteryService)
	adapterService := adapters.NewService(engineService, wordStore)

	// Story generator reacts to completed reviews via the bus.
	llm, model := storygen.NewLLMClient()
	storyService := storygen.NewService(llm, model, masteryService)
	storyService.SubscribeTo(bus)

	// Purge stale guard entries every 5 minutes.
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(5).Minutes().Do(guard.Purge); err != nil {
		log.Fatalf("Failed to schedule guard purge: %v", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	// Handlers
	engineHandler := engine.NewHandler(engineService, guard)
	adapterHandler := adapters.NewHandler(adapterService)
	masteryHandler := mastery.NewHandler(masteryService)
	storyHandler := storygen.NewHandler(storyService)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Engine surface
	api.HandleFunc("/reviews", engineHandler.ProcessReview).Methods("POST")
	api.HandleFunc("/words", engineHandler.CreateWord).Methods("POST")
	api.HandleFunc("/words/{userID}/{wordID}", engineHandler.GetWord).Methods("GET")
	api.HandleFunc("/words/{userID}/{wordID}/state", engineHandler.GetWordState).Methods("GET")
	api.HandleFunc("/users/{userID}/due", engineHandler.DueWords).Methods("GET")
	api.HandleFunc("/users/{userID}/reviewed-today", engineHandler.ReviewedToday).Methods("GET")

	// Module adapters
	api.HandleFunc("/modules/anki/review", adapterHandler.AnkiReview).Methods("POST")
	api.HandleFunc("/modules/cloze/review", adapterHandler.ClozeReview).Methods("POST")
	api.HandleFunc("/modules/conjugation/review", adapterHandler.ConjugationReview).Methods("POST")
	api.HandleFunc("/modules/pronunciation/review", adapterHandler.PronunciationReview).Methods("POST")
	api.HandleFunc("/modules/story/encounter", adapterHandler.StoryEncounter).Methods("POST")
	api.HandleFunc("/modules/story/interaction", adapterHandler.StoryInteraction).Methods("POST")
	api.HandleFunc("/modules/grammar/lesson", adapterHandler.GrammarLesson).Methods("POST")
	api.HandleFunc("/modules/grammar/quiz", adapterHandler.GrammarQuiz).Methods("POST")

	// Mastery and story generation
	api.HandleFunc("/users/{userID}/mastery", masteryHandler.ListConceptMastery).Methods("GET")
	api.HandleFunc("/users/{userID}/story", storyHandler.GenerateStory).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
