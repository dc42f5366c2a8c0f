package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/leadloft/outreach-backend/internal/cache"
	"github.com/leadloft/outreach-backend/internal/config"
	"github.com/leadloft/outreach-backend/internal/db"
	"github.com/leadloft/outreach-backend/internal/governor"
	"github.com/leadloft/outreach-backend/internal/handler"
	"github.com/leadloft/outreach-backend/internal/lifecycle"
	"github.com/leadloft/outreach-backend/internal/queue"
	"github.com/leadloft/outreach-backend/internal/repository"
	"github.com/leadloft/outreach-backend/internal/scheduler"
	"github.com/leadloft/outreach-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	conn, err := db.Open(cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	defer conn.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	enrollmentRepo := &repository.EnrollmentRepository{DB: conn}
	jobRepo := &repository.JobRepository{DB: conn}
	governorStateRepo := &repository.GovernorStateRepository{DB: conn}

	q, err := queue.NewAMQPQueue(cfg.AMQP.URL, cfg.AMQP.QueueName)
	if err != nil {
		log.Fatal("failed to connect to AMQP broker: ", err)
	}
	defer q.Close()

	gov := governor.New(cfg.Mailbox.Mailbox).WithStore(governorStateRepo)
	if err := gov.Restore(context.Background()); err != nil {
		log.Fatal("failed to restore governor state: ", err)
	}

	sched, err := scheduler.New(jobRepo, q, cfg.Scheduler.PollInterval, cfg.Scheduler.BatchSize)
	if err != nil {
		log.Fatal("failed to build scheduler: ", err)
	}

	// Recover before serving so orphaned triggers from a crashed process are
	// re-pended exactly once.
	recovered, err := sched.RecoverOnStartup(context.Background())
	if err != nil {
		log.Fatal("failed to recover orphaned jobs: ", err)
	}
	if recovered > 0 {
		log.Printf("recovered %d orphaned jobs", recovered)
	}
	sched.Start()
	defer sched.Stop()

	var statusCache cache.StatusCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		statusCache = cache.NewRedisCache(rdb, cfg.Redis.TTL)
		log.Println("status cache enabled at", cfg.Redis.Address)
	}

	campaignService := &service.CampaignService{
		CampaignRepo:   campaignRepo,
		EnrollmentRepo: enrollmentRepo,
		JobRepo:        jobRepo,
		Lifecycle:      &lifecycle.Machine{Campaigns: campaignRepo, Enrollments: enrollmentRepo},
		Scheduler:      sched,
		Governor:       gov,
		Cache:          statusCache,
	}

	campaignHandler := &handler.CampaignHandler{Service: campaignService}

	r := chi.NewRouter()
	campaignHandler.Routes(r)

	log.Println("🚀 Server running on", cfg.Server.Address)
	log.Fatal(http.ListenAndServe(cfg.Server.Address, r))
}
