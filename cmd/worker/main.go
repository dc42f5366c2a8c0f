package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/leadloft/outreach-backend/internal/client"
	"github.com/leadloft/outreach-backend/internal/compose"
	"github.com/leadloft/outreach-backend/internal/config"
	"github.com/leadloft/outreach-backend/internal/db"
	"github.com/leadloft/outreach-backend/internal/executor"
	"github.com/leadloft/outreach-backend/internal/gate"
	"github.com/leadloft/outreach-backend/internal/governor"
	"github.com/leadloft/outreach-backend/internal/lifecycle"
	"github.com/leadloft/outreach-backend/internal/queue"
	"github.com/leadloft/outreach-backend/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	if cfg.Mailbox.GatewayURL == "" {
		log.Fatal("MAIL_GATEWAY_URL must be set for the worker")
	}

	conn, err := db.Open(cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	defer conn.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	enrollmentRepo := &repository.EnrollmentRepository{DB: conn}
	outcomeRepo := &repository.OutcomeRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}
	jobRepo := &repository.JobRepository{DB: conn}
	governorStateRepo := &repository.GovernorStateRepository{DB: conn}

	gov := governor.New(cfg.Mailbox.Mailbox).WithStore(governorStateRepo)
	if err := gov.Restore(context.Background()); err != nil {
		log.Fatal("failed to restore governor state: ", err)
	}

	exec := &executor.Executor{
		Campaigns:   campaignRepo,
		Enrollments: enrollmentRepo,
		Outcomes:    outcomeRepo,
		Lifecycle:   &lifecycle.Machine{Campaigns: campaignRepo, Enrollments: enrollmentRepo},
		Gate:        &gate.Gate{Outcomes: outcomeRepo},
		Governor:    gov,
		Composer:    compose.NewTemplateComposer(contactRepo),
		Sender:      client.NewGatewaySender(cfg.Mailbox.GatewayURL),
	}
	runner := &executor.JobRunner{Exec: exec, Jobs: jobRepo}

	q, err := queue.NewAMQPQueue(cfg.AMQP.URL, cfg.AMQP.QueueName)
	if err != nil {
		log.Fatal("failed to connect to AMQP broker: ", err)
	}
	defer q.Close()

	log.Printf("worker consuming %q for mailbox %s", cfg.AMQP.QueueName, cfg.Mailbox.Mailbox)
	if err := q.Consume(context.Background(), runner.Handle); err != nil {
		log.Fatal("consumer stopped: ", err)
	}
}
