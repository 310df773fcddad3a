package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"

	"github.com/zedfund/backend/internal/config"
	"github.com/zedfund/backend/internal/database"
	"github.com/zedfund/backend/internal/handlers"
	"github.com/zedfund/backend/internal/jobs"
	"github.com/zedfund/backend/internal/middleware"
	"github.com/zedfund/backend/internal/queue"
	"github.com/zedfund/backend/internal/routes"
	"github.com/zedfund/backend/internal/services/auth"
	"github.com/zedfund/backend/internal/services/email"
	"github.com/zedfund/backend/internal/services/funding"
	"github.com/zedfund/backend/internal/services/investment"
	"github.com/zedfund/backend/internal/services/ledger"
	"github.com/zedfund/backend/internal/services/notification"
	"github.com/zedfund/backend/internal/services/referral"
	"github.com/zedfund/backend/internal/services/venture"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Services
	ledgerSvc := ledger.NewService(db)
	notifySvc := notification.NewService(db)
	emailSvc := email.NewEmailService()
	referralSvc := referral.NewService(db, ledgerSvc, notifySvc, cfg.Ledger.ReferralBonusPercent)
	investmentSvc := investment.NewService(db, ledgerSvc, notifySvc)
	ventureSvc := venture.NewService(db, ledgerSvc, notifySvc)

	// Background queue. The database is always the system of record for
	// jobs; when Redis is reachable its lists carry the dispatch signal and
	// worker pools drain them, otherwise the polling queue handles it all.
	jobQueue := queue.NewQueue(db)
	jobs.RegisterAllJobHandlers(jobQueue, db, investmentSvc, referralSvc, emailSvc)
	defer jobQueue.Close()

	var enqueuer queue.Enqueuer = jobQueue

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(redisClient.Context()).Err(); err != nil {
		log.Printf("Redis unavailable, using database queue polling: %v", err)
		jobQueue.StartProcessing()
	} else {
		redisQueue := queue.NewRedisQueue(redisClient, db)
		enqueuer = redisQueue

		workers := []*queue.Worker{
			queue.NewWorker(redisQueue, queue.JobTypeAwardReferralBonus, jobs.NewReferralBonusJob(referralSvc).Process, 2),
			queue.NewWorker(redisQueue, queue.JobTypeSendVerificationEmail, jobs.NewVerificationEmailJob(db, emailSvc).Process, 2),
		}
		for _, w := range workers {
			w.Start()
		}
		defer func() {
			for _, w := range workers {
				w.Stop()
			}
		}()
	}

	fundingSvc := funding.NewService(db, ledgerSvc, notifySvc, enqueuer, funding.Config{
		MinDeposit:    cfg.Ledger.MinDeposit,
		MinWithdrawal: cfg.Ledger.MinWithdrawal,
	})
	authSvc := auth.NewService(db, referralSvc, notifySvc, enqueuer)

	// Recurring sweeps
	scheduler := gocron.NewScheduler(time.UTC)
	if err := jobs.ScheduleRecurringJobs(scheduler, investmentSvc); err != nil {
		log.Fatalf("Failed to schedule recurring jobs: %v", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	// Router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	rateLimiter := middleware.NewRateLimiter(20, 10, 40, 5)
	defer rateLimiter.Stop()

	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authSvc),
		Wallet:       handlers.NewWalletHandler(ledgerSvc),
		Investment:   handlers.NewInvestmentHandler(investmentSvc),
		Funding:      handlers.NewFundingHandler(fundingSvc),
		Referral:     handlers.NewReferralHandler(referralSvc),
		Notification: handlers.NewNotificationHandler(notifySvc),
		Venture:      handlers.NewVentureHandler(ventureSvc),
		Admin:        handlers.NewAdminHandler(db, fundingSvc, ventureSvc, investmentSvc),
	}
	routes.RegisterRoutes(router, h, rateLimiter)

	fmt.Printf("Trust ZedFund API server running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
