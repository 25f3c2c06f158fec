package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/events"
	"backend/internal/events/rabbitmq"
	"backend/internal/handlers"
	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/repository/mongodb"
	"backend/internal/services"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Println("order index warning:", err)
	}
	if err := database.EnsureTransactionIndexes(db); err != nil {
		log.Println("transaction index warning:", err)
	}
	if err := database.EnsureCouponIndexes(db); err != nil {
		log.Println("coupon index warning:", err)
	}

	var redisClient *redis.Client
	if config.AppEnv.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: config.AppEnv.RedisAddr})
	}

	hub := events.NewHub()
	go hub.Run()

	sinks := []events.Sink{hub}
	if config.AppEnv.AMQPURL != "" {
		publisher, err := rabbitmq.NewPublisher(config.AppEnv.AMQPURL, config.AppEnv.AMQPExchange)
		if err != nil {
			log.Println("amqp publisher warning:", err)
		} else {
			defer publisher.Close()
			sinks = append(sinks, publisher)
		}
	}
	dispatcher := events.NewDispatcher(sinks...)

	orderRepo := mongodb.NewOrderRepo(db)
	transactionRepo := mongodb.NewTransactionRepo(db)
	settingsRepo := mongodb.NewSettingsRepo(db, redisClient)
	couponRepo := mongodb.NewCouponRepo(db)
	userRepo := mongodb.NewUserRepo(db)

	orderSvc := services.NewOrderService(orderRepo, couponRepo, settingsRepo, dispatcher)
	lifecycleSvc := services.NewLifecycleService(orderRepo, userRepo, dispatcher)
	paymentSvc := services.NewPaymentService(orderRepo, transactionRepo, dispatcher)

	secret := config.AppEnv.JWTSecret

	r := gin.Default()

	api := r.Group("/api")
	{
		orders := api.Group("/orders")
		{
			orders.POST("", middleware.AuthGuard(secret, models.RoleCustomer), handlers.CreateOrder(orderSvc))
			orders.GET("", middleware.AuthGuard(secret), handlers.ListOrders(orderSvc))
			orders.GET("/:id", middleware.AuthGuard(secret), handlers.GetOrder(orderSvc))
			orders.PATCH("/:id/status", middleware.AuthGuard(secret), handlers.UpdateOrderStatus(lifecycleSvc))
			orders.POST("/:id/payment", middleware.AuthGuard(secret), handlers.ReconcilePayment(paymentSvc))
			orders.GET("/:id/transactions", middleware.AuthGuard(secret), handlers.OrderTransactions(paymentSvc))
			orders.POST("/:id/rating", middleware.AuthGuard(secret, models.RoleCustomer), handlers.RateOrder(lifecycleSvc))
			orders.PUT("/:id/agent", middleware.AuthGuard(secret, models.RoleAdmin), handlers.AssignDeliveryAgent(lifecycleSvc))
			orders.DELETE("/:id/agent", middleware.AuthGuard(secret, models.RoleAdmin), handlers.UnassignDeliveryAgent(lifecycleSvc))
		}

		api.GET("/ws/orders", middleware.AuthGuard(secret, models.RoleAdmin), handlers.OrderEvents(hub))
	}

	r.Run(":" + config.AppEnv.Port)
}
