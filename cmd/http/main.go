package main

import (
	"caresync-service/internal/app/config"
	"caresync-service/internal/app/delivery/http/middlewares"
	"caresync-service/internal/app/delivery/http/routers"
	"caresync-service/internal/app/drivers/database"
	"caresync-service/internal/app/drivers/logger"
	"caresync-service/internal/app/drivers/messaging"
	"caresync-service/internal/app/drivers/storage"
	"caresync-service/internal/app/services/fhir_spark/patients"
	corepatients "caresync-service/internal/app/services/patients"
	"caresync-service/internal/app/services/shared/jwtmanager"
	"caresync-service/internal/app/services/shared/locker"
	"caresync-service/internal/app/services/shared/redis"
	sharedstorage "caresync-service/internal/app/services/shared/storage"
	"caresync-service/internal/app/services/shared/syncevents"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	bootLog := logger.NewLogrusLogger(internalConfig)
	zapLogger := logger.NewZapLogger(driverConfig, internalConfig)
	defer zapLogger.Sync()

	mongoDB := database.NewMongoDB(driverConfig)
	redisClient := database.NewRedisClient(driverConfig)
	rabbitMQ := messaging.NewRabbitMQ(driverConfig)
	minioClient := storage.NewMinio(driverConfig)
	chiRouter := chi.NewRouter()

	bootstrapingTheApp(config.Bootstrap{
		Router:         chiRouter,
		MongoDB:        mongoDB,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		Minio:          minioClient,
		Logger:         zapLogger,
		BootLogger:     bootLog,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	})

	server := &http.Server{
		Addr:    internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		bootLog.Printf("Server listening on %s", internalConfig.App.Port)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			bootLog.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	bootLog.Println("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeout),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		bootLog.Fatalf("Server forced to shutdown: %v", err)
	}

	bootLog.Println("Server exiting")
}

func bootstrapingTheApp(bootstrap config.Bootstrap) {
	// Shared services
	redisRepository := redis.NewRedisRepository(bootstrap.Redis)
	lockerService := locker.NewLockService(redisRepository, bootstrap.Logger)
	minioStorage := sharedstorage.NewMinioStorage(bootstrap.Minio)

	requestSigner, err := jwtmanager.NewJWTManager(bootstrap.InternalConfig, bootstrap.Logger)
	if err != nil {
		bootstrap.BootLogger.Fatalf("Failed to initialize request signer: %v", err)
	}

	syncEventPublisher, err := syncevents.NewService(bootstrap.RabbitMQ, bootstrap.Logger)
	if err != nil {
		bootstrap.BootLogger.Fatalf("Failed to initialize sync event publisher: %v", err)
	}

	// Middlewares
	middlewares := middlewares.NewMiddlewares(bootstrap.Logger, bootstrap.InternalConfig)

	// Patient
	patientFhirClient := patients.NewPatientFhirClient(bootstrap.InternalConfig, requestSigner, bootstrap.Logger)
	patientMongoRepository := corepatients.NewPatientMongoRepository(
		bootstrap.MongoDB,
		bootstrap.DriverConfig.MongoDB.DbName,
	)
	patientUsecase := corepatients.NewPatientUsecase(
		patientMongoRepository,
		patientFhirClient,
		lockerService,
		redisRepository,
		syncEventPublisher,
		minioStorage,
		bootstrap.InternalConfig,
		bootstrap.DriverConfig,
		bootstrap.Logger,
	)
	patientController := corepatients.NewPatientController(bootstrap.Logger, patientUsecase, bootstrap.InternalConfig)

	routers.SetupRoutes(bootstrap.Router, bootstrap.InternalConfig, middlewares, patientController)
}
