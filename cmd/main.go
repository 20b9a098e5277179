package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/create_booking"
	createScheduleHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/create_schedule"
	deleteScheduleHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/delete_schedule"
	getBookingHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/get_booking"
	getMentorSchedulesHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/get_mentor_schedules"
	getTimeSlotsHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/get_time_slots"
	getUserBookingsHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/get_user_bookings"
	handleBookingHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/handle_booking"
	paymentCallbackHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/payment_callback"
	updateScheduleHandler "github.com/m04kA/SMC-MentorBooking/internal/api/handlers/update_schedule"
	"github.com/m04kA/SMC-MentorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-MentorBooking/internal/config"
	bookingRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/booking"
	historyRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/history"
	paymentRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/payment"
	scheduleRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/schedule"
	timeSlotRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/timeslot"
	"github.com/m04kA/SMC-MentorBooking/internal/integrations/refunds"
	userServiceClient "github.com/m04kA/SMC-MentorBooking/internal/integrations/userservice"
	bookingsService "github.com/m04kA/SMC-MentorBooking/internal/service/bookings"
	schedulesService "github.com/m04kA/SMC-MentorBooking/internal/service/schedules"
	completePaymentUC "github.com/m04kA/SMC-MentorBooking/internal/usecase/complete_payment"
	createBookingUC "github.com/m04kA/SMC-MentorBooking/internal/usecase/create_booking"
	"github.com/m04kA/SMC-MentorBooking/internal/worker/autocomplete"
	"github.com/m04kA/SMC-MentorBooking/migrations"
	"github.com/m04kA/SMC-MentorBooking/pkg/clock"
	"github.com/m04kA/SMC-MentorBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-MentorBooking/pkg/logger"
	"github.com/m04kA/SMC-MentorBooking/pkg/metrics"
	"github.com/m04kA/SMC-MentorBooking/pkg/migrator"
	"github.com/m04kA/SMC-MentorBooking/pkg/redislock"
	"github.com/m04kA/SMC-MentorBooking/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-MentorBooking...")
	log.Info("Configuration loaded from config.toml")

	location, err := cfg.Scheduler.Location()
	if err != nil {
		log.Fatal("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}
	timeProvider := clock.NewReal(location)

	// Инициализируем метрики (если включены). Методы *metrics.Metrics безопасны на nil.
	var metricsCollector *metrics.Metrics
	var dbMetrics dbmetrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		dbMetrics = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	pingCancel()
	if err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database")

	// Применяем миграции
	if cfg.Migrations.Enabled {
		m, err := migrator.New(db, migrations.FS, ".", log)
		if err != nil {
			log.Fatal("Failed to create migrator: %v", err)
		}
		if err := m.Up(context.Background()); err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
	}

	wrappedDB := dbmetrics.WrapWithDefault(db, dbMetrics, cfg.Metrics.ServiceName, stopMetricsCh)

	// Инициализируем репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)
	timeSlotRepository := timeSlotRepo.NewRepository(wrappedDB)
	historyRepository := historyRepo.NewRepository(wrappedDB)
	paymentRepository := paymentRepo.NewRepository(wrappedDB)

	txMgr := txmanager.New(wrappedDB, log,
		txmanager.WithMaxRetries(cfg.Database.TxMaxRetries),
		txmanager.WithRetryObserver(metricsCollector),
	)

	// Redis нужен для блокировки планировщика и очереди возвратов
	var redisClient *redis.Client
	var refundPublisher bookingsService.RefundPublisher = refunds.NewLogPublisher(log)

	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(redisCtx).Err()
		redisCancel()
		if err != nil {
			log.Fatal("Failed to connect to redis: %v", err)
		}

		refundPublisher = refunds.NewRedisPublisher(redisClient, cfg.Redis.RefundQueue)
		log.Info("Redis connected at %s, refunds published to %s", cfg.Redis.Addr, cfg.Redis.RefundQueue)
	}

	// Инициализируем клиенты внешних сервисов
	userClient := userServiceClient.NewClient(
		cfg.UserService.URL,
		time.Duration(cfg.UserService.Timeout)*time.Second,
		log,
	)

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		scheduleRepository,
		historyRepository,
		paymentRepository,
		refundPublisher,
		txMgr,
		timeProvider,
		metricsCollector,
		log,
	)
	scheduleSvc := schedulesService.NewService(
		scheduleRepository,
		timeSlotRepository,
		bookingRepository,
		userClient,
		txMgr,
		timeProvider,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		scheduleRepository,
		historyRepository,
		txMgr,
		timeProvider,
		metricsCollector,
		log,
	)
	completePaymentUseCase := completePaymentUC.NewUseCase(
		bookingRepository,
		scheduleRepository,
		paymentRepository,
		historyRepository,
		refundPublisher,
		txMgr,
		timeProvider,
		log,
	)

	// Фоновое автозавершение встреч
	var worker *autocomplete.Worker
	if cfg.Scheduler.Enabled {
		opts := []autocomplete.Option{
			autocomplete.WithInterval(cfg.Scheduler.IntervalDuration()),
			autocomplete.WithMetrics(metricsCollector),
		}
		if redisClient != nil {
			opts = append(opts, autocomplete.WithLocker(
				redislock.New(redisClient, cfg.Redis.LockPrefix),
				cfg.Scheduler.LockTTLDuration(),
			))
		}

		worker = autocomplete.NewWorker(bookingRepository, scheduleRepository, bookingSvc, timeProvider, log.With("component", "autocomplete"), opts...)
		worker.Start(context.Background())
	}

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	handleBooking := handleBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	paymentCallback := paymentCallbackHandler.NewHandler(completePaymentUseCase, bookingSvc, log)
	getTimeSlots := getTimeSlotsHandler.NewHandler(scheduleSvc, log)
	getMentorSchedules := getMentorSchedulesHandler.NewHandler(scheduleSvc, log)
	createSchedule := createScheduleHandler.NewHandler(scheduleSvc, log)
	updateSchedule := updateScheduleHandler.NewHandler(scheduleSvc, log)
	deleteSchedule := deleteScheduleHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Справочник часовых слотов
	api.HandleFunc("/time-slots", getTimeSlots.Handle).Methods(http.MethodGet)

	// Расписания ментора
	api.HandleFunc("/mentors/{mentorId}/schedules", getMentorSchedules.Handle).Methods(http.MethodGet)

	// Уведомления платёжной подсистемы (закрыты на уровне сети)
	api.HandleFunc("/internal/payments/callback", paymentCallback.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Расписания (для менторов) ---
	protected.HandleFunc("/schedules", createSchedule.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/schedules/{scheduleId}", updateSchedule.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/schedules/{scheduleId}", deleteSchedule.Handle).Methods(http.MethodDelete)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/handle", handleBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// История бронирований пользователя
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if worker != nil {
		worker.Stop()
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
