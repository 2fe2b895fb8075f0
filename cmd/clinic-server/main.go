package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/identity"
	"github.com/clinic/clinic/internal/domain/records"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/middleware"
	"github.com/clinic/clinic/internal/platform/notification"
)

// PatientDirectoryAdapter adapts the identity repository to the scheduling
// domain's PatientDirectory interface, avoiding a direct import between the
// two domains.
type PatientDirectoryAdapter struct {
	users identity.UserRepository
}

func (a *PatientDirectoryAdapter) GetPatient(ctx context.Context, id uuid.UUID) (*scheduling.Patient, error) {
	u, err := a.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &scheduling.Patient{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// AppointmentGatewayAdapter exposes the scheduling service to the records
// domain.
type AppointmentGatewayAdapter struct {
	svc *scheduling.Service
}

func (a *AppointmentGatewayAdapter) Get(ctx context.Context, id uuid.UUID) (*records.AppointmentRef, error) {
	appt, err := a.svc.Get(ctx, auth.Actor{Role: auth.RoleAdmin}, id)
	if err != nil {
		if errors.Is(err, scheduling.ErrNotFound) {
			return nil, records.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &records.AppointmentRef{
		ID:        appt.ID,
		PatientID: appt.PatientID,
		Status:    string(appt.Status),
	}, nil
}

func (a *AppointmentGatewayAdapter) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return a.svc.ForceComplete(ctx, id)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic appointment booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// seedCmd provisions the default admin account and the standard weekly
// schedule: Monday through Friday at 09:00-12:00 and 14:00-17:00.
func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the admin account and default weekly slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("admin-email")
			password, _ := cmd.Flags().GetString("admin-password")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
			if err != nil {
				return err
			}

			users := identity.NewUserRepoPG(pool)
			admin := &identity.User{
				Email:        email,
				PasswordHash: string(hash),
				Name:         "Administrador",
				DNI:          "00000000",
				Role:         auth.RoleAdmin,
			}
			switch err := users.Create(ctx, admin); err {
			case nil:
				fmt.Printf("Created admin account %s\n", email)
			case identity.ErrEmailTaken, identity.ErrDNITaken:
				fmt.Printf("Admin account %s already exists, skipping\n", email)
			default:
				return err
			}

			slots := scheduling.NewSlotRepoPG(pool)
			existing, err := slots.List(ctx)
			if err != nil {
				return err
			}
			seeded := make(map[string]bool, len(existing))
			for _, sl := range existing {
				seeded[fmt.Sprintf("%d %s", sl.DayOfWeek, sl.Time)] = true
			}

			times := []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00"}
			created := 0
			for day := 1; day <= 5; day++ {
				for _, t := range times {
					if seeded[fmt.Sprintf("%d %s", day, t)] {
						continue
					}
					sl := &scheduling.AvailableSlot{DayOfWeek: day, Time: t, IsActive: true}
					if err := slots.Create(ctx, sl); err != nil {
						return err
					}
					created++
				}
			}
			fmt.Printf("Created %d slot(s)\n", created)
			return nil
		},
	}
	cmd.Flags().String("admin-email", "admin@consultorio.com", "Admin account email")
	cmd.Flags().String("admin-password", "admin123", "Admin account password")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	loc, err := cfg.ClinicLocation()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid clinic timezone")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), time.Duration(cfg.TokenTTLHours)*time.Hour)
	authMiddleware := auth.JWTMiddleware(issuer)
	if cfg.IsDev() {
		authMiddleware = auth.DevAuthMiddleware(issuer)
	}

	public := e.Group("/api/v1")
	api := e.Group("/api/v1", authMiddleware)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	policy := auth.NewPolicy()

	// Notification
	sender := notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	mailer := notification.NewMailer(sender, notification.NewTemplateEngine(), logger)

	// Identity domain
	userRepo := identity.NewUserRepoPG(pool)
	identitySvc := identity.NewService(userRepo, issuer, policy)
	identityHandler := identity.NewHandler(identitySvc)
	identityHandler.RegisterRoutes(public, api)

	// Scheduling domain
	slotRepo := scheduling.NewSlotRepoPG(pool)
	apptRepo := scheduling.NewAppointmentRepoPG(pool)
	patients := &PatientDirectoryAdapter{users: userRepo}
	schedSvc := scheduling.NewService(apptRepo, slotRepo, patients, mailer, policy, loc, cfg.BookingHorizonMonths)
	schedHandler := scheduling.NewHandler(schedSvc)
	schedHandler.RegisterRoutes(api)

	// Records domain
	recordRepo := records.NewRecordRepoPG(pool)
	gateway := &AppointmentGatewayAdapter{svc: schedSvc}
	recordSvc := records.NewService(recordRepo, gateway, db.NewRunner(pool), policy)
	recordHandler := records.NewHandler(recordSvc)
	recordHandler.RegisterRoutes(api)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
