package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/RK62021/Project-Verse/api"
	"github.com/RK62021/Project-Verse/config"
	"github.com/RK62021/Project-Verse/database"
	"github.com/RK62021/Project-Verse/models"
	"github.com/RK62021/Project-Verse/services"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("projectverse failed")
	}
}

var (
	rootCmd = &cobra.Command{
		Use:          "projectverse",
		Short:        "Student project showcase API",
		SilenceUsage: true,
		RunE:         runServer,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE:  runServer,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Create or update every table",
		RunE:  runMigrateUp,
	}
	downCmd = &cobra.Command{
		Use:   "down",
		Short: "Drop every table",
		RunE:  runMigrateDown,
	}
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Migrate and write gorm/gen query helpers",
		RunE:  runGenerate,
	}
	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "List table columns no model field maps to",
		RunE:  runReport,
	}

	// Flags
	envFile         string
	shutdownTimeout time.Duration
	queryOutPath    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")
	rootCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Time allowed for in-flight requests on shutdown")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Time allowed for in-flight requests on shutdown")
	generateCmd.Flags().StringVar(&queryOutPath, "out", "./query", "Output directory for generated query helpers")

	migrateCmd.AddCommand(upCmd, downCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, generateCmd, reportCmd)
}

// loadConfig layers the dotenv file, the process environment and SSM
// parameters, then configures the global logger.
func loadConfig(ctx context.Context) (map[string]string, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", envFile).Msg("error loading env file")
	}

	c, err := config.LoadSSMParameters(ctx, config.New())
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(config.GetString(c, "LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if config.GetBool(c, "LOG_PRETTY", false) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return c, nil
}

func openDB(ctx context.Context) (map[string]string, *gorm.DB, error) {
	c, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(c)
	if err != nil {
		return nil, nil, err
	}
	return c, db, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, gormDB, err := openDB(ctx)
	if err != nil {
		return err
	}
	if config.GetString(c, "JWT_SECRET", "") == "" {
		return errors.New("JWT_SECRET is required")
	}

	db := database.New(gormDB)
	defer db.Close()

	if config.GetBool(c, "AUTO_MIGRATE", true) {
		if err := db.Migrator().Up(); err != nil {
			return err
		}
	}

	var images services.ImageStore
	s3Store, err := services.NewS3ImageStoreFromConfig(ctx, c)
	if err != nil {
		return err
	}
	if s3Store != nil {
		images = s3Store
	} else {
		log.Warn().Msg("S3_BUCKET not set, project image uploads are disabled")
	}

	server, err := api.NewServer(c, db, images)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	errChannel := make(chan error, 2)
	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(shutdownTimeout)
	return nil
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	_, gormDB, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	db := database.New(gormDB)
	defer db.Close()

	if err := db.Migrator().Up(); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	_, gormDB, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	db := database.New(gormDB)
	defer db.Close()

	if err := db.Migrator().Down(); err != nil {
		return err
	}
	log.Info().Msg("tables dropped")
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	_, gormDB, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	db := database.New(gormDB)
	defer db.Close()

	return models.GenerateModels(gormDB, queryOutPath, cmd.OutOrStdout())
}

func runReport(cmd *cobra.Command, args []string) error {
	_, gormDB, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	db := database.New(gormDB)
	defer db.Close()

	reports, err := models.ColumnMismatches(gormDB)
	if err != nil {
		return err
	}
	models.WriteColumnReport(cmd.OutOrStdout(), reports)
	return nil
}
