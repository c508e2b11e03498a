package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seminote/seminote/internal/profile"
	"github.com/seminote/seminote/internal/version"
	"github.com/seminote/seminote/server"
	"github.com/seminote/seminote/server/ai"
	"github.com/seminote/seminote/store"
	"github.com/seminote/seminote/store/db"
)

const greeting = `seminote - notes that find themselves.`

var rootCmd = &cobra.Command{
	Use:   "seminote",
	Short: "A multi-tenant note service with semantic search",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := profileFromViper()
		if err := instanceProfile.Validate(); err != nil {
			return fmt.Errorf("failed to validate profile: %w", err)
		}
		instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create db driver: %w", err)
		}
		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		var encoder ai.Encoder
		if instanceProfile.UseStubEncoder() {
			slog.Warn("no embedding provider configured, using the deterministic stub encoder")
			encoder = ai.NewStubEncoder(instanceProfile.EmbeddingDimensions)
		} else {
			provider, err := ai.NewProvider(ai.ConfigFromProfile(instanceProfile))
			if err != nil {
				return err
			}
			// Dimensionality mismatch with the schema is fatal here, before
			// the server accepts its first request.
			if err := provider.Validate(ctx); err != nil {
				return err
			}
			encoder = provider
		}

		s := server.NewServer(instanceProfile, storeInstance, encoder)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			s.Shutdown(ctx)
			cancel()
		}()

		fmt.Println(greeting)
		if err := s.Start(ctx); err != nil {
			slog.Error("server stopped", slog.String("error", err.Error()))
		}
		<-ctx.Done()
		return nil
	},
}

// profileFromViper reads every profile field from viper, so each one is
// settable through flags or SEMINOTE_* environment variables. Zero values
// fall back to the defaults Validate fills in.
func profileFromViper() *profile.Profile {
	return &profile.Profile{
		Mode:                viper.GetString("mode"),
		Addr:                viper.GetString("addr"),
		Port:                viper.GetInt("port"),
		Data:                viper.GetString("data"),
		Driver:              viper.GetString("driver"),
		DSN:                 viper.GetString("dsn"),
		EmbeddingBaseURL:    viper.GetString("embedding-base-url"),
		EmbeddingAPIKey:     viper.GetString("embedding-api-key"),
		EmbeddingModel:      viper.GetString("embedding-model"),
		EmbeddingDimensions: viper.GetInt("embedding-dimensions"),
		EmbeddingMaxRetries: viper.GetInt("embedding-max-retries"),
		EmbeddingTimeout:    viper.GetDuration("embedding-timeout"),
		SearchMinScore:      viper.GetFloat64("search-min-score"),
		PageSize:            viper.GetInt("page-size"),
		MaxOffset:           viper.GetInt("max-offset"),
		RequestTimeout:      viper.GetDuration("request-timeout"),
		RateLimitRPS:        viper.GetFloat64("rate-limit-rps"),
		RateLimitBurst:      viper.GetInt("rate-limit-burst"),
	}
}

func init() {
	rootCmd.PersistentFlags().String("mode", "demo", `mode of the server: "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of the server")
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver: "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().String("embedding-base-url", "", "embedding endpoint base URL")
	rootCmd.PersistentFlags().String("embedding-api-key", "", "embedding API key")
	rootCmd.PersistentFlags().String("embedding-model", "", "embedding model name")
	rootCmd.PersistentFlags().Int("embedding-dimensions", 0, "embedding vector width, must match the schema")
	rootCmd.PersistentFlags().Int("embedding-max-retries", 0, "retry budget for embedding requests")
	rootCmd.PersistentFlags().Duration("embedding-timeout", 0, "timeout per embedding request")
	rootCmd.PersistentFlags().Float64("search-min-score", 0, "minimum similarity score for search results")
	rootCmd.PersistentFlags().Int("page-size", 0, "default page size for listings")
	rootCmd.PersistentFlags().Int("max-offset", 0, "maximum pagination offset")
	rootCmd.PersistentFlags().Duration("request-timeout", 0, "timeout per request")
	rootCmd.PersistentFlags().Float64("rate-limit-rps", 0, "per-owner sustained request rate")
	rootCmd.PersistentFlags().Int("rate-limit-burst", 0, "per-owner request burst size")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("seminote")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
