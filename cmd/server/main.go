// cmd/server/main.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"scriptvision/internal/api"
	"scriptvision/internal/config"
	"scriptvision/internal/di"
	"scriptvision/internal/models"
	"scriptvision/internal/services"
	"scriptvision/internal/storage"
	"scriptvision/internal/utils"
)

func main() {
	log.Println("starting scriptvision server...")

	// 1. Base configuration
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Config system (merges persisted settings)
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("failed to initialize config system: %v", err)
	}

	// 3. Logger
	if err := utils.InitLogger(filepath.Join(baseConfig.LogDir, "scriptvision.log")); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	// 4. Services, registered in dependency order
	if err := initServices(baseConfig); err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}

	// 5. Routes
	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("failed to set up router: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + baseConfig.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", baseConfig.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("server stopped")
}

// initServices builds the service graph and registers it in the container.
func initServices(cfg *config.Config) error {
	container := di.GetContainer()

	fileStore, err := storage.NewFileStorage(filepath.Join(cfg.DataDir, "scripts"))
	if err != nil {
		return fmt.Errorf("create file storage: %w", err)
	}

	progress := services.NewProgressService()
	generator := newHTTPGenerator(os.Getenv("GENERATION_ENDPOINT"))

	container.Register("storage", fileStore)
	container.Register("segmenter", services.NewSegmenterService())
	container.Register("resolver", services.NewResolverService())
	container.Register("shots", services.NewShotService())
	container.Register("progress", progress)
	container.Register("assets", services.NewAssetService(generator, fileStore, progress))

	log.Printf("services initialized: %d registered", len(container.GetNames()))
	return nil
}

// newHTTPGenerator is the concrete generation collaborator: it posts the
// request to the configured endpoint and expects {"url": "..."} back. The
// engine itself only ever sees the Generator interface.
func newHTTPGenerator(endpoint string) services.Generator {
	client := &http.Client{Timeout: 120 * time.Second}

	return services.GeneratorFunc(func(ctx context.Context, subject models.Subject, prompt string, opts services.GenerateOptions, referenceURLs []string) (string, error) {
		if endpoint == "" {
			return "", fmt.Errorf("GENERATION_ENDPOINT is not configured")
		}

		body, err := json.Marshal(map[string]interface{}{
			"subject":        subject,
			"prompt":         prompt,
			"style":          opts.Style,
			"reference_urls": referenceURLs,
		})
		if err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("generation endpoint returned %d", resp.StatusCode)
		}

		var result struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", err
		}
		if result.URL == "" {
			return "", fmt.Errorf("generation endpoint returned no url")
		}

		return result.URL, nil
	})
}
