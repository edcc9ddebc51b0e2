//go:build integration

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/veriface/internal/cache"
	"github.com/saturnino-fabrica-de-software/veriface/internal/database"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/idcard"
	ocrmock "github.com/saturnino-fabrica-de-software/veriface/internal/ocr/mock"
	providermock "github.com/saturnino-fabrica-de-software/veriface/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/veriface/internal/repository"
	"github.com/saturnino-fabrica-de-software/veriface/internal/service"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(runWithDatabase(m))
}

func runWithDatabase(m *testing.M) int {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "veriface_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Printf("Failed to start container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}()

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	connStr := fmt.Sprintf("postgres://test:test@%s:%s/veriface_test?sslmode=disable", host, port.Port())
	cfg := database.DefaultPoolConfig(connStr)

	sqlDB, err := database.NewPool(cfg)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	migrator, err := database.NewMigrator(sqlDB, "veriface_test")
	if err != nil {
		fmt.Printf("Failed to create migrator: %v\n", err)
		return 1
	}
	if err := migrator.Up(); err != nil {
		fmt.Printf("Failed to run migrations: %v\n", err)
		return 1
	}
	_ = migrator.Close()

	testDB, err = database.NewPgxPool(ctx, cfg)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		return 1
	}
	defer testDB.Close()

	return m.Run()
}

func newPersistentRouter(t *testing.T) *Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := &Dependencies{
		Verification: service.NewVerificationService(
			providermock.New(), repository.NewVerificationRepository(testDB), nil, logger),
		Documents: service.NewDocumentService(ocrmock.New(), idcard.NewExtractor(), logger,
			service.WithExtractionRepository(repository.NewExtractionRepository(testDB)),
			service.WithCache(cache.NewPGCache(testDB), time.Minute),
		),
		DB: testDB,
	}

	router := NewRouter(logger, Security{APIKeyHash: domain.HashAPIKey(testAPIKey)}, deps)
	router.Setup()
	t.Cleanup(func() { _ = router.Shutdown() })
	return router
}

func TestIntegration_ReadyEndpoint(t *testing.T) {
	router := newPersistentRouter(t)

	resp, err := router.App().Test(httptest.NewRequest("GET", "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "up", body["database"])
}

func TestIntegration_VerificationIsStored(t *testing.T) {
	router := newPersistentRouter(t)
	img := noisyPNG(t)

	req := withKey(uploadRequest(t, "/v1/verify", map[string][]byte{"id_image": img, "live_image": img}), testAPIKey)
	resp, err := router.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result service.VerificationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	resp, err = router.App().Test(withKey(httptest.NewRequest("GET", "/v1/verifications/"+result.ID.String(), nil), testAPIKey), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var stored domain.Verification
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stored))
	assert.Equal(t, result.ID, stored.ID)
	assert.True(t, stored.IsMatch)
	assert.Equal(t, 1.0, stored.Similarity)
}

func TestIntegration_ExtractionIsCached(t *testing.T) {
	router := newPersistentRouter(t)
	img := noisyPNG(t)

	for i := 0; i < 2; i++ {
		req := withKey(uploadRequest(t, "/v1/documents/extract", map[string][]byte{"image": img}), testAPIKey)
		resp, err := router.App().Test(req, -1)
		require.NoError(t, err)

		var result service.DocumentResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.False(t, result.Degraded)
	}

	var entries int
	require.NoError(t, testDB.QueryRow(context.Background(), "SELECT count(*) FROM ocr_cache").Scan(&entries))
	assert.Equal(t, 1, entries)
}
