package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// productRecord is one entry of the catalogue export.
type productRecord struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
	Active      *bool    `json:"active"`
}

func main() {
	jsonFile := flag.String("file", "products.json", "Path to the JSON file")
	dbDSN := flag.String("db", os.Getenv("DATABASE_URL"), "PostgreSQL DSN connection string")
	batchSize := flag.Int("batch", 50, "Batch size for upserts")
	dryRun := flag.Bool("dry-run", false, "Validate the file without writing")
	tenant := flag.String("tenant", "", "Tenant id the products belong to (empty for platform products)")
	flag.Parse()

	if *dbDSN == "" && !*dryRun {
		fmt.Println("Error: Database DSN is required. Use -db flag or DATABASE_URL")
		flag.Usage()
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Loading JSON file", zap.String("file", *jsonFile))
	records, err := loadJSONFile(*jsonFile)
	if err != nil {
		logger.Fatal("Failed to load JSON file", zap.Error(err))
	}

	now := time.Now().UTC()
	products := make([]types.Product, 0, len(records))
	skipped := 0
	for i, record := range records {
		p, err := toProduct(record, now)
		if err != nil {
			logger.Warn("Skipping record", zap.Int("index", i), zap.Error(err))
			skipped++
			continue
		}
		p.TenantID = *tenant
		products = append(products, p)
	}
	logger.Info("Parsed records",
		zap.Int("total", len(records)),
		zap.Int("valid", len(products)),
		zap.Int("skipped", skipped))

	if *dryRun {
		return
	}

	pgClient, err := loaders.NewPostgresClient(*dbDSN, 4, *batchSize)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	written, err := pgClient.UpsertProducts(ctx, products)
	if err != nil {
		logger.Fatal("Import failed", zap.Int("written", written), zap.Error(err))
	}
	logger.Info("Import complete", zap.Int("written", written), zap.Int("skipped", skipped))
}

func loadJSONFile(filePath string) ([]productRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var records []productRecord
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return records, nil
}

func toProduct(r productRecord, now time.Time) (types.Product, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = strings.TrimSpace(r.Title)
	}
	if name == "" {
		return types.Product{}, fmt.Errorf("name is empty")
	}
	slug := strings.ToLower(strings.TrimSpace(r.Slug))
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return types.Product{}, fmt.Errorf("cannot derive slug for %q", name)
	}
	if r.Price < 0 {
		return types.Product{}, fmt.Errorf("negative price for %s", slug)
	}

	images := r.Images
	if len(images) == 0 && r.Image != "" {
		images = []string{r.Image}
	}

	return types.Product{
		ID:          uuid.NewString(),
		Slug:        slug,
		LegacyID:    r.ID,
		SKU:         r.SKU,
		Name:        name,
		Description: r.Description,
		Price:       utils.RoundMoney(r.Price),
		Images:      images,
		IsActive:    r.Active == nil || *r.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// slugify keeps ASCII letters and digits and joins the rest with single dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
