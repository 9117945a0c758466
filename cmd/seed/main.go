// Command seed loads the perfume catalog's starter collections and products
// and creates or resets an admin account. It is safe to run repeatedly:
// existing collections and products are left as they are.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/migrations"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository/postgres"
	searchmemory "github.com/SherMuhammadgithub/perfume-site-sub000/internal/search/memory"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	pkgconfig "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/config"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/database"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/logger"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/slug"
)

// dbConfig reads the same POSTGRES_* variables as the server.
type dbConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Postgres database.PostgresConfig
}

// adminConfig is read with the SEED_ prefix, e.g. SEED_ADMIN_EMAIL.
type adminConfig struct {
	Email    string `env:"ADMIN_EMAIL" envDefault:"admin@perfume.local"`
	Name     string `env:"ADMIN_NAME" envDefault:"Store Admin"`
	Password string `env:"ADMIN_PASSWORD"`
}

func (c *adminConfig) Validate() error {
	if c.Password == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required")
	}
	return nil
}

type collectionDef struct {
	name        string
	description string
}

type productDef struct {
	name       string
	brand      string
	collection string
	gender     domain.Gender
	volumeML   int
	notes      []string
	price      int64 // cents
	discount   int64 // cents, 0 for none
	stock      int
	featured   bool
}

var collections = []collectionDef{
	{"Oud & Amber", "Resinous, smoky blends built around agarwood and warm amber."},
	{"Fresh Citrus", "Bright colognes of bergamot, neroli and lemon for warm days."},
	{"Floral Bouquet", "Rose, jasmine and tuberose compositions from soft to opulent."},
	{"Woody Classics", "Cedar, sandalwood and vetiver signatures for every season."},
}

var products = []productDef{
	{"Midnight Oud", "Maison Noire", "Oud & Amber", domain.GenderUnisex, 100, []string{"oud", "saffron", "rose", "amber"}, 18500, 0, 12, true},
	{"Amber Dunes", "Maison Noire", "Oud & Amber", domain.GenderMen, 75, []string{"amber", "labdanum", "vanilla"}, 13500, 11500, 20, false},
	{"Smoked Incense", "Atelier Sable", "Oud & Amber", domain.GenderUnisex, 50, []string{"frankincense", "birch tar", "oud"}, 16000, 0, 6, false},
	{"Bergamot Riviera", "Casa Limone", "Fresh Citrus", domain.GenderUnisex, 100, []string{"bergamot", "lemon", "petitgrain"}, 9500, 0, 40, true},
	{"Neroli Blanc", "Casa Limone", "Fresh Citrus", domain.GenderWomen, 50, []string{"neroli", "orange blossom", "musk"}, 11000, 8900, 25, false},
	{"Vetiver Splash", "Atelier Sable", "Fresh Citrus", domain.GenderMen, 100, []string{"grapefruit", "vetiver", "ginger"}, 8900, 0, 0, false},
	{"Rose Absolue", "Florale Paris", "Floral Bouquet", domain.GenderWomen, 50, []string{"damask rose", "pink pepper", "patchouli"}, 14500, 0, 15, true},
	{"Jasmine Nuit", "Florale Paris", "Floral Bouquet", domain.GenderWomen, 75, []string{"jasmine sambac", "tuberose", "sandalwood"}, 15500, 13900, 9, false},
	{"Iris Poudré", "Florale Paris", "Floral Bouquet", domain.GenderUnisex, 100, []string{"iris", "violet", "cashmere wood"}, 17500, 0, 4, false},
	{"Cedar Atlas", "Bois d'Or", "Woody Classics", domain.GenderMen, 100, []string{"atlas cedar", "cypress", "leather"}, 12000, 0, 18, false},
	{"Sandalwood Silk", "Bois d'Or", "Woody Classics", domain.GenderUnisex, 50, []string{"mysore sandalwood", "cardamom", "milk"}, 13000, 0, 22, true},
	{"Vetiver Royal", "Bois d'Or", "Woody Classics", domain.GenderMen, 75, []string{"haitian vetiver", "tobacco", "tonka"}, 14000, 12500, 11, false},
}

func main() {
	var dbCfg dbConfig
	if err := pkgconfig.Load(&dbCfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	var adminCfg adminConfig
	if err := pkgconfig.LoadWithPrefix(&adminCfg, "SEED_"); err != nil {
		slog.Error("failed to load admin config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("perfume-seed", dbCfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, dbCfg, adminCfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed completed")
}

func run(ctx context.Context, dbCfg dbConfig, adminCfg adminConfig, log *slog.Logger) error {
	pool, err := database.NewPostgresPool(ctx, dbCfg.Postgres, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, migrations.FS, log); err != nil {
		return err
	}

	collectionRepo := postgres.NewCollectionRepository(pool)
	productRepo := postgres.NewProductRepository(pool)

	// The server rebuilds its search index from the database at startup.
	engine := searchmemory.New()
	productService := service.NewProductService(productRepo, collectionRepo, engine, log)
	collectionService := service.NewCollectionService(collectionRepo, engine, productService, log)
	authService := service.NewAuthService(postgres.NewAdminRepository(pool), nil, log)

	collectionIDs := make(map[string]string, len(collections))
	for _, def := range collections {
		c, err := collectionService.CreateCollection(ctx, &service.CollectionInput{
			Name:        def.name,
			Description: def.description,
		})
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			existing, err := collectionRepo.GetBySlug(ctx, slug.Generate(def.name))
			if err != nil {
				return fmt.Errorf("load existing collection %q: %w", def.name, err)
			}
			collectionIDs[def.name] = existing.ID
			log.Info("collection exists", slog.String("name", def.name))
			continue
		}
		if err != nil {
			return fmt.Errorf("seed collection %q: %w", def.name, err)
		}
		collectionIDs[def.name] = c.ID
	}

	created := 0
	for _, def := range products {
		collectionID := collectionIDs[def.collection]
		input := &service.CreateProductInput{
			Name:         def.name,
			Description:  fmt.Sprintf("%s by %s, %d ml.", def.name, def.brand, def.volumeML),
			Brand:        def.brand,
			CollectionID: &collectionID,
			Gender:       def.gender,
			VolumeML:     def.volumeML,
			Notes:        def.notes,
			Price:        def.price,
			Stock:        def.stock,
			Status:       domain.ProductPublished,
			Featured:     def.featured,
		}
		if def.discount > 0 {
			discount := def.discount
			input.DiscountPrice = &discount
		}

		_, err := productService.CreateProduct(ctx, input)
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			log.Info("product exists", slog.String("name", def.name))
			continue
		}
		if err != nil {
			return fmt.Errorf("seed product %q: %w", def.name, err)
		}
		created++
	}
	log.Info("products seeded", slog.Int("created", created), slog.Int("total", len(products)))

	if _, err := authService.EnsureAdmin(ctx, adminCfg.Email, adminCfg.Name, adminCfg.Password); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
