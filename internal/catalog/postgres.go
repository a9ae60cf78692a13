package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"

	"github.com/lib/pq"
)

const phoneColumns = `id, name, brand, price, display_size, display_resolution, processor, ram, storage, ` +
	`camera_main, camera_front, battery_capacity, charging_speed, os, weight, colors, features, description, image_url`

const findByIDQuery = `SELECT ` + phoneColumns + ` FROM mobile_phones WHERE id = $1`

const (
	listBrandsQuery = `SELECT name, aliases FROM brands WHERE is_active = true ORDER BY name`
	listModelsQuery = `SELECT name, search_terms FROM phone_models WHERE is_active = true ORDER BY name`
)

// PostgresCatalog serves both lookups from the relational catalog.
type PostgresCatalog struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresCatalog(cfg *Config, db *sql.DB, log logger.Logger) *PostgresCatalog {
	return &PostgresCatalog{
		config: cfg,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"catalog": "postgres"}),
	}
}

func (c *PostgresCatalog) FindMatches(ctx context.Context, filters models.CatalogFilters) ([]models.CatalogEntry, error) {
	query, args := buildFindQuery(filters, c.config.limit(filters.Limit))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	defer rows.Close()

	entries := make([]models.CatalogEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, c.fail(ctx, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, c.fail(ctx, err)
	}

	metrics.CatalogQueries.WithLabelValues("postgres", "success").Inc()
	c.logger.Debug("Catalog lookup completed", map[string]interface{}{
		"rowCount": len(entries),
		"brands":   filters.Brands,
		"models":   filters.Models,
	})
	return entries, nil
}

func (c *PostgresCatalog) FindByID(ctx context.Context, id int64) (*models.CatalogEntry, error) {
	rows, err := c.db.QueryContext(ctx, findByIDQuery, id)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, c.fail(ctx, err)
		}
		metrics.CatalogQueries.WithLabelValues("postgres", "not_found").Inc()
		return nil, ErrEntryNotFound
	}
	entry, err := scanEntry(rows)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	metrics.CatalogQueries.WithLabelValues("postgres", "success").Inc()
	return &entry, nil
}

// buildFindQuery ANDs every present filter; brand and model lists match any pattern.
func buildFindQuery(filters models.CatalogFilters, limit int) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patterns := likePatterns(filters.Brands); len(patterns) > 0 {
		conditions = append(conditions, "brand ILIKE ANY("+next(pq.StringArray(patterns))+")")
	}
	if patterns := likePatterns(filters.Models); len(patterns) > 0 {
		conditions = append(conditions, "name ILIKE ANY("+next(pq.StringArray(patterns))+")")
	}
	if filters.MinPrice != nil {
		conditions = append(conditions, "price >= "+next(*filters.MinPrice))
	}
	if filters.MaxPrice != nil {
		conditions = append(conditions, "price <= "+next(*filters.MaxPrice))
	}
	if filters.MinRAM > 0 {
		conditions = append(conditions, "ram >= "+next(filters.MinRAM))
	}
	if filters.MinStorage > 0 {
		conditions = append(conditions, "storage >= "+next(filters.MinStorage))
	}

	var b strings.Builder
	b.WriteString("SELECT " + phoneColumns + " FROM mobile_phones")
	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY id LIMIT " + next(limit))
	return b.String(), args
}

func likePatterns(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
		out = append(out, "%"+escaped+"%")
	}
	return out
}

func scanEntry(rows *sql.Rows) (models.CatalogEntry, error) {
	var (
		e                                                     models.CatalogEntry
		displaySize, weight                                   sql.NullFloat64
		resolution, processor, cameraMain, cameraFront        sql.NullString
		chargingSpeed, os, colors, features, description, img sql.NullString
		ram, storage, battery                                 sql.NullInt64
	)
	err := rows.Scan(
		&e.ID, &e.Name, &e.Brand, &e.Price,
		&displaySize, &resolution, &processor, &ram, &storage,
		&cameraMain, &cameraFront, &battery, &chargingSpeed, &os, &weight,
		&colors, &features, &description, &img,
	)
	if err != nil {
		return e, err
	}

	e.DisplaySize = displaySize.Float64
	e.DisplayResolution = resolution.String
	e.Processor = processor.String
	e.RAM = int(ram.Int64)
	e.Storage = int(storage.Int64)
	e.CameraMain = cameraMain.String
	e.CameraFront = cameraFront.String
	e.BatteryCapacity = int(battery.Int64)
	e.ChargingSpeed = chargingSpeed.String
	e.OS = os.String
	e.Weight = weight.Float64
	e.Colors = parseList(colors.String)
	e.Features = parseList(features.String)
	e.Description = description.String
	e.ImageURL = img.String
	return e, nil
}

func (c *PostgresCatalog) ListBrands(ctx context.Context) ([]models.BrandVocabulary, error) {
	rows, err := c.db.QueryContext(ctx, listBrandsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: list brands: %v", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var out []models.BrandVocabulary
	for rows.Next() {
		var name string
		var aliases sql.NullString
		if err := rows.Scan(&name, &aliases); err != nil {
			return nil, fmt.Errorf("%w: scan brand: %v", ErrQueryExecutionFailed, err)
		}
		out = append(out, models.BrandVocabulary{Name: name, Aliases: parseList(aliases.String)})
	}
	return out, rows.Err()
}

func (c *PostgresCatalog) ListModels(ctx context.Context) ([]models.ModelVocabulary, error) {
	rows, err := c.db.QueryContext(ctx, listModelsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: list models: %v", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var out []models.ModelVocabulary
	for rows.Next() {
		var name string
		var terms sql.NullString
		if err := rows.Scan(&name, &terms); err != nil {
			return nil, fmt.Errorf("%w: scan model: %v", ErrQueryExecutionFailed, err)
		}
		out = append(out, models.ModelVocabulary{Name: name, SearchTerms: parseList(terms.String)})
	}
	return out, rows.Err()
}

func (c *PostgresCatalog) fail(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		metrics.CatalogQueries.WithLabelValues("postgres", "timeout").Inc()
		return ErrQueryTimeout
	}
	metrics.CatalogQueries.WithLabelValues("postgres", "error").Inc()
	return fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
}
