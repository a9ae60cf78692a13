package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchCatalog runs FindMatches against a search index holding the same records.
type ElasticsearchCatalog struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
}

func NewElasticsearchCatalog(cfg *Config, client *elasticsearch.Client, log logger.Logger) *ElasticsearchCatalog {
	return &ElasticsearchCatalog{
		config: cfg,
		client: client,
		logger: log.WithFields(map[string]interface{}{"catalog": "elasticsearch"}),
	}
}

type phoneDocument struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Brand             string      `json:"brand"`
	Price             float64     `json:"price"`
	DisplaySize       float64     `json:"display_size"`
	DisplayResolution string      `json:"display_resolution"`
	Processor         string      `json:"processor"`
	RAM               int         `json:"ram"`
	Storage           int         `json:"storage"`
	CameraMain        string      `json:"camera_main"`
	CameraFront       string      `json:"camera_front"`
	BatteryCapacity   int         `json:"battery_capacity"`
	ChargingSpeed     string      `json:"charging_speed"`
	OS                string      `json:"os"`
	Weight            float64     `json:"weight"`
	Colors            flexibleStr `json:"colors"`
	Features          flexibleStr `json:"features"`
	Description       string      `json:"description"`
	ImageURL          string      `json:"image_url"`
}

// flexibleStr accepts either a JSON array of strings or a single delimited string.
type flexibleStr []string

func (f *flexibleStr) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = parseList(s)
	return nil
}

func (d phoneDocument) entry() models.CatalogEntry {
	return models.CatalogEntry{
		ID:                d.ID,
		Name:              d.Name,
		Brand:             d.Brand,
		Price:             d.Price,
		DisplaySize:       d.DisplaySize,
		DisplayResolution: d.DisplayResolution,
		Processor:         d.Processor,
		RAM:               d.RAM,
		Storage:           d.Storage,
		CameraMain:        d.CameraMain,
		CameraFront:       d.CameraFront,
		BatteryCapacity:   d.BatteryCapacity,
		ChargingSpeed:     d.ChargingSpeed,
		OS:                d.OS,
		Weight:            d.Weight,
		Colors:            []string(d.Colors),
		Features:          []string(d.Features),
		Description:       d.Description,
		ImageURL:          d.ImageURL,
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source phoneDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *ElasticsearchCatalog) FindMatches(ctx context.Context, filters models.CatalogFilters) ([]models.CatalogEntry, error) {
	body, err := json.Marshal(buildSearchQuery(filters))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	size := c.config.limit(filters.Limit)
	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, c.fail(ctx, fmt.Errorf("search error: %s", res.Status()))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, c.fail(ctx, fmt.Errorf("decode response: %v", err))
	}

	entries := make([]models.CatalogEntry, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		entries = append(entries, hit.Source.entry())
	}

	metrics.CatalogQueries.WithLabelValues("elasticsearch", "success").Inc()
	c.logger.Debug("Catalog search completed", map[string]interface{}{
		"hitCount": len(entries),
		"index":    c.config.Index,
	})
	return entries, nil
}

// FindByID reads the document whose id is the phone id.
func (c *ElasticsearchCatalog) FindByID(ctx context.Context, id int64) (*models.CatalogEntry, error) {
	req := esapi.GetRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(id, 10),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		metrics.CatalogQueries.WithLabelValues("elasticsearch", "not_found").Inc()
		return nil, ErrEntryNotFound
	}
	if res.IsError() {
		return nil, c.fail(ctx, fmt.Errorf("get error: %s", res.Status()))
	}

	var doc struct {
		Found  bool          `json:"found"`
		Source phoneDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, c.fail(ctx, fmt.Errorf("decode response: %v", err))
	}
	if !doc.Found {
		metrics.CatalogQueries.WithLabelValues("elasticsearch", "not_found").Inc()
		return nil, ErrEntryNotFound
	}

	entry := doc.Source.entry()
	metrics.CatalogQueries.WithLabelValues("elasticsearch", "success").Inc()
	return &entry, nil
}

// buildSearchQuery mirrors the relational filter: every present constraint must hold.
func buildSearchQuery(filters models.CatalogFilters) map[string]interface{} {
	var must []interface{}

	if len(filters.Brands) > 0 {
		must = append(must, anyOf("brand", filters.Brands))
	}
	if len(filters.Models) > 0 {
		must = append(must, anyOf("name", filters.Models))
	}

	price := map[string]interface{}{}
	if filters.MinPrice != nil {
		price["gte"] = *filters.MinPrice
	}
	if filters.MaxPrice != nil {
		price["lte"] = *filters.MaxPrice
	}
	if len(price) > 0 {
		must = append(must, rangeOf("price", price))
	}
	if filters.MinRAM > 0 {
		must = append(must, rangeOf("ram", map[string]interface{}{"gte": filters.MinRAM}))
	}
	if filters.MinStorage > 0 {
		must = append(must, rangeOf("storage", map[string]interface{}{"gte": filters.MinStorage}))
	}

	if len(must) == 0 {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"sort":  []interface{}{map[string]interface{}{"id": "asc"}},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": must},
		},
		"sort": []interface{}{map[string]interface{}{"id": "asc"}},
	}
}

func anyOf(field string, values []string) map[string]interface{} {
	should := make([]interface{}, 0, len(values))
	for _, v := range values {
		should = append(should, map[string]interface{}{
			"match_phrase": map[string]interface{}{field: v},
		})
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}

func rangeOf(field string, bounds map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"range": map[string]interface{}{field: bounds},
	}
}

func (c *ElasticsearchCatalog) fail(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		metrics.CatalogQueries.WithLabelValues("elasticsearch", "timeout").Inc()
		return ErrQueryTimeout
	}
	metrics.CatalogQueries.WithLabelValues("elasticsearch", "error").Inc()
	return fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
}
