package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"shopping-assistant/internal/catalog"
	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/validation"
	"shopping-assistant/internal/models"
)

// CatalogBrowser serves the read-only catalog routes.
type CatalogBrowser interface {
	FindMatches(ctx context.Context, filters models.CatalogFilters) ([]models.CatalogEntry, error)
	FindByID(ctx context.Context, id int64) (*models.CatalogEntry, error)
}

type BrandLister interface {
	ListBrands(ctx context.Context) ([]models.BrandVocabulary, error)
}

const phoneListSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "brand":       {"type": "string", "minLength": 1, "maxLength": 64},
    "min_price":   {"type": "number", "minimum": 0},
    "max_price":   {"type": "number", "minimum": 0},
    "min_ram":     {"type": "integer", "minimum": 0},
    "min_storage": {"type": "integer", "minimum": 0},
    "limit":       {"type": "integer", "minimum": 1, "maximum": 20}
  }
}`

var phoneListValidator = validation.MustValidator(phoneListSchema)

// WithCatalog enables /api/phones and /api/brands.
func (s *Server) WithCatalog(phones CatalogBrowser, brands BrandLister) *Server {
	s.phones = phones
	s.brands = brands
	return s
}

func (s *Server) handleListPhones(w http.ResponseWriter, r *http.Request) {
	params := queryDocument(r)
	if result := phoneListValidator.Validate(params); !result.Valid {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewInvalidInputError(result.Error()))
		return
	}

	filters := models.CatalogFilters{Limit: catalog.DefaultLimit}
	if brand, ok := params["brand"].(string); ok {
		filters.Brands = []string{brand}
	}
	if v, ok := params["min_price"].(float64); ok && v > 0 {
		filters.MinPrice = models.Float64Ptr(v)
	}
	if v, ok := params["max_price"].(float64); ok && v > 0 {
		filters.MaxPrice = models.Float64Ptr(v)
	}
	if v, ok := params["min_ram"].(float64); ok {
		filters.MinRAM = int(v)
	}
	if v, ok := params["min_storage"].(float64); ok {
		filters.MinStorage = int(v)
	}
	if v, ok := params["limit"].(float64); ok {
		filters.Limit = int(v)
	}

	entries, err := s.phones.FindMatches(r.Context(), filters)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewCatalogQueryFailedError("catalog", err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetPhone(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewInvalidInputError("id: must be a positive integer"))
		return
	}

	entry, err := s.phones.FindByID(r.Context(), id)
	switch {
	case errors.Is(err, catalog.ErrEntryNotFound):
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewCatalogEntryNotFoundError(id))
	case err != nil:
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewCatalogQueryFailedError("catalog", err))
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}

func (s *Server) handleListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.brands.ListBrands(r.Context())
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewCatalogQueryFailedError("vocabulary", err))
		return
	}
	names := make([]string, 0, len(brands))
	for _, b := range brands {
		names = append(names, b.Name)
	}
	writeJSON(w, http.StatusOK, names)
}

// queryDocument turns query parameters into a JSON-like document for schema validation.
// Numeric-looking values become numbers; anything else stays a string so the schema
// reports the type mismatch.
func queryDocument(r *http.Request) map[string]interface{} {
	doc := map[string]interface{}{}
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		raw := strings.TrimSpace(values[0])
		if key == "brand" {
			doc[key] = raw
			continue
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			doc[key] = n
			continue
		}
		doc[key] = raw
	}
	return doc
}
