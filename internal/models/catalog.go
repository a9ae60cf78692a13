package models

// CatalogEntry is the single phone record shape shared by every component.
type CatalogEntry struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Brand             string   `json:"brand"`
	Price             float64  `json:"price"`
	DisplaySize       float64  `json:"displaySize,omitempty"`
	DisplayResolution string   `json:"displayResolution,omitempty"`
	Processor         string   `json:"processor,omitempty"`
	RAM               int      `json:"ram,omitempty"`     // GB
	Storage           int      `json:"storage,omitempty"` // GB
	CameraMain        string   `json:"cameraMain,omitempty"`
	CameraFront       string   `json:"cameraFront,omitempty"`
	BatteryCapacity   int      `json:"batteryCapacity,omitempty"` // mAh
	ChargingSpeed     string   `json:"chargingSpeed,omitempty"`
	OS                string   `json:"os,omitempty"`
	Weight            float64  `json:"weight,omitempty"` // grams
	Colors            []string `json:"colors,omitempty"`
	Features          []string `json:"features,omitempty"`
	Description       string   `json:"description,omitempty"`
	ImageURL          string   `json:"imageUrl,omitempty"`
}

type BrandVocabulary struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

type ModelVocabulary struct {
	Name        string   `json:"name"`
	SearchTerms []string `json:"searchTerms"`
}

// CatalogFilters is derived from an ExtractionResult. Zero values mean "no constraint".
type CatalogFilters struct {
	Brands     []string `json:"brands,omitempty"`
	Models     []string `json:"models,omitempty"`
	MinPrice   *float64 `json:"minPrice,omitempty"`
	MaxPrice   *float64 `json:"maxPrice,omitempty"`
	MinRAM     int      `json:"minRam,omitempty"`
	MinStorage int      `json:"minStorage,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}
