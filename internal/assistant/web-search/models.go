package websearch

import "errors"

var (
	ErrWebSearchTimeout  = errors.New("WEB_SEARCH_TIMEOUT")
	ErrWebSearchDisabled = errors.New("WEB_SEARCH_DISABLED")
)

const (
	phoneQuerySuffix      = "mobile phone specifications price features"
	comparisonQueryFormat = "%s vs %s comparison specifications differences"
	latestQueryFormat     = "%s mobile phones %d %d latest new releases"
	comparisonResults     = 5
	latestResults         = 5
)

type apiResponse struct {
	Items []apiItem `json:"items"`
}

type apiItem struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Mime    string `json:"mime"`
}
