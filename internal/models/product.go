package models

// Product is one scraped search listing. URL is the only field guaranteed
// to be populated; every other extraction field degrades to its zero value
// (empty string, nil pointer) when the source markup does not yield it.
type Product struct {
	Title         string   `json:"title"`
	Price         string   `json:"price"`
	Rating        *float64 `json:"rating"`
	ReviewsCount  *int     `json:"reviews_count"`
	URL           string   `json:"url"`
	ImageURL      string   `json:"image_url"`
	ASIN          string   `json:"asin"`
	SearchKeyword string   `json:"search_keyword"`
}

// Identity returns the value products are deduplicated by: the ASIN when
// one was derived from the URL, otherwise the URL itself.
func (p *Product) Identity() string {
	if p.ASIN != "" {
		return p.ASIN
	}
	return p.URL
}

// KeywordResult summarizes one keyword's pagination run. Err is non-nil
// when the run stopped early on a fetch failure; Products still holds
// whatever was collected before the failure.
type KeywordResult struct {
	Keyword  string
	Products []Product
	Pages    int
	Err      error
}
