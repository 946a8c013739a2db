package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joedrozd/aiamazonseo/internal/models"
)

// Listing containers as rendered on Amazon search result pages. The
// data-component-type attribute is the stable marker; s-result-item is the
// legacy fallback.
const (
	resultSelector         = "div[data-component-type='s-search-result']"
	fallbackResultSelector = "div.s-result-item"
)

var (
	asinPattern    = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
	ratingPattern  = regexp.MustCompile(`(\d+\.?\d*)`)
	reviewsPattern = regexp.MustCompile(`\(?(\d+(?:,\d+)*)\)?`)
	pricePattern   = regexp.MustCompile(`[^\d.]`)
)

// Title anchors vary between layouts; each selector is tried in order and
// the first match wins.
var titleSelectors = []string{
	"h2.a-size-mini a.a-link-normal",
	"h2.a-size-medium a.a-link-normal",
	"span.a-size-medium a.a-link-normal",
	"span.a-size-base-plus a.a-link-normal",
	"a.a-link-normal h2",
	"a.a-link-normal span.a-text-normal",
}

var priceSelectors = []string{
	"span.a-price .a-offscreen",
	"span.a-price-whole",
	"span.a-color-base",
	".a-price .a-offscreen",
}

// SearchParser extracts product listings from Amazon search result pages.
type SearchParser struct {
	baseURL     string
	affiliateID string
}

func NewSearchParser(baseURL, affiliateID string) *SearchParser {
	return &SearchParser{
		baseURL:     strings.TrimRight(baseURL, "/"),
		affiliateID: affiliateID,
	}
}

// Parse extracts every listing on a search results page and tags each
// record with the keyword that produced it. Field extraction is best
// effort: a field the markup does not yield stays at its zero value, and
// only listings with no resolvable product link are dropped.
func (p *SearchParser) Parse(html, keyword string) ([]models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	nodes := doc.Find(resultSelector)
	if nodes.Length() == 0 {
		nodes = doc.Find(fallbackResultSelector)
	}

	products := make([]models.Product, 0, nodes.Length())

	nodes.Each(func(_ int, node *goquery.Selection) {
		product := p.extractProduct(node)
		if product.URL == "" {
			// Without a link the record cannot be identified later.
			return
		}
		product.SearchKeyword = keyword
		products = append(products, product)
	})

	return products, nil
}

func (p *SearchParser) extractProduct(node *goquery.Selection) models.Product {
	var product models.Product

	titleNode := p.findTitleNode(node)
	if titleNode != nil {
		product.Title = strings.TrimSpace(titleNode.Text())
	}

	product.URL = p.extractURL(node, titleNode)
	product.Price = extractPrice(node)
	product.Rating = extractRating(node)
	product.ReviewsCount = extractReviews(node)
	product.ImageURL = extractImage(node)
	product.ASIN = ExtractASIN(product.URL)

	return product
}

func (p *SearchParser) findTitleNode(node *goquery.Selection) *goquery.Selection {
	for _, selector := range titleSelectors {
		if sel := node.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}

	if sel := node.Find("a.a-link-normal").First(); sel.Length() > 0 {
		return sel
	}

	return nil
}

func (p *SearchParser) extractURL(node, titleNode *goquery.Selection) string {
	linkNode := titleNode
	if linkNode == nil || goquery.NodeName(linkNode) != "a" {
		linkNode = node.Find("a.a-link-normal").First()
	}

	href, ok := linkNode.Attr("href")
	if !ok || href == "" {
		return ""
	}

	resolved := p.resolveURL(href)
	if resolved == "" {
		return ""
	}

	return p.addAffiliateTag(resolved)
}

func (p *SearchParser) resolveURL(href string) string {
	base, err := url.Parse(p.baseURL)
	if err != nil {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(ref).String()
}

// addAffiliateTag appends the configured affiliate ID as the tag query
// parameter, replacing any tag already present.
func (p *SearchParser) addAffiliateTag(rawURL string) string {
	if p.affiliateID == "" {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := u.Query()
	query.Set("tag", p.affiliateID)
	u.RawQuery = query.Encode()

	return u.String()
}

func extractPrice(node *goquery.Selection) string {
	for _, selector := range priceSelectors {
		sel := node.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		price := pricePattern.ReplaceAllString(strings.TrimSpace(sel.Text()), "")
		if price != "" {
			return price
		}
	}

	return ""
}

func extractRating(node *goquery.Selection) *float64 {
	sel := node.Find("span.a-icon-alt").First()
	if sel.Length() == 0 {
		sel = node.Find("i.a-icon-star-small span.a-icon-alt").First()
	}
	if sel.Length() == 0 {
		return nil
	}

	// "4.6 out of 5 stars" -> 4.6
	matches := ratingPattern.FindStringSubmatch(strings.TrimSpace(sel.Text()))
	if matches == nil {
		return nil
	}

	rating, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil
	}

	return &rating
}

func extractReviews(node *goquery.Selection) *int {
	sel := node.Find("span.a-size-base").First()
	if sel.Length() == 0 {
		sel = node.Find("span.a-size-small span.a-link-normal").First()
	}
	if sel.Length() == 0 {
		return nil
	}

	// "(28,453)" -> 28453
	matches := reviewsPattern.FindStringSubmatch(strings.TrimSpace(sel.Text()))
	if matches == nil || matches[1] == "" {
		return nil
	}

	count, err := strconv.Atoi(strings.ReplaceAll(matches[1], ",", ""))
	if err != nil {
		return nil
	}

	return &count
}

func extractImage(node *goquery.Selection) string {
	sel := node.Find("img.s-image").First()
	if sel.Length() == 0 {
		sel = node.Find("img").First()
	}

	src, _ := sel.Attr("src")
	return src
}

// ExtractASIN derives the ASIN from a product URL's /dp/<id> path segment.
// It returns the empty string when the URL does not carry one; an ASIN is
// never fabricated.
func ExtractASIN(rawURL string) string {
	matches := asinPattern.FindStringSubmatch(rawURL)
	if matches == nil {
		return ""
	}
	return matches[1]
}
