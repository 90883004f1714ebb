package catalogapi

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/lshcatalog/viewer/internal/domain"
)

// "#12,345 in Appliances (See Top 100 in Appliances)"
var rankRegex = regexp.MustCompile(`#?([\d,]+)\s+in\s+([^(]+)`)

// flexText decodes a string, a list of strings (joined) or a number
type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = flexText(s)
		return nil
	}

	var list flexList
	if err := json.Unmarshal(data, &list); err == nil {
		*t = flexText(strings.Join(list, " "))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = flexText(n.String())
	return nil
}

// flexList decodes a list of strings, nested lists (flattened) or a single string
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*l = nil
		} else {
			*l = flexList{s}
		}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(flexList, 0, len(raw))
	for _, item := range raw {
		var inner flexList
		if err := json.Unmarshal(item, &inner); err != nil {
			return err
		}
		out = append(out, inner...)
	}
	*l = out
	return nil
}

// flexFloat decodes a number or a numeric string
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var text flexText
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	if text == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// wireProduct covers the field variants seen in the appliances dataset exports
type wireProduct struct {
	ASIN            string          `json:"asin"`
	ID              string          `json:"id"`
	Title           flexText        `json:"title"`
	Description     flexText        `json:"description"`
	Price           flexText        `json:"price"`
	Images          flexList        `json:"images"`
	ImageURLList    flexList        `json:"image_URL"`
	ImageURLHighRes flexList        `json:"imageURLHighRes"`
	ImageURLHigh    string          `json:"imageURL_high"`
	ImageURL        string          `json:"imageURL"`
	Brand           flexText        `json:"brand"`
	Categories      flexList        `json:"categories"`
	Category        flexList        `json:"category"`
	Feature         flexList        `json:"feature"`
	Features        flexList        `json:"features"`
	Details         json.RawMessage `json:"details"`
	Tech1           json.RawMessage `json:"tech1"`
	Tech2           json.RawMessage `json:"tech2"`
	SalesRank       json.RawMessage `json:"salesRank"`
	Rank            flexList        `json:"rank"`
	Related         struct {
		AlsoBought flexList `json:"also_bought"`
		AlsoViewed flexList `json:"also_viewed"`
	} `json:"related"`
	AlsoBuy  flexList `json:"also_buy"`
	AlsoView flexList `json:"also_view"`
	Similar  flexList `json:"similar"`
}

type wireProductPage struct {
	Products []wireProduct `json:"products"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PerPage  int           `json:"per_page"`
}

type wireSimilarRequest struct {
	Mode      string `json:"mode"`
	ProductID string `json:"product_id"`
	Method    string `json:"method"`
	K         int    `json:"k"`
}

type wireSimilarHit struct {
	ASIN          string     `json:"asin"`
	ID            string     `json:"id"`
	Score         *flexFloat `json:"score"`
	IsGroundTruth *bool      `json:"is_ground_truth"`
}

type wireSimilarResponse struct {
	Results []json.RawMessage `json:"results"`
	Metrics *struct {
		PrecisionAtK flexFloat `json:"precision_at_k"`
	} `json:"metrics"`
}

type wireError struct {
	Error string `json:"error"`
}

// MapProduct converts a wire product to the domain model
func MapProduct(w *wireProduct) domain.Product {
	id := w.ASIN
	if id == "" {
		id = w.ID
	}

	details := decodeStringMap(w.Details)
	for k, v := range decodeStringMap(w.Tech1) {
		details = setDetail(details, k, v)
	}
	for k, v := range decodeStringMap(w.Tech2) {
		details = setDetail(details, k, v)
	}

	return domain.Product{
		ID:          id,
		Title:       string(w.Title),
		Description: string(w.Description),
		Price:       string(w.Price),
		Images: firstImageGroup(
			w.Images,
			w.ImageURLList,
			w.ImageURLHighRes,
			flexList{w.ImageURLHigh},
			flexList{w.ImageURL},
		),
		Brand:             string(w.Brand),
		Categories:        orEmpty(firstNonEmpty(w.Categories, w.Category)),
		Features:          firstNonEmpty(w.Feature, w.Features),
		Details:           details,
		SalesRank:         salesRank(w),
		RelatedAlsoBought: orEmpty(firstNonEmpty(w.Related.AlsoBought, w.AlsoBuy)),
		RelatedAlsoViewed: orEmpty(firstNonEmpty(w.Related.AlsoViewed, w.AlsoView)),
		Similar:           w.Similar,
	}
}

// MapProductPage converts a products page response
func MapProductPage(w *wireProductPage) *domain.ProductPage {
	products := make([]domain.Product, 0, len(w.Products))
	for i := range w.Products {
		products = append(products, MapProduct(&w.Products[i]))
	}

	return &domain.ProductPage{
		Products: products,
		Total:    w.Total,
		Page:     w.Page,
		PerPage:  w.PerPage,
	}
}

// MapSimilarResponse converts a similarity response. Results may be bare ids
// or objects carrying a score and ground-truth flag.
func MapSimilarResponse(w *wireSimilarResponse) (*domain.SimilarityResponse, error) {
	hits := make([]domain.SimilarityHit, 0, len(w.Results))

	for _, raw := range w.Results {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil {
			hits = append(hits, domain.SimilarityHit{ID: id})
			continue
		}

		var item wireSimilarHit
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}

		hit := domain.SimilarityHit{ID: item.ASIN, IsGroundTruth: item.IsGroundTruth}
		if hit.ID == "" {
			hit.ID = item.ID
		}
		if item.Score != nil {
			score := float64(*item.Score)
			hit.Score = &score
		}
		hits = append(hits, hit)
	}

	response := &domain.SimilarityResponse{Results: hits}
	if w.Metrics != nil {
		response.Metrics = &domain.SimilarityMetrics{PrecisionAtK: float64(w.Metrics.PrecisionAtK)}
	}

	return response, nil
}

// decodeStringMap reads a flat object of text values; anything else yields nil
func decodeStringMap(raw json.RawMessage) map[string]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var m map[string]flexText
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = string(v)
	}
	return out
}

func decodeRankMap(raw json.RawMessage) map[string]int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var m map[string]int
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// salesRank prefers a category map and falls back to the dataset's rank text
func salesRank(w *wireProduct) map[string]int {
	if ranks := decodeRankMap(w.SalesRank); ranks != nil {
		return ranks
	}

	texts := []string(w.Rank)
	var fromSalesRank flexList
	if len(w.SalesRank) > 0 && json.Unmarshal(w.SalesRank, &fromSalesRank) == nil {
		texts = append(texts, fromSalesRank...)
	}
	return parseRanks(texts)
}

func parseRanks(texts []string) map[string]int {
	var ranks map[string]int
	for _, text := range texts {
		m := rankRegex.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		category := strings.TrimSpace(m[2])
		if category == "" {
			continue
		}
		if ranks == nil {
			ranks = make(map[string]int)
		}
		if _, exists := ranks[category]; !exists {
			ranks[category] = n
		}
	}
	return ranks
}

func setDetail(details map[string]string, key, value string) map[string]string {
	if details == nil {
		details = make(map[string]string)
	}
	details[key] = value
	return details
}

func firstNonEmpty(lists ...flexList) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

func orEmpty(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

// firstImageGroup takes the first image field that has any usable url.
// The variants are resolutions of the same pictures, so they are not merged.
func firstImageGroup(groups ...flexList) []string {
	for _, g := range groups {
		if images := dedupe(g); len(images) > 0 {
			return images
		}
	}
	return []string{}
}

// dedupe concatenates lists keeping first occurrences and dropping blanks
func dedupe(lists ...flexList) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, l := range lists {
		for _, s := range l {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
