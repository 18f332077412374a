package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/config"
)

// ErrUpstream reports a failing external question API.
var ErrUpstream = errors.New("question api failure")

const maxPerRequest = 50

type apiQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

// OpenTDB fetches multiple-choice questions from an Open Trivia DB compatible API.
type OpenTDB struct {
	baseURL    string
	client     *http.Client
	categories config.Categories
}

func NewOpenTDB(baseURL string, client *http.Client, categories config.Categories) *OpenTDB {
	return &OpenTDB{
		baseURL:    baseURL,
		client:     client,
		categories: categories,
	}
}

// Fetch returns up to n questions; answers are HTML-decoded and options unshuffled.
func (o *OpenTDB) Fetch(ctx context.Context, category string, n int) ([]internal.Question, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > maxPerRequest {
		n = maxPerRequest
	}

	u, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base url: %v", ErrUpstream, err)
	}
	q := u.Query()
	q.Set("amount", strconv.Itoa(n))
	q.Set("type", "multiple")
	if id, ok := o.categories.ExternalID(category); ok && id > 0 {
		q.Set("category", strconv.Itoa(id))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if body.ResponseCode != 0 {
		return nil, fmt.Errorf("%w: response code %d", ErrUpstream, body.ResponseCode)
	}

	out := make([]internal.Question, 0, len(body.Results))
	for _, r := range body.Results {
		correct := html.UnescapeString(r.CorrectAnswer)
		options := []string{correct}
		for _, wrong := range r.IncorrectAnswers {
			options = append(options, html.UnescapeString(wrong))
		}
		out = append(out, internal.Question{
			Category:      category,
			Text:          html.UnescapeString(r.Question),
			Options:       options,
			CorrectAnswer: correct,
		})
	}
	return out, nil
}
