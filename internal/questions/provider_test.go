package questions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/config"
	"github.com/scythe504/trivia-backend/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func seededRepo(t *testing.T, n int, category string) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	var qs []internal.Question
	for i := range n {
		text := category + " stored " + string(rune('A'+i))
		qs = append(qs, internal.Question{
			ID:            text,
			Category:      category,
			Text:          text,
			Options:       []string{"right", "w1", "w2", "w3"},
			CorrectAnswer: "right",
		})
	}
	require.NoError(t, m.UpsertQuestions(context.Background(), qs))
	return m
}

const apiBody = `{
  "response_code": 0,
  "results": [
    {"category":"History","type":"multiple","difficulty":"easy",
     "question":"Who said &quot;Veni, vidi, vici&quot;?",
     "correct_answer":"Julius Caesar",
     "incorrect_answers":["Nero","Augustus","Cicero &amp; Co"]},
    {"category":"History","type":"multiple","difficulty":"easy",
     "question":"Year of the Battle of Hastings?",
     "correct_answer":"1066",
     "incorrect_answers":["1067","1166","966"]}
  ]
}`

func newAPI(t *testing.T, status int, body string, gotQuery *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotQuery != nil {
			*gotQuery = r.URL.RawQuery
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_StoredOnly(t *testing.T) {
	repo := seededRepo(t, 5, "History")
	p := NewProvider(repo, nil, 15, discard)

	qs, err := p.Questions(context.Background(), "History", 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	for _, q := range qs {
		assert.Equal(t, 15, q.TimeLimit)
		assert.Contains(t, q.Options, q.CorrectAnswer)
		assert.Len(t, q.Options, 4)
	}
}

func TestProvider_FallsBackToAPI(t *testing.T) {
	repo := seededRepo(t, 1, "History")
	var query string
	api := newAPI(t, http.StatusOK, apiBody, &query)
	p := NewProvider(repo, NewOpenTDB(api.URL, api.Client(), config.DefaultCategories()), 20, discard)

	qs, err := p.Questions(context.Background(), "History", 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.Contains(t, query, "amount=2")
	assert.Contains(t, query, "category=23")
	assert.Contains(t, query, "type=multiple")

	var caesar *internal.Question
	for i := range qs {
		if qs[i].CorrectAnswer == "Julius Caesar" {
			caesar = &qs[i]
		}
	}
	require.NotNil(t, caesar)
	assert.Equal(t, `Who said "Veni, vidi, vici"?`, caesar.Text)
	assert.True(t, slices.Contains(caesar.Options, "Cicero & Co"))
	assert.Equal(t, 20, caesar.TimeLimit)
}

func TestProvider_RandomCategoryOmitsParam(t *testing.T) {
	var query string
	api := newAPI(t, http.StatusOK, apiBody, &query)
	p := NewProvider(store.NewMemory(), NewOpenTDB(api.URL, api.Client(), config.DefaultCategories()), 15, discard)

	_, err := p.Questions(context.Background(), internal.QuickMatchCategory, 2)
	require.NoError(t, err)
	assert.NotContains(t, query, "category=")
}

func TestProvider_Insufficient(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		upstream bool
	}{
		{"short_result", http.StatusOK, apiBody, false},
		{"api_error_code", http.StatusOK, `{"response_code":1,"results":[]}`, true},
		{"api_http_error", http.StatusInternalServerError, `oops`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newAPI(t, tt.status, tt.body, nil)
			p := NewProvider(store.NewMemory(), NewOpenTDB(api.URL, api.Client(), config.DefaultCategories()), 15, discard)

			_, err := p.Questions(context.Background(), "History", 5)
			require.ErrorIs(t, err, ErrInsufficient)
			assert.Equal(t, tt.upstream, errors.Is(err, ErrUpstream))
		})
	}
}

type batchFetcher struct {
	batches [][]internal.Question
	asked   []int
}

func (f *batchFetcher) Fetch(_ context.Context, _ string, n int) ([]internal.Question, error) {
	f.asked = append(f.asked, n)
	if len(f.batches) == 0 {
		return nil, nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next, nil
}

func TestProvider_RefetchesWhenAPIRepeatsStoredQuestions(t *testing.T) {
	repo := seededRepo(t, 1, "History")
	question := func(text string) internal.Question {
		return internal.Question{Category: "History", Text: text, Options: []string{"x", "y"}, CorrectAnswer: "x"}
	}
	api := &batchFetcher{batches: [][]internal.Question{
		{question("History stored A"), question("fresh 1")},
		{question("fresh 2")},
	}}
	p := NewProvider(repo, api, 15, discard)

	qs, err := p.Questions(context.Background(), "History", 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, []int{2, 1}, api.asked)

	var texts []string
	for _, q := range qs {
		texts = append(texts, q.Text)
	}
	assert.ElementsMatch(t, []string{"History stored A", "fresh 1", "fresh 2"}, texts)
}

func TestProvider_SkipsMalformedStoredQuestions(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.UpsertQuestions(context.Background(), []internal.Question{
		{ID: "1", Category: "Art", Text: "ok", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"},
		{ID: "2", Category: "Art", Text: "answer missing from options", Options: []string{"a", "b"}, CorrectAnswer: "z"},
	}))
	p := NewProvider(m, nil, 15, discard)

	_, err := p.Questions(context.Background(), "Art", 2)
	require.ErrorIs(t, err, ErrInsufficient)

	qs, err := p.Questions(context.Background(), "Art", 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", qs[0].Text)
}
