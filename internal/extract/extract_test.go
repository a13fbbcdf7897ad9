package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sized(prefix string, n int) string {
	return prefix + strings.Repeat("a", n-len(prefix))
}

func TestExtractKeepsLongKeywordParagraphOnly(t *testing.T) {
	long := sized("Key responsibilities: ", 300)
	html := "<html><body><p>" + long + "</p><p>twenty chars exactly</p></body></html>"

	got, err := Extract(html)

	require.NoError(t, err)
	assert.Equal(t, long, got)
}

func TestExtractParagraphFilters(t *testing.T) {
	keywordShort := "We value communication skills in every team member."
	plainShort := "Our office has a great view of the river and the city."
	boiler := sized("Apply now to join a team that values you. ", 250)
	long := sized("We are seeking an Administrative Assistant to manage clerical work ", 210)

	html := "<body>" +
		"<p>" + keywordShort + "</p>" +
		"<p>" + plainShort + "</p>" +
		"<p>" + boiler + "</p>" +
		"<p>" + long + "</p>" +
		"</body>"

	got, err := Extract(html)

	require.NoError(t, err)
	assert.Equal(t, keywordShort+" "+long, got)
	assert.NotContains(t, got, "river")
	assert.NotContains(t, strings.ToLower(got), "apply now")
}

func TestExtractFallsBackToContainer(t *testing.T) {
	first := "The role involves coordinating calendars for the executive team"
	second := "You will prepare correspondence and maintain accurate filing systems"
	third := "Experience with office software and strong organisational skills is required"
	html := "<body><div>" + first + ". Short one! " + second + "? " + third + ".</div></body>"

	got, err := Extract(html)

	require.NoError(t, err)
	assert.Equal(t, first+" "+second+" "+third, got)
}

func TestExtractFallbackAppendsToShortParagraphs(t *testing.T) {
	para := sized("Position overview ", 120)
	sentence := "Responsibilities include managing routine clerical tasks and scheduling"
	container := "<section>" + sentence + ". " + sentence + " for the wider office team and our visiting international clients. Also more text.</section>"
	html := "<body><p>" + para + "</p>" + container + "</body>"

	got, err := Extract(html)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, para+" "+sentence), got)
	assert.Contains(t, got, "for the wider office team")
	assert.NotContains(t, got, "Also more text")
}

func TestExtractCollapsesWhitespaceAndTruncates(t *testing.T) {
	words := strings.Repeat("responsibilities   include\n\tmanaging ", 400)
	html := "<p>" + words + "</p>"

	got, err := Extract(html)

	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), maxLen)
	assert.NotContains(t, got, "  ")
	assert.NotContains(t, got, "\n")
}

func TestExtractNotFound(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"short only":  "<p>Hello</p><div>tiny</div>",
		"no keywords": "<div>" + strings.Repeat("lorem ipsum dolor sit amet ", 20) + "</div>",
	}

	for name, html := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Extract(html)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

type fakeFetcher struct {
	html string
	err  error
}

func (f fakeFetcher) Get(context.Context, string) (string, error) {
	return f.html, f.err
}

func TestExtractURL(t *testing.T) {
	long := sized("Duties: ", 150)
	long2 := sized("Qualifications: ", 150)
	e := New(fakeFetcher{html: "<p>" + long + "</p><p>" + long2 + "</p>"}, zap.NewNop())

	got, err := e.ExtractURL(context.Background(), "https://jobs.example.com/1")

	require.NoError(t, err)
	assert.Equal(t, long+" "+long2, got)
}

func TestExtractURLFetchFailureIsNotFound(t *testing.T) {
	e := New(fakeFetcher{err: errors.New("bad status: 404 Not Found")}, nil)

	_, err := e.ExtractURL(context.Background(), "https://jobs.example.com/missing")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "404")
}
