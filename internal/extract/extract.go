// Package extract pulls a usable job description out of arbitrary job posting HTML.
//
// The heuristic is lossy: paragraphs are filtered by length, boilerplate and
// job-related keywords, and a block-container scan is used when paragraphs
// do not carry enough text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/utils"
)

// ErrNotFound is returned when no description text survives extraction.
var ErrNotFound = errors.New("job description not found")

const (
	minFragmentLen  = 50
	longParagraph   = 100
	minTotalLen     = 200
	minContainerLen = 200
	maxLen          = 5000
)

var (
	boilerplate = []string{"apply now", "privacy policy", "equal opportunity", "cookie policy"}

	jobKeywords = []string{
		"responsibilities", "duties", "qualifications", "requirements",
		"skills", "experience", "role", "position", "overview", "description",
	}

	sentenceBreak = regexp.MustCompile(`[.!?]+`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Fetcher returns the raw HTML of a page.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// Extractor resolves job posting URLs into description text.
type Extractor struct {
	fetcher Fetcher
	logger  *zap.Logger
}

func New(fetcher Fetcher, log *zap.Logger) *Extractor {
	return &Extractor{fetcher: fetcher, logger: logger.OrNop(log)}
}

// ExtractURL fetches url and extracts its description. A failed fetch is
// reported as ErrNotFound wrapping the cause.
func (e *Extractor) ExtractURL(ctx context.Context, url string) (string, error) {
	e.logger.Info("scraping job description", logger.PageFields(url, "static")...)

	html, err := e.fetcher.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", ErrNotFound, url, err)
	}

	description, err := Extract(html)
	if err != nil {
		e.logger.Warn("no relevant description found", zap.String(logger.FieldURL, url))
		return "", err
	}

	e.logger.Debug("extracted description",
		zap.String(logger.FieldURL, url),
		zap.Int("length", utf8.RuneCountInString(description)),
		zap.String("preview", utils.TruncateForLog(description, 100)),
	)

	return description, nil
}

// Extract returns the cleaned description found in html or ErrNotFound.
func Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", ErrNotFound, err)
	}

	parts := paragraphs(doc)

	if len(parts) == 0 || totalLen(parts) < minTotalLen {
		parts = append(parts, containerSentences(doc)...)
	}

	if len(parts) == 0 {
		return "", ErrNotFound
	}

	description := strings.Join(parts, " ")
	description = strings.TrimSpace(whitespace.ReplaceAllString(description, " "))
	description = truncate(description, maxLen)

	if description == "" {
		return "", ErrNotFound
	}

	return description, nil
}

func paragraphs(doc *goquery.Document) []string {
	var parts []string

	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) < minFragmentLen {
			return
		}

		lower := strings.ToLower(text)
		if containsAny(lower, boilerplate) {
			return
		}

		if utf8.RuneCountInString(text) > longParagraph || containsAny(lower, jobKeywords) {
			parts = append(parts, text)
		}
	})

	return parts
}

// containerSentences takes the first div or section that looks like a job
// description and returns its sentences long enough to carry meaning.
func containerSentences(doc *goquery.Document) []string {
	var sentences []string

	doc.Find("div, section").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) <= minContainerLen || !containsAny(strings.ToLower(text), jobKeywords) {
			return true
		}

		for _, sentence := range sentenceBreak.Split(text, -1) {
			sentence = strings.TrimSpace(sentence)
			if utf8.RuneCountInString(sentence) > minFragmentLen {
				sentences = append(sentences, sentence)
			}
		}
		return false
	})

	return sentences
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func totalLen(parts []string) int {
	total := 0
	for _, part := range parts {
		total += utf8.RuneCountInString(part)
	}
	return total
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit]))
}
