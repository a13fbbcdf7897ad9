package duration

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	lengthHeading = "Assessment length"
	headingOrPara = "h1, h2, h3, h4, h5, h6, p"
)

var completionTime = regexp.MustCompile(`(?i)Approximate Completion Time in minutes\s*=\s*(\d+)`)

// Parse finds the "Assessment length" heading in html and reads the minutes
// from the first paragraph that follows it in document order.
func Parse(html string) (int, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, false
	}

	var (
		headingSeen bool
		text        string
		found       bool
	)
	doc.Find(headingOrPara).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !headingSeen {
			if goquery.NodeName(s) != "p" && strings.TrimSpace(s.Text()) == lengthHeading {
				headingSeen = true
			}
			return true
		}
		if goquery.NodeName(s) == "p" {
			text = s.Text()
			found = true
			return false
		}
		return true
	})
	if !found {
		return 0, false
	}

	m := completionTime.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return minutes, true
}
