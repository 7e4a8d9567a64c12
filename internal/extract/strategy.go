package extract

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	blankRun       = regexp.MustCompile(`[ \t]+`)
	thousandsComma = strings.NewReplacer(",", "")
)

// fieldStrategy is one named attempt at capturing a field; group 1 is the value.
type fieldStrategy struct {
	name    string
	pattern *regexp.Regexp
}

// firstMatch runs strategies in order and returns the first capture with the
// name of the strategy that produced it.
func firstMatch(strategies []fieldStrategy, text string) (value, strategy string, ok bool) {
	for _, s := range strategies {
		m := s.pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		return m[1], s.name, true
	}
	return "", "", false
}

// amountStrategy captures an amount. When currency is empty, group 1 is the
// currency code and group 2 the amount; otherwise group 1 is the amount.
type amountStrategy struct {
	name     string
	pattern  *regexp.Regexp
	currency string
}

func (s amountStrategy) match(text string) (amount, currency string, ok bool) {
	m := s.pattern.FindStringSubmatch(text)
	if s.currency == "" {
		if len(m) < 3 {
			return "", "", false
		}
		return cleanAmount(m[2]), m[1], true
	}
	if len(m) < 2 {
		return "", "", false
	}
	return cleanAmount(m[1]), s.currency, true
}

// vendorStrategy recognizes one vendor template. The company pattern gates the
// item pattern unless optionalCompany is set, in which case the item is
// attempted whether or not the company matched.
type vendorStrategy struct {
	name            string
	company         *regexp.Regexp
	item            *regexp.Regexp
	cleanItem       func(string) string
	optionalCompany bool
}

func (s vendorStrategy) match(text string) (company, item *string, ok bool) {
	if m := s.company.FindStringSubmatch(text); len(m) >= 2 {
		company = stringPtr(collapseWhitespace(m[1]))
	} else if !s.optionalCompany {
		return nil, nil, false
	}

	if m := s.item.FindStringSubmatch(text); len(m) >= 2 {
		raw := strings.TrimSpace(m[1])
		if s.cleanItem != nil {
			raw = s.cleanItem(raw)
		}
		if cleaned := collapseWhitespace(raw); cleaned != "" {
			item = stringPtr(cleaned)
		}
	}

	return company, item, company != nil || item != nil
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func cleanAmount(s string) string {
	return thousandsComma.Replace(s)
}
