// Package textnorm canonicalizes free text for matching.
//
// Estimate rows and knowledge-base descriptions come from mixed sources:
// full-width and half-width characters, stray punctuation, classifier
// suffixes ("... work", "... material") and interchangeable operation verbs.
// Normalize folds all of those to one canonical form so the scorer can
// compare strings directly. Normalize is idempotent.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// strippedPunctuation is removed entirely; these separators carry no signal
// and appear inconsistently across sources.
var strippedPunctuation = []string{"・", "/", "-"}

// classifierSuffixes are trailing classifiers that vary between estimate and
// KB phrasing ("gas pipe work" vs "gas pipe"). Stripped to a fixpoint so a
// doubled suffix cannot survive one pass and break idempotence.
var classifierSuffixes = []string{
	" works", " work", " costs", " cost", " materials", " material",
	"工事", "費", "材料", "材", "工",
}

// operationFolds maps interchangeable operation phrasings onto one canonical
// term. Values must not contain any key, or folding would not be idempotent.
var operationFolds = map[string]string{
	"hole drilling":    "hole repair",
	"wall penetration": "hole repair",
	"demolition":       "removal",
	"dismantling":      "removal",
	"mounting":         "installation",
	"穴あけ":              "穴補修",
	"壁穿孔":              "穴補修",
	"貫通":               "穴補修",
	"解体":               "撤去",
	"取り外し":             "撤去",
	"取外し":              "撤去",
	"設置":               "取付",
	"据付":               "取付",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize returns the canonical form of text: width variants folded,
// punctuation stripped, whitespace collapsed, lowercased, classifier
// suffixes removed and operation synonyms folded.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := width.Fold.String(text)
	for _, p := range strippedPunctuation {
		s = strings.ReplaceAll(s, p, "")
	}
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.ToLower(strings.TrimSpace(s))

	for {
		stripped := false
		for _, suffix := range classifierSuffixes {
			if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
				s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}

	for from, to := range operationFolds {
		s = strings.ReplaceAll(s, from, to)
	}

	return s
}

// sizePattern matches the first size token: digits followed by a short unit
// letter group (15A, 20mm, 5cm).
var sizePattern = regexp.MustCompile(`(?i)([0-9]+)\s*(mm|cm|a|m)`)

// ExtractSize extracts the first size token from text ("15A", "20MM").
// Returns "" when no size is present.
func ExtractSize(text string) string {
	if text == "" {
		return ""
	}
	m := sizePattern.FindStringSubmatch(width.Fold.String(text))
	if m == nil {
		return ""
	}
	return m[1] + strings.ToUpper(m[2])
}

// ExtractCategory maps text onto the first keyword it contains, in keyword
// list order. Returns "" when no keyword matches.
func ExtractCategory(text string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}
