package classification

import (
	"sort"
	"strings"
)

const (
	// MaxAlternatives caps the ranked alternatives exposed alongside the
	// primary candidate
	MaxAlternatives = 4

	// Confidence tier thresholds for presentation
	HighConfidence   = 0.7
	MediumConfidence = 0.4

	titleWeight = 2.0
	textWeight  = 1.0
	// sellers lead titles with the item itself ("Veste en jean ..."), so a
	// keyword opening the title outranks one buried later
	titleLeadBonus = 1.0

	// audience agreement scales the keyword score
	audienceMatchBoost    = 1.5
	audienceMismatchPenal = 0.3

	// a raw score of 5 keyword points maps to full confidence
	maxRawScore = 5.0
)

// Tier buckets a confidence value for display
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// TierFor buckets a confidence value at the 0.7 and 0.4 thresholds
func TierFor(confidence float64) Tier {
	switch {
	case confidence >= HighConfidence:
		return TierHigh
	case confidence >= MediumConfidence:
		return TierMedium
	default:
		return TierLow
	}
}

// Candidate is the classifier's primary pick
type Candidate struct {
	CategoryID int      `json:"category_id"`
	Label      string   `json:"label"`
	Path       string   `json:"path"`
	Confidence float64  `json:"confidence"`
	Audience   Audience `json:"audience,omitempty"`
}

// Alternative is a next-best leaf; only the label is exposed, never a score
type Alternative struct {
	CategoryID int    `json:"category_id"`
	Label      string `json:"label"`
}

// Result carries the primary candidate when one exists, or a human-readable
// reason when nothing in the taxonomy scored
type Result struct {
	Primary      *Candidate    `json:"primary,omitempty"`
	Tier         Tier          `json:"tier,omitempty"`
	Audience     Audience      `json:"audience,omitempty"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

// Matched reports whether the classifier found a primary candidate
func (r Result) Matched() bool {
	return r.Primary != nil
}

// Classifier scores free-text listings against the marketplace taxonomy.
// It does no I/O and is safe for concurrent use; all keyword tables are
// normalized once at construction.
type Classifier struct {
	categories []scoredCategory
	audience   map[Audience][]string
}

type scoredCategory struct {
	Category
	normKeywords []string
}

// NewClassifier builds a classifier over the built-in taxonomy
func NewClassifier() *Classifier {
	c := &Classifier{audience: make(map[Audience][]string, len(audienceKeywords))}
	for _, cat := range taxonomy {
		sc := scoredCategory{Category: cat}
		// normalization can collapse spelling variants into one form;
		// keep each form once so it scores once
		seen := make(map[string]bool, len(cat.Keywords))
		for _, kw := range cat.Keywords {
			n := Normalize(kw)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			sc.normKeywords = append(sc.normKeywords, n)
		}
		c.categories = append(c.categories, sc)
	}
	for aud, kws := range audienceKeywords {
		normed := make([]string, len(kws))
		for i, kw := range kws {
			normed[i] = Normalize(kw)
		}
		c.audience[aud] = normed
	}
	return c
}

// Classify maps a listing's title and description onto the taxonomy
func (c *Classifier) Classify(title, description string) Result {
	return c.ClassifyWithHint(title, description, "")
}

// ClassifyWithHint lets the caller pin the audience instead of inferring it
// from the text. An empty hint falls back to detection.
func (c *Classifier) ClassifyWithHint(title, description string, hint Audience) Result {
	normTitle := Normalize(title)
	normText := strings.TrimSpace(normTitle + " " + Normalize(description))

	audience := hint
	if audience == "" {
		audience = c.detectAudience(normText)
	}

	type rankedCategory struct {
		idx   int
		score float64
	}
	var ranked []rankedCategory
	for i, cat := range c.categories {
		score := 0.0
		for _, kw := range cat.normKeywords {
			if strings.Contains(normTitle, kw) {
				score += titleWeight
				if strings.HasPrefix(normTitle, kw) {
					score += titleLeadBonus
				}
			} else if strings.Contains(normText, kw) {
				score += textWeight
			}
		}
		if score > 0 && audience != "" && cat.Audience != "" {
			if cat.Audience == audience {
				score *= audienceMatchBoost
			} else if cat.Audience != AudienceMixed {
				score *= audienceMismatchPenal
			}
		}
		if score > 0 {
			ranked = append(ranked, rankedCategory{idx: i, score: score})
		}
	}

	if len(ranked) == 0 {
		return Result{
			Audience: audience,
			Reason:   "no taxonomy category matches this title and description",
		}
	}

	// deterministic order: score, then deeper leaves, then declaration order
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		da, db := c.categories[ranked[a].idx].Depth(), c.categories[ranked[b].idx].Depth()
		if da != db {
			return da > db
		}
		return ranked[a].idx < ranked[b].idx
	})

	best := c.categories[ranked[0].idx]
	confidence := ranked[0].score / maxRawScore
	if confidence > 1.0 {
		confidence = 1.0
	}

	result := Result{
		Primary: &Candidate{
			CategoryID: best.ID,
			Label:      best.Label,
			Path:       best.FullPath(),
			Confidence: confidence,
			Audience:   audience,
		},
		Tier:     TierFor(confidence),
		Audience: audience,
	}

	seen := map[int]bool{best.ID: true}
	for _, r := range ranked[1:] {
		cat := c.categories[r.idx]
		if seen[cat.ID] {
			continue
		}
		seen[cat.ID] = true
		result.Alternatives = append(result.Alternatives, Alternative{
			CategoryID: cat.ID,
			Label:      cat.Label,
		})
		if len(result.Alternatives) == MaxAlternatives {
			break
		}
	}
	return result
}

// DetectAudience infers the buyer segment from free text. An absent signal
// yields the empty value, never a default.
func (c *Classifier) DetectAudience(text string) Audience {
	return c.detectAudience(Normalize(text))
}

func (c *Classifier) detectAudience(normText string) Audience {
	scores := map[Audience]int{}
	for aud, kws := range c.audience {
		for _, kw := range kws {
			if containsWord(normText, kw) {
				scores[aud]++
			}
		}
	}
	best := Audience("")
	bestScore := 0
	// fixed iteration order keeps ties deterministic
	for _, aud := range []Audience{AudienceWomen, AudienceMen, AudienceKids} {
		if scores[aud] > bestScore {
			best = aud
			bestScore = scores[aud]
		}
	}
	return best
}
