package services

import (
	"strings"
	"unicode"

	"github.com/jonreiter/govader"
	"github.com/kendall-kelly/customer-analytics-api/utils"
)

// SentimentScore holds the normalized compound valence in [-1, 1] and the share of
// positive, neutral and negative weight in the text
type SentimentScore struct {
	Compound float64 `json:"compound"`
	Pos      float64 `json:"pos"`
	Neu      float64 `json:"neu"`
	Neg      float64 `json:"neg"`
}

// SentimentScorer scores free text
type SentimentScorer interface {
	Score(text string) SentimentScore
}

// FrenchVocabulary maps common French customer-feedback words to an English word
// carrying the same valence, booster or negation role in the VADER lexicon.
var FrenchVocabulary = map[string]string{
	// positive
	"bon": "good", "bonne": "good", "bien": "good", "super": "great", "merci": "thanks",
	"parfait": "perfect", "parfaite": "perfect", "excellente": "excellent", "génial": "awesome",
	"genial": "awesome", "satisfait": "satisfied", "satisfaite": "satisfied", "aime": "like",
	"adore": "love", "agréable": "nice", "bravo": "great",
	// negative
	"mauvais": "bad", "mauvaise": "bad", "nul": "awful", "nulle": "awful", "déçu": "disappointed",
	"déçue": "disappointed", "cassé": "bad", "cassée": "bad",
	"problème": "problem", "erreur": "error", "triste": "sad",
	"retard": "delay", "lent": "slow", "lente": "slow",
	// boosters and dampeners
	"très": "very", "vraiment": "really", "trop": "too", "extrêmement": "extremely",
	"peu": "slightly", "assez": "somewhat",
	// negation and contrast
	"pas": "not", "jamais": "never", "rien": "nothing", "sans": "without", "mais": "but",
}

// VaderScorer scores text with the VADER rule set: lexicon valence, negation, boosters,
// capitalized emphasis, contrastive conjunctions and exclamation marks. Words found in
// the vocabulary are rewritten to their English counterpart before scoring.
type VaderScorer struct {
	analyzer   *govader.SentimentIntensityAnalyzer
	vocabulary map[string]string
}

var sentimentScorerInstance SentimentScorer = NewVaderScorer(FrenchVocabulary)

// NewVaderScorer creates a scorer; vocabulary may be nil
func NewVaderScorer(vocabulary map[string]string) *VaderScorer {
	vocab := make(map[string]string, len(vocabulary))
	for k, v := range vocabulary {
		vocab[strings.ToLower(k)] = v
	}
	return &VaderScorer{
		analyzer:   govader.NewSentimentIntensityAnalyzer(),
		vocabulary: vocab,
	}
}

// GetSentimentScorer returns the process sentiment scorer
func GetSentimentScorer() SentimentScorer {
	return sentimentScorerInstance
}

// SetSentimentScorer replaces the sentiment scorer (primarily for testing)
func SetSentimentScorer(s SentimentScorer) {
	sentimentScorerInstance = s
}

// Score returns the sentiment of text. Empty or neutral text scores compound 0 and neu 1.
func (s *VaderScorer) Score(text string) SentimentScore {
	if strings.TrimSpace(text) == "" {
		return SentimentScore{Neu: 1}
	}
	p := s.analyzer.PolarityScores(s.translate(text))
	if p.Positive+p.Neutral+p.Negative == 0 {
		return SentimentScore{Neu: 1}
	}
	return SentimentScore{
		Compound: utils.Round2(p.Compound),
		Pos:      utils.Round2(p.Positive),
		Neu:      utils.Round2(p.Neutral),
		Neg:      utils.Round2(p.Negative),
	}
}

// translate rewrites vocabulary words in place. Surrounding punctuation is kept and an
// all-caps word stays all-caps so emphasis survives.
func (s *VaderScorer) translate(text string) string {
	if len(s.vocabulary) == 0 {
		return text
	}
	fields := strings.Fields(text)
	for i, f := range fields {
		core := strings.TrimFunc(f, unicode.IsPunct)
		if core == "" {
			continue
		}
		en, ok := s.vocabulary[strings.ToLower(core)]
		if !ok {
			continue
		}
		if core == strings.ToUpper(core) && core != strings.ToLower(core) {
			en = strings.ToUpper(en)
		}
		fields[i] = strings.Replace(f, core, en, 1)
	}
	return strings.Join(fields, " ")
}
