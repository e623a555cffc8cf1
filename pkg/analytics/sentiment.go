// Package analytics scores post and comment text with a small lexicon
// sentiment model and extracts keyword frequencies.
package analytics

import (
	"regexp"
	"sort"
	"strings"
)

// Sentiment labels
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

var positiveWords = wordSet(
	"good", "great", "awesome", "excellent", "amazing", "love", "best", "perfect",
	"nice", "wonderful", "fantastic", "brilliant", "superb", "outstanding", "happy",
	"beautiful", "helpful", "thanks", "thank", "appreciate", "recommend", "interesting",
	"useful", "cool", "fun", "enjoy", "like", "loved", "impressive", "incredible",
)

var negativeWords = wordSet(
	"bad", "terrible", "awful", "horrible", "hate", "worst", "poor", "disappointing",
	"useless", "waste", "annoying", "boring", "ugly", "stupid", "dumb", "fail",
	"wrong", "broken", "sad", "angry", "frustrated", "scam", "fake", "trash",
	"pathetic", "ridiculous", "disgusting", "overpriced", "avoid", "never",
)

var intensifiers = wordSet("very", "really", "extremely", "absolutely", "totally", "completely")

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

var tokenPattern = regexp.MustCompile(`[a-z]+`)

// Score holds one text's sentiment result.
type Score struct {
	Value float64
	Label string
}

// AnalyzeSentiment scores a text in [-1, 1]. An intensifier boosts the
// following sentiment word by half. Texts with no sentiment words are
// neutral.
func AnalyzeSentiment(text string) Score {
	words := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return Score{Label: LabelNeutral}
	}

	var positive, negative float64
	intensified := false
	for _, word := range words {
		multiplier := 1.0
		if intensified {
			multiplier = 1.5
		}
		switch {
		case positiveWords[word]:
			positive += multiplier
		case negativeWords[word]:
			negative += multiplier
		}
		intensified = intensifiers[word]
	}

	if positive+negative == 0 {
		return Score{Label: LabelNeutral}
	}

	score := (positive - negative) / float64(len(words)) * 5
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	label := LabelNeutral
	if score > 0.1 {
		label = LabelPositive
	} else if score < -0.1 {
		label = LabelNegative
	}
	return Score{Value: score, Label: label}
}

// SentimentSummary counts labels across a batch of texts.
type SentimentSummary struct {
	Positive int
	Negative int
	Neutral  int
	Average  float64
}

// AnalyzeBatch scores every text and tallies the labels.
func AnalyzeBatch(texts []string) SentimentSummary {
	var summary SentimentSummary
	var total float64
	for _, text := range texts {
		score := AnalyzeSentiment(text)
		total += score.Value
		switch score.Label {
		case LabelPositive:
			summary.Positive++
		case LabelNegative:
			summary.Negative++
		default:
			summary.Neutral++
		}
	}
	if len(texts) > 0 {
		summary.Average = total / float64(len(texts))
	}
	return summary
}

// Keyword is one extracted term with its occurrence count.
type Keyword struct {
	Word  string
	Count int
}

var keywordPattern = regexp.MustCompile(`[a-z]{3,}`)

var stopwords = wordSet(
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "must", "shall", "can", "to", "of", "in",
	"for", "on", "with", "at", "by", "from", "as", "into", "through",
	"during", "before", "after", "above", "below", "between", "under",
	"again", "further", "then", "once", "here", "there", "when", "where",
	"why", "how", "all", "each", "few", "more", "most", "other", "some",
	"such", "no", "nor", "not", "only", "own", "same", "so", "than",
	"too", "very", "just", "and", "but", "if", "or", "because", "until",
	"while", "this", "that", "these", "those", "i", "me", "my", "myself",
	"we", "our", "you", "your", "he", "she", "it", "they", "them", "what",
	"which", "who", "whom", "its", "his", "her", "their", "up",
	"out", "about", "any", "also", "get", "got", "like", "one", "two",
	"know", "even", "new", "want", "way", "people", "time", "year", "think",
	"amp", "http", "https", "www", "com", "reddit", "deleted", "removed",
)

// ExtractKeywords returns the topN most frequent non-stopword terms of
// three letters or more, ties broken alphabetically.
func ExtractKeywords(texts []string, topN int) []Keyword {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, word := range keywordPattern.FindAllString(strings.ToLower(text), -1) {
			if stopwords[word] {
				continue
			}
			counts[word]++
		}
	}

	keywords := make([]Keyword, 0, len(counts))
	for word, count := range counts {
		keywords = append(keywords, Keyword{Word: word, Count: count})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Word < keywords[j].Word
	})

	if topN > 0 && len(keywords) > topN {
		keywords = keywords[:topN]
	}
	return keywords
}
