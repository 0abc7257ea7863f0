package models

import (
	"fmt"
	"strings"
)

// Sentiment is the closed classification of a comment.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
)

// ParseSentiment accepts the two sentiment names case-insensitively.
func ParseSentiment(s string) (Sentiment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return SentimentPositive, nil
	case "negative":
		return SentimentNegative, nil
	}
	return "", fmt.Errorf("sentiment must be %s or %s", SentimentPositive, SentimentNegative)
}

// Valid reports whether s is one of the two sentiments.
func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNegative
}
