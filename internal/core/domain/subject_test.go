package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{name: "simple name", subject: "Virat Kohli", want: "virat_kohli"},
		{name: "extra whitespace", subject: "  Tom  Hanks ", want: "tom__hanks"},
		{name: "punctuation stripped", subject: "Robert Downey, Jr.", want: "robert_downey_jr"},
		{name: "hyphenated", subject: "Day-Lewis", want: "day_lewis"},
		{name: "already lower", subject: "zendaya", want: "zendaya"},
		{name: "empty", subject: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.subject))
		})
	}
}

func TestSourceCounts(t *testing.T) {
	a := SourceCounts{Video: 2, Audio: 1}
	b := SourceCounts{Video: 1, Article: 4}

	sum := a.Add(b)
	assert.Equal(t, SourceCounts{Video: 3, Audio: 1, Article: 4}, sum)
	assert.Equal(t, 8, sum.Total())
}
