package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":        "hello-world",
		"  Go -- Web  ":      "go-web",
		"파이썬 공부":            "파이썬-공부",
		"Déjà Vu!":           "déjà-vu",
		"snake_case name":    "snake_case-name",
		"©":                  "c",
		"ﬁle":                "file",
		"Ｆｕｌｌｗｉｄｔｈ":          "fullwidth",
		"under_score_":       "under_score",
		"what? really, yes.": "what-really-yes",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("hello-world"))
	assert.True(t, IsValidSlug("파이썬-공부"))
	assert.True(t, IsValidSlug("no_category"))
	assert.False(t, IsValidSlug(""))
	assert.False(t, IsValidSlug("has space"))
	assert.False(t, IsValidSlug("a/b"))
	assert.False(t, IsValidSlug("q?x"))
}
