package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar"}, DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}))
}

func TestDedupeAndTrim_Empty(t *testing.T) {
	assert.Empty(t, DedupeAndTrim(nil))
	assert.Empty(t, DedupeAndTrim([]string{"", "   "}))
}

func TestDedupeAndTrimUpper(t *testing.T) {
	assert.Equal(t, []string{"US", "EU-DE"}, DedupeAndTrimUpper([]string{" us", "US", "eu-de"}))
}

func TestSortedCopy_DoesNotMutate(t *testing.T) {
	in := []string{"SG", "US", "EU-DE"}
	out := SortedCopy(in)
	assert.Equal(t, []string{"EU-DE", "SG", "US"}, out)
	assert.Equal(t, []string{"SG", "US", "EU-DE"}, in)
}
