package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{name: "short", input: "Main Street", limit: 60, expected: "Main Street"},
		{name: "exact", input: "abcde", limit: 5, expected: "abcde"},
		{name: "long", input: "abcdefgh", limit: 5, expected: "abcde..."},
		{name: "multibyte", input: "ಬೆಂಗಳೂರು ನಗರ", limit: 3, expected: "ಬೆಂ..."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Truncate(tc.input, tc.limit))
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "town", FirstNonEmpty("", "town", "village"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
}

func TestFormatCoordinates(t *testing.T) {
	assert.Equal(t, "Lat: 12.971600, Lng: 77.594600", FormatCoordinates(12.9716, 77.5946))
	assert.Equal(t, "Lat: -0.000001, Lng: 100.123457", FormatCoordinates(-0.000001, 100.1234567))
}
