package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	c := DefaultCategorizer()

	tests := []struct {
		label string
		want  string
	}{
		{"Analyseren van gegevens", "DENKEN"},
		{"Machines bedienen", "DOEN"},
		{"Communiceren met klanten", "VERBINDEN"},
		{"Coördineren van werkzaamheden", "STUREN"},
		{"Coordineren van werkzaamheden", "STUREN"},
		{"Creëren van concepten", "CREEREN"},
		{"Nauwkeurig werken", "ZIJN"},
		{"Lassen", "OVERIG"},
		{"", "OVERIG"},
		// first matching category wins
		{"Plannen en organiseren", "DENKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.label))
		})
	}
}

func TestCategorizer_Names(t *testing.T) {
	names := DefaultCategorizer().Names()
	require.Len(t, names, 7)
	assert.Equal(t, "DENKEN", names[0])
	assert.Equal(t, "OVERIG", names[6])
}

func TestParseCategories_Invalid(t *testing.T) {
	_, err := ParseCategories([]byte("categories: ["))
	assert.Error(t, err)

	_, err = ParseCategories([]byte("categories: []"))
	assert.Error(t, err)

	_, err = ParseCategories([]byte("categories:\n  - keywords: [a]\n"))
	assert.Error(t, err)
}

func TestParseCategories_DefaultFallback(t *testing.T) {
	c, err := ParseCategories([]byte("categories:\n  - name: A\n    keywords: [x]\n"))
	require.NoError(t, err)
	assert.Equal(t, "OVERIG", c.Categorize("y"))
	assert.Equal(t, "A", c.Categorize("xyz"))
}
