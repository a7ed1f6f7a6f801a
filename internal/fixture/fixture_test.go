package fixture

import (
	"testing"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalogue(t *testing.T) {
	seed, err := Load()
	require.NoError(t, err)

	require.Len(t, seed.Exams, 3)
	first := seed.Exams[0]
	assert.Equal(t, "Grade 10 Mathematics", first.Title)
	assert.Equal(t, 20, first.DurationMinutes)
	assert.Equal(t, model.AuthorAI, first.CreatedBy)
	require.Len(t, first.Questions, 2)
	assert.Equal(t, []string{"18", "9", "21"}, first.Questions[0].Options)
	assert.True(t, first.Questions[1].AllowsAttachment)
	assert.Equal(t, 2025, first.CreatedAt.Year())

	assert.Len(t, seed.Questions, 2)
	assert.Len(t, seed.Topics, 3)
	assert.Len(t, seed.Resources, 2)
}

func TestParseRejectsInvalidCatalogues(t *testing.T) {
	cases := map[string]string{
		"no questions": `
exams:
  - id: 1
    title: Empty
    duration_minutes: 10
    questions: []
`,
		"mc without options": `
exams:
  - id: 1
    title: Broken
    duration_minutes: 10
    questions:
      - id: 1
        text: pick
        kind: multiple_choice
`,
		"duplicate bank id": `
questions:
  - id: 1
    text: a
    kind: free_response
  - id: 1
    text: b
    kind: free_response
`,
		"unknown key": `
exams:
  - id: 1
    titel: typo
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
