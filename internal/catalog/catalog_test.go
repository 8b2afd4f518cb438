package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlans = `
plans:
  - file: week1-meals.html
    title: Week 1 Meals
    subtitle: High protein
    category: meals
    proteins: [chicken, beef]
    cooking_steps:
      - title: Prep Carbs
        description: Start the rice.
      - title: Mix Sauces
        description: Make all 4 sauces.
      - title: Cool & Store
        description: Let hot meals cool.
    nutrition:
      protein: 45
      calories: 550
      carbs: 50
      fats: 15
  - file: week1-breakfast.html
    title: Week 1 Breakfasts
    category: breakfast
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlans), 0644))

	cat, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cat.Plans(), 2)

	t.Run("Lookup-ExactTitle", func(t *testing.T) {
		p, ok := cat.Lookup("Week 1 Meals")
		require.True(t, ok)
		require.NotNil(t, p.Nutrition)
		assert.Equal(t, 45.0, p.Nutrition.Protein)

		_, ok = cat.Lookup("week 1 meals")
		assert.False(t, ok)
	})

	t.Run("ByID", func(t *testing.T) {
		p, ok := cat.ByID("week1-meals.html")
		require.True(t, ok)
		assert.Equal(t, "Week 1 Meals", p.Title)
		assert.Equal(t, "week1-meals", p.ID())
	})

	t.Run("TotalSteps", func(t *testing.T) {
		assert.Equal(t, 3, cat.TotalSteps("week1-meals"))
		assert.Equal(t, 0, cat.TotalSteps("week1-breakfast"))
		assert.Equal(t, 0, cat.TotalSteps("unknown"))
	})

	t.Run("NoNutrition", func(t *testing.T) {
		p, ok := cat.Lookup("Week 1 Breakfasts")
		require.True(t, ok)
		assert.Nil(t, p.Nutrition)
	})
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("plans:\n  - file: x.html\n"))
	assert.EqualError(t, err, "plan 0: title is required")

	_, err = Parse([]byte("plans: [:"))
	assert.Error(t, err)
}
