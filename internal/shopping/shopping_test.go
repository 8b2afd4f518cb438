package shopping

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"meal-prep-companion/internal/database"
	"meal-prep-companion/internal/kvstore"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const samplePage = `<html><body>
<section id="shopping-list">
  <h2>Shopping List</h2>
  <h4> Proteins </h4>
  <ul>
    <li><input type="checkbox"> Chicken breast, 2 kg</li>
    <li><input type="checkbox" checked> Eggs (12)</li>
    <li>Note: buy fresh</li>
  </ul>
  <h4>Produce</h4>
  <ul>
    <li><input type="checkbox"> Broccoli</li>
  </ul>
  <h4>Orphan heading</h4>
  <p>No list here.</p>
</section>
</body></html>`

func newTestChecklist(t *testing.T, opts ...kvstore.Option) (*ChecklistStore, *kvstore.SQLStore) {
	t.Helper()
	db, err := database.NewDB(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kv := kvstore.NewSQLStore(db.SQL, opts...)
	return NewChecklistStore(kv, zap.NewNop()), kv
}

func TestParseHTML(t *testing.T) {
	list, err := ParseHTML(strings.NewReader(samplePage), "week1-meals")
	require.NoError(t, err)

	want := List{
		PageID: "week1-meals",
		Categories: []Category{
			{Name: "Proteins", Items: []Item{
				{Text: "Chicken breast, 2 kg"},
				{Text: "Eggs (12)", Checked: true},
			}},
			{Name: "Produce", Items: []Item{{Text: "Broccoli"}}},
		},
	}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("ParseHTML mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, list.TotalCount())
	assert.Equal(t, 1, list.CheckedCount())

	t.Run("NoShoppingSection", func(t *testing.T) {
		list, err := ParseHTML(strings.NewReader("<html><body><h4>x</h4><ul><li>y</li></ul></body></html>"), "p")
		require.NoError(t, err)
		assert.Empty(t, list.Categories)
		assert.Equal(t, 0, list.TotalCount())
	})
}

func TestPageID(t *testing.T) {
	assert.Equal(t, "week1-meals", PageID("/meals/week1-meals.html"))
	assert.Equal(t, "week1-meals", PageID("week1-meals.html"))
	assert.Equal(t, "index", PageID("index"))
}

func TestChecklistStore(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestChecklist(t)

	t.Run("LoadStates-Empty", func(t *testing.T) {
		assert.Empty(t, store.LoadStates(ctx, "week1-meals"))
	})

	t.Run("SaveState", func(t *testing.T) {
		require.NoError(t, store.SaveState(ctx, "week1-meals", "Broccoli", true))
		require.NoError(t, store.SaveState(ctx, "week1-meals", "Eggs (12)", false))
		require.NoError(t, store.SaveState(ctx, "week2-meals", "Broccoli", true))

		assert.Equal(t, map[string]bool{"Broccoli": true, "Eggs (12)": false}, store.LoadStates(ctx, "week1-meals"))
		assert.Equal(t, map[string]bool{"Broccoli": true}, store.LoadStates(ctx, "week2-meals"))
	})

	t.Run("ApplyStates", func(t *testing.T) {
		list, err := ParseHTML(strings.NewReader(samplePage), "week1-meals")
		require.NoError(t, err)
		list.ApplyStates(store.LoadStates(ctx, "week1-meals"))

		assert.True(t, list.Categories[1].Items[0].Checked, "Broccoli restored as checked")
		assert.False(t, list.Categories[0].Items[1].Checked, "saved false overrides page default")
		assert.False(t, list.Categories[0].Items[0].Checked, "unsaved item keeps its value")
	})

	t.Run("ClearAll", func(t *testing.T) {
		require.NoError(t, store.ClearAll(ctx, "week1-meals", "Chicken breast, 2 kg"))
		assert.Equal(t, map[string]bool{
			"Broccoli":             false,
			"Eggs (12)":            false,
			"Chicken breast, 2 kg": false,
		}, store.LoadStates(ctx, "week1-meals"))
		assert.Equal(t, map[string]bool{"Broccoli": true}, store.LoadStates(ctx, "week2-meals"))
	})

	t.Run("CorruptedRecord", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, kvstore.ShoppingCheckboxesKey, []byte("[oops")))
		assert.Empty(t, store.LoadStates(ctx, "week1-meals"))

		require.NoError(t, store.SaveState(ctx, "week1-meals", "Broccoli", true))
		assert.Equal(t, map[string]bool{"Broccoli": true}, store.LoadStates(ctx, "week1-meals"))
	})
}

func TestChecklistStore_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestChecklist(t, kvstore.WithQuota(8))

	err := store.SaveState(ctx, "week1-meals", "Broccoli", true)
	require.Error(t, err)
	assert.True(t, kvstore.IsQuotaExceeded(err))
	assert.Empty(t, store.LoadStates(ctx, "week1-meals"))
}

func TestExport(t *testing.T) {
	list := List{
		PageID: "week1-meals",
		Categories: []Category{
			{Name: "Proteins", Items: []Item{{Text: "Chicken breast, 2 kg", Checked: true}, {Text: "Eggs"}}},
			{Name: "Produce", Items: []Item{{Text: "Broccoli"}}},
		},
	}

	t.Run("FormatText", func(t *testing.T) {
		want := "SHOPPING LIST\n\n☑ Chicken breast, 2 kg\n☐ Eggs\n☐ Broccoli\n"
		assert.Equal(t, want, FormatText(list))
	})

	t.Run("WriteCSV", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, list))
		want := "Category,Item,Checked\n" +
			"Proteins,\"Chicken breast, 2 kg\",Yes\n" +
			"Proteins,Eggs,No\n" +
			"Produce,Broccoli,No\n"
		assert.Equal(t, want, buf.String())
	})

	t.Run("ExportFileName", func(t *testing.T) {
		assert.Equal(t, "shopping-list-week1-meals.csv", ExportFileName("week1-meals"))
	})

	t.Run("EmptyList", func(t *testing.T) {
		assert.Equal(t, "SHOPPING LIST\n\n", FormatText(List{}))
	})
}
