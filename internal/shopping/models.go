package shopping

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Item is one shopping list entry. Its trimmed text is its identity.
type Item struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Category groups items under a heading.
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// List is the shopping list of one meal plan page.
type List struct {
	PageID     string     `json:"page_id"`
	Categories []Category `json:"categories"`
}

// PageID derives the page id from a URL path or file name: the last path
// segment without its .html extension.
func PageID(p string) string {
	return strings.Replace(path.Base(p), ".html", "", 1)
}

// ParseHTML extracts the shopping list of a meal plan page. Each h4 inside
// #shopping-list names a category whose items are the checkbox entries of the
// ul directly following it.
func ParseHTML(r io.Reader, pageID string) (List, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return List{}, fmt.Errorf("failed to parse meal plan page: %w", err)
	}

	list := List{PageID: pageID, Categories: []Category{}}
	section := doc.Find("#shopping-list").First()
	if section.Length() == 0 {
		return list, nil
	}

	section.Find("h4").Each(func(_ int, h *goquery.Selection) {
		ul := h.Next()
		if !ul.Is("ul") {
			return
		}
		cat := Category{Name: strings.TrimSpace(h.Text()), Items: []Item{}}
		ul.Find("li").Each(func(_ int, li *goquery.Selection) {
			cb := li.Find(`input[type="checkbox"]`)
			if cb.Length() == 0 {
				return
			}
			_, checked := cb.Attr("checked")
			cat.Items = append(cat.Items, Item{
				Text:    strings.TrimSpace(li.Text()),
				Checked: checked,
			})
		})
		list.Categories = append(list.Categories, cat)
	})
	return list, nil
}

// ApplyStates overrides the checked flag of every item with a saved state.
// Items without a saved state keep their current value.
func (l *List) ApplyStates(states map[string]bool) {
	for ci := range l.Categories {
		items := l.Categories[ci].Items
		for ii := range items {
			if checked, ok := states[items[ii].Text]; ok {
				items[ii].Checked = checked
			}
		}
	}
}

// TotalCount returns the number of items across categories.
func (l List) TotalCount() int {
	n := 0
	for _, c := range l.Categories {
		n += len(c.Items)
	}
	return n
}

// CheckedCount returns the number of checked items across categories.
func (l List) CheckedCount() int {
	n := 0
	for _, c := range l.Categories {
		for _, it := range c.Items {
			if it.Checked {
				n++
			}
		}
	}
	return n
}

// ItemTexts returns every item text in list order.
func (l List) ItemTexts() []string {
	var texts []string
	for _, c := range l.Categories {
		for _, it := range c.Items {
			texts = append(texts, it.Text)
		}
	}
	return texts
}
