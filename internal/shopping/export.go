package shopping

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const (
	checkedMark   = "☑"
	uncheckedMark = "☐"
)

// FormatText renders the list as plain text for the clipboard.
func FormatText(l List) string {
	var b strings.Builder
	b.WriteString("SHOPPING LIST\n\n")
	for _, c := range l.Categories {
		for _, it := range c.Items {
			mark := uncheckedMark
			if it.Checked {
				mark = checkedMark
			}
			fmt.Fprintf(&b, "%s %s\n", mark, it.Text)
		}
	}
	return b.String()
}

// WriteCSV writes the list as Category,Item,Checked rows.
func WriteCSV(w io.Writer, l List) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Category", "Item", "Checked"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range l.Categories {
		for _, it := range c.Items {
			checked := "No"
			if it.Checked {
				checked = "Yes"
			}
			if err := cw.Write([]string{c.Name, it.Text, checked}); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// ExportFileName is the download name of a page's CSV export.
func ExportFileName(pageID string) string {
	return "shopping-list-" + pageID + ".csv"
}
