package main

import (
	"fmt"
	"os"

	"meal-prep-companion/internal/shopping"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// clipboardWriteAll is swapped out in tests.
var clipboardWriteAll = clipboard.WriteAll

var (
	shoppingUncheck bool
	shoppingFrom    string
	shoppingCSV     string
	shoppingCopy    bool
)

// shoppingCmd manages shopping list checkboxes
var shoppingCmd = &cobra.Command{
	Use:   "shopping",
	Short: "Check off, clear and export shopping lists",
}

var shoppingCheckCmd = &cobra.Command{
	Use:   "check <page> <item>",
	Short: "Mark a shopping list item as checked",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageID := shopping.PageID(args[0])
		if err := application.Checklist.SaveState(cmd.Context(), pageID, args[1], !shoppingUncheck); err != nil {
			return err
		}
		state := "checked"
		if shoppingUncheck {
			state = "unchecked"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", state, args[1])
		return nil
	},
}

var shoppingClearCmd = &cobra.Command{
	Use:   "clear <page>",
	Short: "Uncheck every item of a page",
	Long: `Uncheck every saved item of a page. With --from, every item listed on the
meal plan page is stored as unchecked too.`,
	Args: cobra.ExactArgs(1),
	RunE: runShoppingClear,
}

var shoppingExportCmd = &cobra.Command{
	Use:   "export <page.html>",
	Short: "Export a page's shopping list with its saved checkbox states",
	Example: `  mealprep shopping export plans/week1-meals.html
  mealprep shopping export plans/week1-meals.html --csv shopping-list-week1-meals.csv
  mealprep shopping export plans/week1-meals.html --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runShoppingExport,
}

func init() {
	shoppingCheckCmd.Flags().BoolVar(&shoppingUncheck, "uncheck", false, "mark the item as unchecked instead")
	shoppingClearCmd.Flags().StringVar(&shoppingFrom, "from", "", "meal plan page whose items are all unchecked")
	shoppingExportCmd.Flags().StringVar(&shoppingCSV, "csv", "", "write CSV to this file (\"-\" for stdout)")
	shoppingExportCmd.Flags().BoolVar(&shoppingCopy, "copy", false, "copy the plain-text list to the clipboard")

	shoppingCmd.AddCommand(shoppingCheckCmd)
	shoppingCmd.AddCommand(shoppingClearCmd)
	shoppingCmd.AddCommand(shoppingExportCmd)
}

func runShoppingClear(cmd *cobra.Command, args []string) error {
	pageID := shopping.PageID(args[0])

	var items []string
	if shoppingFrom != "" {
		list, err := readShoppingList(shoppingFrom)
		if err != nil {
			return err
		}
		items = list.ItemTexts()
	}
	if err := application.Checklist.ClearAll(cmd.Context(), pageID, items...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared shopping list %s\n", pageID)
	return nil
}

func runShoppingExport(cmd *cobra.Command, args []string) error {
	list, err := readShoppingList(args[0])
	if err != nil {
		return err
	}
	list.ApplyStates(application.Checklist.LoadStates(cmd.Context(), list.PageID))

	out := cmd.OutOrStdout()
	switch shoppingCSV {
	case "":
		fmt.Fprint(out, shopping.FormatText(list))
	case "-":
		if err := shopping.WriteCSV(out, list); err != nil {
			return err
		}
	default:
		if err := writeCSVFile(shoppingCSV, list); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s (%d/%d checked)\n", shoppingCSV, list.CheckedCount(), list.TotalCount())
	}

	if shoppingCopy {
		if err := clipboardWriteAll(shopping.FormatText(list)); err != nil {
			logger.Warn("Failed to copy shopping list to clipboard", zap.Error(err))
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(out, "Shopping list copied to clipboard!")
	}
	return nil
}

func readShoppingList(path string) (shopping.List, error) {
	f, err := os.Open(path)
	if err != nil {
		return shopping.List{}, fmt.Errorf("failed to open meal plan page: %w", err)
	}
	defer f.Close()
	return shopping.ParseHTML(f, shopping.PageID(path))
}

func writeCSVFile(path string, list shopping.List) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := shopping.WriteCSV(f, list); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
