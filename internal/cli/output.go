package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/inventory/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

// Table columns.
const (
	colID = iota
	colName
	colPrice
	colQuantity
)

// writeResult reports a completed write in json and yaml output.
type writeResult struct {
	Status    string  `json:"status" yaml:"status"`
	Operation string  `json:"operation" yaml:"operation"`
	ID        int64   `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string  `json:"name" yaml:"name"`
	Price     float64 `json:"price" yaml:"price"`
	Quantity  int     `json:"quantity" yaml:"quantity"`
}

// printer renders command results in the selected output format.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) printer {
	return printer{format: format, w: w}
}

// Items prints an item list.
func (p printer) Items(items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}

	switch p.format {
	case FormatJSON:
		return p.json(items)
	case FormatYAML:
		return p.yaml(items)
	default:
		_, err := fmt.Fprintln(p.w, itemTable(items))
		return err
	}
}

// Item prints one item.
func (p printer) Item(item model.Item) error {
	switch p.format {
	case FormatJSON:
		return p.json(item)
	case FormatYAML:
		return p.yaml(item)
	default:
		_, err := fmt.Fprintln(p.w, itemPanel(item))
		return err
	}
}

// Done prints the outcome of a write.
func (p printer) Done(operation string, item model.Item) error {
	result := writeResult{
		Status:    "ok",
		Operation: operation,
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price,
		Quantity:  item.Quantity,
	}

	switch p.format {
	case FormatJSON:
		return p.json(result)
	case FormatYAML:
		return p.yaml(result)
	default:
		_, err := fmt.Fprintln(p.w, successStyle.Render("✔ "+pastTense(operation)+" "+item.Name))
		return err
	}
}

func (p printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p printer) yaml(v any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func itemTable(items []model.Item) string {
	if len(items) == 0 {
		return mutedStyle.Render("no items")
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			strconv.FormatInt(it.ID, 10),
			it.Name,
			it.FormattedPrice(),
			strconv.Itoa(it.Quantity),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "NAME", "PRICE", "QTY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == colID, col == colPrice, col == colQuantity:
				return numberStyle
			default:
				return cellStyle
			}
		})

	return t.Render()
}

func itemPanel(item model.Item) string {
	stock := successStyle.Render(strconv.Itoa(item.Quantity))
	if !item.InStock() {
		stock = warnStyle.Render("out of stock")
	}

	lines := []string{
		titleStyle.Render(item.Name),
		mutedStyle.Render("ID       ") + strconv.FormatInt(item.ID, 10),
		mutedStyle.Render("Price    ") + item.FormattedPrice(),
		mutedStyle.Render("Quantity ") + stock,
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func pastTense(operation string) string {
	switch operation {
	case "add":
		return "added"
	case "sell":
		return "sold one"
	default:
		return operation + "d"
	}
}
