// Package tui is the interactive terminal front end: a live item list, an
// item detail screen and an add/edit form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// Inventory is the controller surface the TUI drives.
type Inventory interface {
	IsEntryValid(name, price, count string) bool
	AddNewItem(name, price, count string) error
	UpdateItem(id int64, name, price, count string) error
	RetrieveItem(ctx context.Context, id int64) <-chan *model.Item
	AllItems(ctx context.Context) <-chan []model.Item
	SellItem(item model.Item)
	IsStockAvailable(item model.Item) bool
	DeleteItem(item model.Item)
}

type screen int

const (
	screenList screen = iota
	screenDetail
	screenForm
)

// itemsMsg carries a new snapshot of the item list.
type itemsMsg []model.Item

// detailMsg carries a new snapshot of the item on the detail screen. gen
// tells snapshots of an earlier detail screen apart.
type detailMsg struct {
	gen  int
	item *model.Item
}

// closedMsg means the store went away.
type closedMsg struct{}

var (
	keyAdd    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	keyOpen   = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open"))
	keySell   = key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sell"))
	keyDelete = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	keyEdit   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	keyBack   = key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back"))
	keyQuit   = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	keyForce  = key.NewBinding(key.WithKeys("ctrl+c"))
	keyNext   = key.NewBinding(key.WithKeys("tab", "down"))
	keyPrev   = key.NewBinding(key.WithKeys("shift+tab", "up"))
	keySave   = key.NewBinding(key.WithKeys("enter"))
)

// Model is the Bubble Tea model of the inventory TUI.
type Model struct {
	ctx context.Context
	inv Inventory

	screen screen
	list   list.Model
	items  <-chan []model.Item

	detail       *model.Item
	detailGen    int
	detailCh     <-chan *model.Item
	detailCancel context.CancelFunc

	form   form
	status string
}

// New subscribes to the live item list. The subscription ends with ctx.
func New(ctx context.Context, inv Inventory) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Inventory"
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{keyOpen, keyAdd} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{keyOpen, keyAdd} }

	return Model{
		ctx:    ctx,
		inv:    inv,
		screen: screenList,
		list:   l,
		items:  inv.AllItems(ctx),
		form:   newForm(),
	}
}

// Run shows the TUI until the user quits or ctx is done.
func Run(ctx context.Context, inv Inventory, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(New(ctx, inv), opts...).Run()
	if m, ok := final.(Model); ok {
		m.closeDetail()
	}
	if err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return waitForItems(m.items)
}

func waitForItems(ch <-chan []model.Item) tea.Cmd {
	return func() tea.Msg {
		items, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return itemsMsg(items)
	}
}

func waitForDetail(gen int, ch <-chan *model.Item) tea.Cmd {
	return func() tea.Msg {
		item, ok := <-ch
		if !ok {
			return nil
		}
		return detailMsg{gen: gen, item: item}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case itemsMsg:
		entries := make([]list.Item, 0, len(msg))
		for _, it := range msg {
			entries = append(entries, listItem{item: it})
		}
		cmd := m.list.SetItems(entries)
		m.list.Title = fmt.Sprintf("Inventory  %s %d", accentStyle.Render("items"), len(msg))
		return m, tea.Batch(cmd, waitForItems(m.items))

	case detailMsg:
		if msg.gen != m.detailGen || m.detailCh == nil {
			return m, nil
		}
		if msg.item == nil {
			// Deleted while we were looking at it.
			if m.screen != screenList {
				m.status = "item no longer exists"
			}
			m.closeDetail()
			m.screen = screenList
			return m, nil
		}
		m.detail = msg.item
		return m, waitForDetail(m.detailGen, m.detailCh)

	case closedMsg:
		m.closeDetail()
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, keyForce) {
			m.closeDetail()
			return m, tea.Quit
		}
		switch m.screen {
		case screenDetail:
			return m.updateDetail(msg)
		case screenForm:
			return m.updateForm(msg)
		default:
			return m.updateList(msg)
		}
	}

	if m.screen == screenForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Let the filter input have every key while it is open.
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keyQuit):
		return m, tea.Quit
	case key.Matches(msg, keyAdd):
		m.status = ""
		m.form = newForm()
		m.screen = screenForm
		return m, nil
	case key.Matches(msg, keyOpen):
		selected, ok := m.list.SelectedItem().(listItem)
		if !ok {
			return m, nil
		}
		m.status = ""
		return m, m.openDetail(selected.item)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// openDetail switches to the detail screen and follows item live.
func (m *Model) openDetail(item model.Item) tea.Cmd {
	m.closeDetail()

	ctx, cancel := context.WithCancel(m.ctx)
	m.detailGen++
	m.detail = &item
	m.detailCancel = cancel
	m.detailCh = m.inv.RetrieveItem(ctx, item.ID)
	m.screen = screenDetail

	return waitForDetail(m.detailGen, m.detailCh)
}

func (m *Model) closeDetail() {
	if m.detailCancel != nil {
		m.detailCancel()
	}
	m.detailCancel = nil
	m.detailCh = nil
	m.detail = nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detail == nil {
		m.screen = screenList
		return m, nil
	}
	item := *m.detail

	switch {
	case key.Matches(msg, keyBack), key.Matches(msg, keyQuit):
		m.closeDetail()
		m.screen = screenList
	case key.Matches(msg, keySell):
		if !m.inv.IsStockAvailable(item) {
			m.status = item.Name + " is out of stock"
			return m, nil
		}
		m.inv.SellItem(item)
		m.status = "sold one " + item.Name
	case key.Matches(msg, keyDelete):
		m.inv.DeleteItem(item)
		m.closeDetail()
		m.screen = screenList
		m.status = "deleted " + item.Name
	case key.Matches(msg, keyEdit):
		m.status = ""
		m.form = editForm(item)
		m.screen = screenForm
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return m.leaveForm(), nil
	case key.Matches(msg, keySave):
		if !m.form.submit(m.inv) {
			return m, nil
		}
		name, _, _ := m.form.values()
		if m.form.editing() {
			m.status = "updated " + name
		} else {
			m.status = "added " + name
		}
		return m.leaveForm(), nil
	case key.Matches(msg, keyNext):
		m.form.setFocus(m.form.focus + 1)
		return m, nil
	case key.Matches(msg, keyPrev):
		m.form.setFocus(m.form.focus - 1)
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

// leaveForm returns to the screen the form was opened from.
func (m Model) leaveForm() Model {
	if m.form.editing() && m.detailCh != nil {
		m.screen = screenDetail
	} else {
		m.screen = screenList
	}
	m.form = newForm()
	return m
}

func (m Model) View() string {
	var body string
	switch m.screen {
	case screenDetail:
		body = m.detailView()
	case screenForm:
		body = m.form.view()
	default:
		body = m.list.View()
	}

	if m.status != "" {
		body += "\n" + successStyle.Render(m.status)
	}
	return panelStyle.Render(body)
}

func (m Model) detailView() string {
	if m.detail == nil {
		return mutedStyle.Render("loading…")
	}
	it := m.detail

	stock := strconv.Itoa(it.Quantity)
	if !it.InStock() {
		stock = warnStyle.Render("out of stock")
	}

	lines := []string{
		titleStyle.Render(it.Name),
		"",
		mutedStyle.Render("Price    ") + it.FormattedPrice(),
		mutedStyle.Render("Quantity ") + stock,
		"",
	}

	help := []string{"s sell", "d delete", "e edit", "esc back"}
	if !m.inv.IsStockAvailable(*it) {
		help[0] = mutedStyle.Render("s sell")
	}
	lines = append(lines, helpStyle.Render(strings.Join(help, " • ")))

	return strings.Join(lines, "\n")
}
