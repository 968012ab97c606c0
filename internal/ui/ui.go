package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/tasks"
)

// Tab identifies the visible list.
type Tab int

const (
	LibraryTab Tab = iota
	WishlistTab
	RecommendationsTab
	tabCount
)

func (t Tab) String() string {
	switch t {
	case LibraryTab:
		return "Library"
	case WishlistTab:
		return "Wishlist"
	case RecommendationsTab:
		return "Recommendations"
	default:
		return ""
	}
}

// windowStep is how far +/- move the recommendation window.
const windowStep = 30

// Shelf is the subset of the store the TUI drives.
type Shelf interface {
	Snapshot() models.State
	LibraryTitles() []string
	MoveToLibrary(id string, update models.BookUpdate) models.State
	RemoveFromLibrary(id string) models.State
	RemoveFromWishlist(id string) models.State
}

// Recommender produces recommendations. Implemented by [tasks.Recommender].
type Recommender interface {
	Recommend(ctx context.Context, req tasks.RecommendationRequest, progress chan<- tasks.ProgressUpdate) ([]models.Book, error)
}

// Options configures a [Model]. Zero values fall back to defaults.
type Options struct {
	Days int              // initial recency window in days
	Now  func() time.Time // clock, used for read dates and the recency window
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	shelf       Shelf
	recommender Recommender
	gen         tasks.Generation
	now         func() time.Time

	tab      Tab
	lists    [tabCount]list.Model
	days     int
	loading  bool
	progress tasks.ProgressUpdate
	status   string
	err      error

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model over shelf. recommender may be nil, which disables the recommendations tab.
func NewModel(ctx context.Context, shelf Shelf, recommender Recommender, opts Options) *Model {
	if opts.Days <= 0 {
		opts.Days = tasks.DefaultDaysAgo
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Model{
		ctx:         ctx,
		shelf:       shelf,
		recommender: recommender,
		now:         opts.Now,
		days:        opts.Days,
		width:       80,
		height:      24,
		help:        help.New(),
		keys:        newKeyMap(),
	}

	snap := shelf.Snapshot()
	m.lists[LibraryTab] = newBookList("Library", snap.Library, m.listWidth(), m.listHeight())
	m.lists[WishlistTab] = newBookList("Wishlist", snap.Wishlist, m.listWidth(), m.listHeight())
	m.lists[RecommendationsTab] = newBookList("Recommendations", nil, m.listWidth(), m.listHeight())
	return m
}

// Init starts the first recommendation refresh.
func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

func (m *Model) listWidth() int  { return max(m.width-4, 20) }
func (m *Model) listHeight() int { return max(m.height-8, 5) }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetSize(m.listWidth(), m.listHeight())
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRecommendations:
		if !m.gen.IsCurrent(msg.token) {
			return m, nil
		}
		data := msg.data.(recommendationsData)
		m.loading = false
		m.err = data.err
		if data.err != nil {
			return m, nil
		}
		m.status = fmt.Sprintf("%d recommendations from the last %d days", len(data.books), m.days)
		return m, m.lists[RecommendationsTab].SetItems(bookItems(data.books))

	case MsgProgressUpdate:
		data := msg.data.(progressData)
		if m.gen.IsCurrent(msg.token) {
			m.progress = data.update
		}
		return m, waitForProgress(msg.token, data.ch)
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.lists[m.tab].FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.tab = (m.tab + 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.tab = (m.tab + tabCount - 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.move):
		return m, m.moveSelected()
	case key.Matches(msg, m.keys.remove):
		return m, m.removeSelected()
	case key.Matches(msg, m.keys.refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.widen):
		m.days += windowStep
		return m, m.refresh()
	case key.Matches(msg, m.keys.narrow):
		if m.days-windowStep < windowStep {
			return m, nil
		}
		m.days -= windowStep
		return m, m.refresh()
	}

	return m.updateList(msg)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
	return m, cmd
}

func (m *Model) selected() (models.Book, bool) {
	item, ok := m.lists[m.tab].SelectedItem().(bookItem)
	if !ok {
		return models.Book{}, false
	}
	return item.book, true
}

// moveSelected marks the selected wishlist book as read today.
func (m *Model) moveSelected() tea.Cmd {
	if m.tab != WishlistTab {
		return nil
	}
	book, ok := m.selected()
	if !ok {
		return nil
	}

	today := m.now().Format(time.DateOnly)
	m.shelf.MoveToLibrary(book.ID, models.BookUpdate{ReadDate: &today})
	m.status = fmt.Sprintf("Moved %q to the library", book.Title())
	return m.reload()
}

func (m *Model) removeSelected() tea.Cmd {
	book, ok := m.selected()
	if !ok {
		return nil
	}

	switch m.tab {
	case LibraryTab:
		m.shelf.RemoveFromLibrary(book.ID)
	case WishlistTab:
		m.shelf.RemoveFromWishlist(book.ID)
	default:
		return nil
	}
	m.status = fmt.Sprintf("Removed %q from the %s", book.Title(), strings.ToLower(m.tab.String()))
	return m.reload()
}

// reload refreshes the library and wishlist tabs from the store.
func (m *Model) reload() tea.Cmd {
	snap := m.shelf.Snapshot()
	return tea.Batch(
		m.lists[LibraryTab].SetItems(bookItems(snap.Library)),
		m.lists[WishlistTab].SetItems(bookItems(snap.Wishlist)),
	)
}

// refresh starts a recommendation run under a new generation token.
func (m *Model) refresh() tea.Cmd {
	if m.recommender == nil {
		m.status = "Recommendations are unavailable"
		return nil
	}

	token := m.gen.Next()
	m.loading = true
	m.err = nil
	m.progress = tasks.ProgressUpdate{}

	snap := m.shelf.Snapshot()
	req := tasks.RecommendationRequest{
		Authors:       snap.Following,
		Topics:        snap.Topics,
		ExcludeTitles: m.shelf.LibraryTitles(),
		DaysAgo:       m.days,
		Now:           m.now(),
	}

	ch := make(chan tasks.ProgressUpdate, 16)
	ctx, recommender := m.ctx, m.recommender
	run := func() tea.Msg {
		books, err := recommender.Recommend(ctx, req, ch)
		close(ch)
		return recommendationsMsg(token, books, err)
	}
	return tea.Batch(run, waitForProgress(token, ch))
}

func waitForProgress(token uint64, ch <-chan tasks.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return progressUpdateMsg(token, update, ch)
	}
}

// View renders the tab bar, the active list, the status line and help.
func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.renderTabs())
	sb.WriteString("\n\n")

	switch {
	case m.tab == RecommendationsTab && m.err != nil:
		sb.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n")
	case m.tab == RecommendationsTab && m.loading:
		sb.WriteString(m.renderProgress())
		sb.WriteString("\n")
	default:
		sb.WriteString(m.lists[m.tab].View())
		sb.WriteString("\n")
	}

	if m.status != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.ok.Render(m.status))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return sb.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for t := range tabCount {
		label := t.String()
		if t == RecommendationsTab {
			label = fmt.Sprintf("%s (%dd)", label, m.days)
		}
		if t == m.tab {
			tabs = append(tabs, styles.activeTab.Render(label))
		} else {
			tabs = append(tabs, styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderProgress() string {
	title := styles.title.Render(fmt.Sprintf("Finding releases from the last %d days", m.days))

	var phase string
	switch m.progress.Phase {
	case tasks.QueryAuthors, tasks.QueryTopics:
		if m.progress.Total > 0 {
			phase = fmt.Sprintf("Searching the catalog (%d/%d)", m.progress.Step, m.progress.Total)
		} else {
			phase = "Searching the catalog..."
		}
	case tasks.MergeResults:
		phase = "Merging results..."
	default:
		phase = "Processing..."
	}
	return fmt.Sprintf("%s\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) helpKeys() []key.Binding {
	switch m.tab {
	case WishlistTab:
		return []key.Binding{m.keys.next, m.keys.move, m.keys.remove, m.keys.quit}
	case RecommendationsTab:
		return []key.Binding{m.keys.next, m.keys.refresh, m.keys.widen, m.keys.narrow, m.keys.quit}
	default:
		return []key.Binding{m.keys.next, m.keys.remove, m.keys.quit}
	}
}

// Run starts the program in the alternate screen and blocks until the user quits.
func Run(ctx context.Context, model *Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
