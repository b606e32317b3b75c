// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/verity/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/verity/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/verity/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driving"
)

// ErrServiceUnavailable is reported when no ingest service is wired.
var ErrServiceUnavailable = errors.New("ingest service not available")

// View is the documents list view.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	ingest driving.IngestService
	ctx    context.Context

	documents     []domain.Document
	stats         domain.IndexStats
	selected      int
	scrollOffset  int
	confirmDelete bool
	loading       bool
	err           error

	width  int
	height int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, ingest driving.IngestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		ingest: ingest,
		ctx:    context.Background(),
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadDocuments()
}

func (v *View) loadDocuments() tea.Cmd {
	ingest := v.ingest
	ctx := v.ctx
	return func() tea.Msg {
		if ingest == nil {
			return messages.DocumentsLoaded{Err: ErrServiceUnavailable}
		}
		docs, err := ingest.List(ctx)
		if err != nil {
			return messages.DocumentsLoaded{Err: err}
		}
		stats, err := ingest.Stats(ctx)
		return messages.DocumentsLoaded{Documents: docs, Stats: stats, Err: err}
	}
}

func (v *View) deleteDocument(docID string) tea.Cmd {
	ingest := v.ingest
	ctx := v.ctx
	return func() tea.Msg {
		if ingest == nil {
			return messages.DocumentDeleted{DocumentID: docID, Err: ErrServiceUnavailable}
		}
		return messages.DocumentDeleted{DocumentID: docID, Err: ingest.Delete(ctx, docID)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.confirmDelete {
			return v.handleConfirmKey(msg)
		}
		return v.handleKey(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			v.stats = msg.Stats
			if v.selected >= len(v.documents) {
				v.selected = max(len(v.documents)-1, 0)
			}
			v.adjustScroll()
		}
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.loading = true
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keys.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keys.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keys.Delete):
		if len(v.documents) > 0 {
			v.confirmDelete = true
		}
	case keymap.Matches(key, v.keys.Refresh):
		v.loading = true
		return v, v.loadDocuments()
	case keymap.Matches(key, v.keys.Back), keymap.Matches(key, v.keys.SwitchView):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChat}
		}
	}
	return v, nil
}

// handleConfirmKey asks for y before deleting the selected document.
func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirmDelete = false
	if msg.String() != "y" || v.selected >= len(v.documents) {
		return v, nil
	}
	return v, v.deleteDocument(v.documents[v.selected].ID)
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// Title, stats, separator and help.
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(v.statsLine()))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents ingested yet. Run `verity ingest <file>` to add one."))
	default:
		v.renderList(&b)
	}

	b.WriteString("\n\n")
	if v.confirmDelete && v.selected < len(v.documents) {
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s? (y/n)", v.documents[v.selected].Name)))
	} else {
		b.WriteString(v.renderHelp())
	}
	return b.String()
}

func (v *View) renderList(b *strings.Builder) {
	visible := v.visibleItemCount()
	end := min(v.scrollOffset+visible, len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}
	if len(v.documents) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.documents))))
	}
}

func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := doc.Name
	maxName := max(v.width/2-4, 10)
	if len(name) > maxName {
		name = name[:maxName-3] + "..."
	}

	line := fmt.Sprintf("%s%-*s %-4s %8s  %s", indicator, maxName, name, doc.Kind, humanBytes(doc.Size), doc.CreatedAt.Format("2006-01-02 15:04"))
	if index == v.selected {
		return v.styles.Selected.Render(line)
	}
	return v.styles.Normal.Render(line)
}

func (v *View) statsLine() string {
	line := fmt.Sprintf("%d documents, %d chunks", v.stats.TotalDocuments, v.stats.TotalChunks)
	if v.stats.EmbeddingModel != "" {
		line += ", embeddings: " + v.stats.EmbeddingModel
	}
	if v.stats.LLMModel != "" {
		line += ", llm: " + v.stats.LLMModel
	}
	return line
}

func (v *View) renderHelp() string {
	hints := make([]string, 0, 5)
	for _, h := range v.keys.DocumentsHelp() {
		help := h.Help()
		hints = append(hints, fmt.Sprintf("[%s] %s", help.Key, help.Desc))
	}
	return v.styles.Help.Render(strings.Join(hints, "  "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Documents returns the loaded documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// Stats returns the last loaded index stats.
func (v *View) Stats() domain.IndexStats {
	return v.stats
}

// Selected returns the selected index.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
