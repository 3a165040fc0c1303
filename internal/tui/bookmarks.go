package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/bmvault/internal/api"
	"github.com/user/bmvault/internal/bookmarks"
	"github.com/user/bmvault/internal/models"
)

type browseMode int

const (
	modeList browseMode = iota
	modeSearch
	modeForm
	modeConfirm
	modeNotice
)

var formLabels = []string{"Title", "URL", "Tags", "Note"}

type browser struct {
	mode   browseMode
	list   list.Model
	search textinput.Model

	form        []textinput.Model
	formFocused int
	formErr     string
	// editID is the bookmark being edited; 0 means the form adds a new one.
	editID int64

	confirmID int64
	notice    string
	loadErr   string
	loading   bool
}

type bookmarkItem struct {
	bookmark models.Bookmark
}

func (b bookmarkItem) Title() string {
	star := "☆"
	if b.bookmark.IsFavorite {
		star = starStyle.Render("★")
	}
	return fmt.Sprintf("%s %s", star, b.bookmark.Title)
}

func (b bookmarkItem) Description() string {
	parts := []string{truncate(b.bookmark.URL, 60)}
	if tags := b.bookmark.TagList(); len(tags) > 0 {
		parts = append(parts, tagStyle.Render("#"+strings.Join(tags, " #")))
	}
	if b.bookmark.Note != "" {
		parts = append(parts, truncate(b.bookmark.Note, 40))
	}
	if !b.bookmark.CreatedAt.IsZero() {
		parts = append(parts, b.bookmark.CreatedAt.Format("2006-01-02"))
	}
	return strings.Join(parts, " · ")
}

func (b bookmarkItem) FilterValue() string {
	return b.bookmark.Title + " " + b.bookmark.Tags + " " + b.bookmark.URL
}

type loadedMsg struct {
	err error
}

type savedMsg struct {
	err error
}

type removedMsg struct {
	err error
}

type favoriteMsg struct {
	err error
}

type loggedOutMsg struct {
	err error
}

func newBrowser() browser {
	ti := textinput.New()
	ti.Placeholder = "Search bookmarks..."
	ti.CharLimit = 256
	ti.Width = 50

	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Bookmarks"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	form := make([]textinput.Model, len(formLabels))
	for i, label := range formLabels {
		in := textinput.New()
		in.Placeholder = strings.ToLower(label)
		in.CharLimit = 2048
		in.Width = 50
		form[i] = in
	}

	return browser{list: l, search: ti, form: form}
}

func (b *browser) reset() {
	b.mode = modeList
	b.search.SetValue("")
	b.search.Blur()
	b.clearForm()
	b.confirmID = 0
	b.notice = ""
	b.loadErr = ""
	b.loading = true
	b.list.SetItems(nil)
}

func (b *browser) setSize(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	b.list.SetSize(width, max(height-8, 3))
	b.search.Width = max(width-20, 10)
}

func (b *browser) setItems(items []models.Bookmark) {
	out := make([]list.Item, 0, len(items))
	for _, bm := range items {
		out = append(out, bookmarkItem{bookmark: bm})
	}
	b.list.SetItems(out)
}

func (b *browser) selected() (models.Bookmark, bool) {
	item, ok := b.list.SelectedItem().(bookmarkItem)
	return item.bookmark, ok
}

func (b *browser) clearForm() {
	for i := range b.form {
		b.form[i].SetValue("")
		b.form[i].Blur()
	}
	b.formFocused = 0
	b.formErr = ""
	b.editID = 0
}

func (b *browser) openForm(edit *models.Bookmark) tea.Cmd {
	b.clearForm()
	if edit != nil {
		b.editID = edit.ID
		b.form[0].SetValue(edit.Title)
		b.form[1].SetValue(edit.URL)
		b.form[2].SetValue(edit.Tags)
		b.form[3].SetValue(edit.Note)
	}
	b.mode = modeForm
	return b.focusForm(0)
}

func (b *browser) focusForm(i int) tea.Cmd {
	b.formFocused = (i + len(b.form)) % len(b.form)
	for j := range b.form {
		if j == b.formFocused {
			b.form[j].Focus()
		} else {
			b.form[j].Blur()
		}
	}
	return textinput.Blink
}

func (b *browser) formInput() models.BookmarkInput {
	return models.BookmarkInput{
		Title: b.form[0].Value(),
		URL:   b.form[1].Value(),
		Tags:  b.form[2].Value(),
		Note:  b.form[3].Value(),
	}
}

func (m model) load(query string) tea.Cmd {
	marks := m.marks
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := marks.Load(ctx, query)
		return loadedMsg{err: err}
	}
}

func (m model) save(editID int64, in models.BookmarkInput) tea.Cmd {
	marks := m.marks
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if editID != 0 {
			return savedMsg{err: marks.Update(ctx, editID, in)}
		}
		return savedMsg{err: marks.Create(ctx, in)}
	}
}

func (m model) remove(id int64) tea.Cmd {
	marks := m.marks
	// the y/n prompt already ran; only the prompted bookmark is approved
	confirm := bookmarks.ConfirmFunc(func(b models.Bookmark) bool { return b.ID == id })
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return removedMsg{err: marks.Remove(ctx, id, confirm)}
	}
}

func (m model) toggleFavorite(id int64) tea.Cmd {
	marks := m.marks
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := marks.ToggleFavorite(ctx, id)
		return favoriteMsg{err: err}
	}
}

func (m model) logout() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return loggedOutMsg{err: sess.Logout(ctx)}
	}
}

// leaveBookmarks detaches the list and shows the login form with msg.
func (m model) leaveBookmarks(msg string) (tea.Model, tea.Cmd) {
	m.marks.Unmount()
	m.login.reset()
	m.login.err = msg
	return m.enterLogin()
}

func (m model) updateBookmarks(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if errors.Is(msg.err, bookmarks.ErrUnmounted) {
			return m, nil
		}
		m.browse.loading = false
		if api.IsKind(msg.err, api.KindAuth) {
			return m.leaveBookmarks("session expired, please log in again")
		}
		if msg.err != nil {
			m.browse.loadErr = msg.err.Error()
			return m, nil
		}
		m.browse.loadErr = ""
		m.browse.setItems(m.marks.Items())
		return m, nil

	case savedMsg:
		if errors.Is(msg.err, bookmarks.ErrUnmounted) {
			return m, nil
		}
		if msg.err != nil && !errors.Is(msg.err, bookmarks.ErrListStale) {
			m.browse.formErr = msg.err.Error()
			return m, nil
		}
		// saved; a failed refresh belongs to the list, not the form
		m.browse.loadErr = ""
		if msg.err != nil {
			m.browse.loadErr = msg.err.Error()
		}
		m.browse.clearForm()
		m.browse.mode = modeList
		m.browse.setItems(m.marks.Items())
		return m, nil

	case removedMsg, favoriteMsg:
		var err error
		switch msg := msg.(type) {
		case removedMsg:
			err = msg.err
		case favoriteMsg:
			err = msg.err
		}
		if err != nil && !errors.Is(err, bookmarks.ErrNotConfirmed) {
			m.browse.notice = err.Error()
			m.browse.mode = modeNotice
			return m, nil
		}
		m.browse.setItems(m.marks.Items())
		return m, nil

	case loggedOutMsg:
		note := ""
		if msg.err != nil {
			note = fmt.Sprintf("logged out locally (server said: %v)", msg.err)
		}
		return m.leaveBookmarks(note)

	case tea.KeyMsg:
		switch m.browse.mode {
		case modeNotice:
			m.browse.notice = ""
			m.browse.mode = modeList
			return m, nil
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeForm:
			return m.updateForm(msg)
		}
		return m.updateListKeys(msg)
	}

	var cmd tea.Cmd
	switch m.browse.mode {
	case modeSearch:
		m.browse.search, cmd = m.browse.search.Update(msg)
	case modeForm:
		i := m.browse.formFocused
		m.browse.form[i], cmd = m.browse.form[i].Update(msg)
	default:
		m.browse.list, cmd = m.browse.list.Update(msg)
	}
	return m, cmd
}

func (m model) updateListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.browse.mode = modeSearch
		m.browse.search.Focus()
		return m, textinput.Blink
	case "a":
		return m, m.browse.openForm(nil)
	case "e":
		if b, ok := m.browse.selected(); ok {
			return m, m.browse.openForm(&b)
		}
		return m, nil
	case "f":
		if b, ok := m.browse.selected(); ok {
			return m, m.toggleFavorite(b.ID)
		}
		return m, nil
	case "d":
		if b, ok := m.browse.selected(); ok {
			m.browse.confirmID = b.ID
			m.browse.mode = modeConfirm
		}
		return m, nil
	case "o", "enter":
		if b, ok := m.browse.selected(); ok {
			if err := openBrowser(b.URL); err != nil {
				m.browse.notice = err.Error()
				m.browse.mode = modeNotice
			}
		}
		return m, nil
	case "r":
		m.browse.loading = true
		return m, m.load(m.marks.Query())
	case "L":
		return m, m.logout()
	}

	var cmd tea.Cmd
	m.browse.list, cmd = m.browse.list.Update(msg)
	return m, cmd
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.browse.confirmID
	m.browse.confirmID = 0
	m.browse.mode = modeList
	switch msg.String() {
	case "y", "Y":
		return m, m.remove(id)
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.browse.mode = modeList
		m.browse.search.Blur()
		return m, nil
	case "enter":
		m.browse.mode = modeList
		m.browse.search.Blur()
		m.browse.loading = true
		return m, m.load(strings.TrimSpace(m.browse.search.Value()))
	}
	var cmd tea.Cmd
	m.browse.search, cmd = m.browse.search.Update(msg)
	return m, cmd
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.browse.clearForm()
		m.browse.mode = modeList
		return m, nil
	case "tab", "down":
		return m, m.browse.focusForm(m.browse.formFocused + 1)
	case "shift+tab", "up":
		return m, m.browse.focusForm(m.browse.formFocused - 1)
	case "enter":
		if m.browse.formFocused < len(m.browse.form)-1 {
			return m, m.browse.focusForm(m.browse.formFocused + 1)
		}
		m.browse.formErr = ""
		return m, m.save(m.browse.editID, m.browse.formInput())
	}
	var cmd tea.Cmd
	i := m.browse.formFocused
	m.browse.form[i], cmd = m.browse.form[i].Update(msg)
	return m, cmd
}

func (m model) viewBookmarks() string {
	var b strings.Builder

	header := titleStyle.Render("bmvault")
	if u := m.sess.User(); u != nil {
		header += dimStyle.Render("  " + u.Username)
	}
	b.WriteString(header + "\n")
	b.WriteString(boxStyle.Render(m.browse.search.View()))
	if q := m.marks.Query(); q != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  showing results for %q", q)))
	}
	b.WriteString("\n")

	switch m.browse.mode {
	case modeNotice:
		b.WriteString(noticeStyle.Render(m.browse.notice+"\n\n"+dimStyle.Render("press any key")) + "\n")
		return b.String()
	case modeForm:
		b.WriteString(m.viewForm())
		return b.String()
	}

	if m.browse.loadErr != "" {
		b.WriteString(errorStyle.Render(m.browse.loadErr) + "\n")
	}
	if m.browse.loading && len(m.browse.list.Items()) == 0 {
		b.WriteString(dimStyle.Render("loading...") + "\n")
	} else if len(m.browse.list.Items()) == 0 {
		b.WriteString(dimStyle.Render("No bookmarks yet. Press a to add one.") + "\n")
	} else {
		b.WriteString(m.browse.list.View())
	}

	if m.browse.mode == modeConfirm {
		title := ""
		if bm, ok := m.marks.Find(m.browse.confirmID); ok {
			title = bm.Title
		}
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Delete %q? [y/n]", title)))
		return b.String()
	}

	help := "[j/k]nav [/]search [a]dd [e]dit [f]av [d]elete [o]pen [r]eload [L]ogout [q]uit"
	if m.browse.mode == modeSearch {
		help = "[enter]search [esc]cancel"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m model) viewForm() string {
	var form strings.Builder
	heading := "New bookmark"
	if m.browse.editID != 0 {
		heading = "Edit bookmark"
	}
	form.WriteString(focusedLabel.Render(heading) + "\n\n")
	for i, in := range m.browse.form {
		label := blurredLabel.Render(formLabels[i])
		if i == m.browse.formFocused {
			label = focusedLabel.Render(formLabels[i])
		}
		form.WriteString(label + "\n" + in.View() + "\n")
	}

	out := boxStyle.Render(strings.TrimRight(form.String(), "\n")) + "\n"
	if m.browse.formErr != "" {
		out += errorStyle.Render(m.browse.formErr) + "\n"
	}
	return out + helpStyle.Render("[tab]next field [enter]save on last field [esc]cancel")
}
