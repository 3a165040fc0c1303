package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/bmvault/internal/api"
	"github.com/user/bmvault/internal/bookmarks"
	"github.com/user/bmvault/internal/models"
	"github.com/user/bmvault/internal/session"
)

// fakeAPI serves both controllers from memory.
type fakeAPI struct {
	mu      sync.Mutex
	users   map[string]string
	current *models.User
	items   []models.Bookmark
	nextID  int64
	queries []string
	deleted []int64
	calls   []string
	listErr error
	favErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{users: map[string]string{}, nextID: 1}
}

func (f *fakeAPI) Register(_ context.Context, c models.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "register")
	if _, ok := f.users[c.Username]; ok {
		return &api.Error{Kind: api.KindConflict, Status: 409, Message: "username taken"}
	}
	f.users[c.Username] = c.Password
	return nil
}

func (f *fakeAPI) Login(_ context.Context, c models.Credentials) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "login")
	if pw, ok := f.users[c.Username]; !ok || pw != c.Password {
		return nil, &api.Error{Kind: api.KindAuth, Status: 401, Message: "invalid credentials"}
	}
	f.current = &models.User{ID: 1, Username: c.Username}
	return f.current, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "logout")
	f.current = nil
	return nil
}

func (f *fakeAPI) Me(context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakeAPI) ListBookmarks(_ context.Context, query string) ([]models.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Bookmark
	for _, b := range f.items {
		if query == "" || strings.Contains(strings.ToLower(b.Title), strings.ToLower(query)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateBookmark(_ context.Context, in models.BookmarkInput) (*models.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := models.Bookmark{ID: f.nextID, Title: in.Title, URL: in.URL, Tags: in.Tags, Note: in.Note}
	f.nextID++
	f.items = append([]models.Bookmark{b}, f.items...)
	return &b, nil
}

func (f *fakeAPI) UpdateBookmark(_ context.Context, id int64, in models.BookmarkInput) (*models.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Title, f.items[i].URL, f.items[i].Tags, f.items[i].Note = in.Title, in.URL, in.Tags, in.Note
			b := f.items[i]
			return &b, nil
		}
	}
	return nil, &api.Error{Kind: api.KindNotFound, Status: 404, Message: "not found"}
}

func (f *fakeAPI) DeleteBookmark(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	for i, b := range f.items {
		if b.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &api.Error{Kind: api.KindNotFound, Status: 404, Message: "not found"}
}

func (f *fakeAPI) ToggleFavorite(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.favErr != nil {
		return false, f.favErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsFavorite = !f.items[i].IsFavorite
			return bool(f.items[i].IsFavorite), nil
		}
	}
	return false, &api.Error{Kind: api.KindNotFound, Status: 404, Message: "not found"}
}

func newTestModel(fake *fakeAPI) model {
	return initialModel(session.New(fake, nil), bookmarks.NewController(fake))
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, _ = send(t, m, cmd())
	return m
}

// loggedIn returns a model on the bookmark screen after the boot probe.
func loggedIn(t *testing.T, fake *fakeAPI) model {
	t.Helper()
	fake.users["alice"] = "pw"
	fake.current = &models.User{ID: 1, Username: "alice"}
	m := newTestModel(fake)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = run(t, m, m.Init())
	if m.screen != screenBookmarks {
		t.Fatalf("expected bookmarks screen, got %v", m.screen)
	}
	return m
}

func TestBootWithSessionLoadsBookmarks(t *testing.T) {
	fake := newFakeAPI()
	fake.items = []models.Bookmark{
		{ID: 1, Title: "Go", URL: "https://go.dev"},
		{ID: 2, Title: "Python", URL: "https://python.org"},
	}
	m := loggedIn(t, fake)

	m, cmd := send(t, m, bootMsg{id: m.bootID, user: &models.User{Username: "alice"}})
	if cmd != nil {
		t.Error("boot result after boot screen should be ignored")
	}

	m = run(t, m, m.load(""))
	if len(m.browse.list.Items()) != 2 {
		t.Fatalf("expected 2 items, got %d", len(m.browse.list.Items()))
	}
	if !strings.Contains(m.View(), "alice") {
		t.Error("expected username in header")
	}
}

func TestBootWithoutSessionShowsLogin(t *testing.T) {
	m := newTestModel(newFakeAPI())
	m = run(t, m, m.Init())
	if m.screen != screenLogin {
		t.Fatalf("expected login screen, got %v", m.screen)
	}
	if !m.login.inputs[0].Focused() {
		t.Error("expected username focused")
	}
}

func TestBootSkipIgnoresStaleProbe(t *testing.T) {
	fake := newFakeAPI()
	fake.current = &models.User{ID: 1, Username: "alice"}
	m := newTestModel(fake)
	probe := m.Init()

	m, _ = send(t, m, key("esc"))
	if m.screen != screenLogin {
		t.Fatalf("expected login screen after skip, got %v", m.screen)
	}

	m, _ = send(t, m, probe())
	if m.screen != screenLogin {
		t.Error("stale probe result must not switch screens")
	}
}

func TestLoginWrongPasswordStaysOnForm(t *testing.T) {
	fake := newFakeAPI()
	fake.users["alice"] = "secret"
	m := newTestModel(fake)
	m = run(t, m, m.Init())

	m, _ = send(t, m, key("alice"))
	m, _ = send(t, m, key("enter"))
	m, _ = send(t, m, key("nope"))
	m, cmd := send(t, m, key("enter"))
	if !m.login.busy {
		t.Error("expected busy while submitting")
	}
	m = run(t, m, cmd)

	if m.screen != screenLogin {
		t.Fatalf("expected to stay on login, got %v", m.screen)
	}
	if m.login.err != "invalid credentials" {
		t.Errorf("expected inline error, got %q", m.login.err)
	}
	if m.login.inputs[1].Value() != "" {
		t.Error("password should be cleared after a failed login")
	}
	if m.sess.State() != session.Anonymous {
		t.Error("session must stay anonymous")
	}
}

func TestRegisterThenLogsIn(t *testing.T) {
	fake := newFakeAPI()
	m := newTestModel(fake)
	m = run(t, m, m.Init())

	m, _ = send(t, m, key("tab"))
	if !m.login.register {
		t.Fatal("tab should switch to register mode")
	}
	m, _ = send(t, m, key("alice"))
	m, _ = send(t, m, key("enter"))
	m, _ = send(t, m, key("pw"))
	m, cmd := send(t, m, key("enter"))
	m = run(t, m, cmd)

	if got := strings.Join(fake.calls, ","); got != "register,login" {
		t.Errorf("calls = %s, want register,login", got)
	}
	if m.screen != screenBookmarks {
		t.Fatalf("expected bookmarks screen, got %v", m.screen)
	}
	if u := m.sess.User(); u == nil || u.Username != "alice" {
		t.Errorf("expected alice, got %+v", u)
	}
}

func TestSearchOnlyOnEnter(t *testing.T) {
	fake := newFakeAPI()
	fake.items = []models.Bookmark{
		{ID: 1, Title: "Go", URL: "https://go.dev"},
		{ID: 2, Title: "Python", URL: "https://python.org"},
	}
	m := loggedIn(t, fake)
	before := len(fake.queries)

	m, _ = send(t, m, key("/"))
	if m.browse.mode != modeSearch || !m.browse.search.Focused() {
		t.Fatal("expected search focused after /")
	}
	m, _ = send(t, m, key("pyth"))
	if len(fake.queries) != before {
		t.Error("typing must not load")
	}

	m, cmd := send(t, m, key("enter"))
	m = run(t, m, cmd)
	if got := fake.queries[len(fake.queries)-1]; got != "pyth" {
		t.Errorf("query = %q, want pyth", got)
	}
	if m.marks.Query() != "pyth" || len(m.browse.list.Items()) != 1 {
		t.Errorf("expected 1 filtered item, got %d", len(m.browse.list.Items()))
	}
	if m.browse.mode != modeList {
		t.Error("expected list mode after search")
	}
}

func TestQQuitsOnlyFromList(t *testing.T) {
	m := loggedIn(t, newFakeAPI())

	_, cmd := send(t, m, key("q"))
	if cmd == nil {
		t.Error("expected quit command from list mode")
	}

	m, _ = send(t, m, key("/"))
	m, _ = send(t, m, key("q"))
	if m.browse.search.Value() != "q" {
		t.Errorf("q should be typed into search, got %q", m.browse.search.Value())
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	fake := newFakeAPI()
	fake.items = []models.Bookmark{{ID: 7, Title: "Go", URL: "https://go.dev"}}
	m := loggedIn(t, fake)
	m = run(t, m, m.load(""))

	m, _ = send(t, m, key("d"))
	if m.browse.mode != modeConfirm || m.browse.confirmID != 7 {
		t.Fatalf("expected confirm prompt for 7, got mode %v id %d", m.browse.mode, m.browse.confirmID)
	}
	if !strings.Contains(m.View(), `Delete "Go"?`) {
		t.Error("expected confirmation prompt in view")
	}
	m, cmd := send(t, m, key("n"))
	if cmd != nil || len(fake.deleted) != 0 {
		t.Fatal("declining must not delete")
	}

	m, _ = send(t, m, key("d"))
	m, cmd = send(t, m, key("y"))
	m = run(t, m, cmd)
	if len(fake.deleted) != 1 || fake.deleted[0] != 7 {
		t.Fatalf("expected delete of 7, got %v", fake.deleted)
	}
	if len(m.browse.list.Items()) != 0 || m.marks.Len() != 0 {
		t.Error("expected empty list after delete")
	}
}

func TestFavoriteErrorShowsNotice(t *testing.T) {
	fake := newFakeAPI()
	fake.items = []models.Bookmark{{ID: 1, Title: "Go", URL: "https://go.dev"}}
	m := loggedIn(t, fake)
	m = run(t, m, m.load(""))

	fake.favErr = &api.Error{Kind: api.KindServer, Status: 500, Message: "database is locked"}
	m, cmd := send(t, m, key("f"))
	m = run(t, m, cmd)
	if m.browse.mode != modeNotice || m.browse.notice != "database is locked" {
		t.Fatalf("expected blocking notice, got mode %v %q", m.browse.mode, m.browse.notice)
	}

	m, cmd = send(t, m, key("f"))
	if cmd != nil || m.browse.mode != modeList {
		t.Error("a key press should only dismiss the notice")
	}

	fake.favErr = nil
	m, cmd = send(t, m, key("f"))
	m = run(t, m, cmd)
	if b, _ := m.marks.Find(1); !b.IsFavorite {
		t.Error("expected favorite set")
	}
}

func TestAddFormInlineError(t *testing.T) {
	fake := newFakeAPI()
	m := loggedIn(t, fake)

	m, _ = send(t, m, key("a"))
	if m.browse.mode != modeForm {
		t.Fatal("expected add form")
	}
	m, _ = send(t, m, key("Example"))
	for i := 0; i < 3; i++ {
		m, _ = send(t, m, key("enter"))
	}
	m, cmd := send(t, m, key("enter"))
	m = run(t, m, cmd)
	if m.browse.formErr != "url required" || m.browse.mode != modeForm {
		t.Fatalf("expected inline 'url required', got %q", m.browse.formErr)
	}

	m.browse.form[1].SetValue("https://example.com")
	m, cmd = send(t, m, key("enter"))
	m = run(t, m, cmd)
	if m.browse.mode != modeList || len(m.browse.list.Items()) != 1 {
		t.Fatalf("expected new bookmark in list, mode %v items %d", m.browse.mode, len(m.browse.list.Items()))
	}
}

func TestAuthErrorOnLoadReturnsToLogin(t *testing.T) {
	fake := newFakeAPI()
	m := loggedIn(t, fake)

	fake.listErr = &api.Error{Kind: api.KindAuth, Status: 401, Message: "not logged in"}
	m, cmd := send(t, m, key("r"))
	m = run(t, m, cmd)
	if m.screen != screenLogin {
		t.Fatalf("expected login screen, got %v", m.screen)
	}
	if m.login.err == "" {
		t.Error("expected a message on the login form")
	}
}

func TestUnmountedLoadIgnored(t *testing.T) {
	fake := newFakeAPI()
	fake.items = []models.Bookmark{{ID: 1, Title: "Go", URL: "https://go.dev"}}
	m := loggedIn(t, fake)

	m, cmd := send(t, m, loadedMsg{err: bookmarks.ErrUnmounted})
	if cmd != nil || !m.browse.loading || m.browse.loadErr != "" {
		t.Error("discarded load must leave the screen untouched")
	}

	m, cmd = send(t, m, key("L"))
	m = run(t, m, cmd)
	if m.screen != screenLogin {
		t.Fatalf("expected login after logout, got %v", m.screen)
	}
	if got := fake.calls[len(fake.calls)-1]; got != "logout" {
		t.Errorf("last call = %s, want logout", got)
	}
	if m.sess.State() != session.Anonymous {
		t.Error("expected anonymous after logout")
	}
}

func TestPromptEnterAndCancel(t *testing.T) {
	m := newPrompt("Password:", true)
	next, _ := m.Update(key("s3cret"))
	m = next.(promptModel)
	if strings.Contains(m.View(), "s3cret") {
		t.Error("secret prompt must not echo input")
	}
	next, cmd := m.Update(key("enter"))
	m = next.(promptModel)
	if !m.done || cmd == nil || m.input.Value() != "s3cret" {
		t.Fatalf("expected done with value, got done=%v value=%q", m.done, m.input.Value())
	}

	c := newPrompt("Username:", false)
	next, _ = c.Update(key("esc"))
	if !next.(promptModel).cancelled {
		t.Error("esc should cancel")
	}
}

func TestSavedWithFailedRefreshClearsForm(t *testing.T) {
	fake := newFakeAPI()
	m := loggedIn(t, fake)

	m, _ = send(t, m, key("a"))
	m.browse.form[0].SetValue("Example")
	m.browse.form[1].SetValue("https://example.com")
	m.browse.focusForm(len(m.browse.form) - 1)

	fake.listErr = &api.Error{Kind: api.KindNetwork, Message: "network down"}
	m, cmd := send(t, m, key("enter"))
	m = run(t, m, cmd)

	if m.browse.mode != modeList || m.browse.formErr != "" {
		t.Fatalf("saved bookmark must close the form, mode %v err %q", m.browse.mode, m.browse.formErr)
	}
	if m.browse.form[0].Value() != "" {
		t.Error("form not cleared; a resubmit would duplicate the bookmark")
	}
	if !strings.Contains(m.browse.loadErr, "network down") {
		t.Errorf("expected refresh failure on the list, got %q", m.browse.loadErr)
	}
	if len(fake.items) != 1 {
		t.Errorf("backend has %d items, want 1", len(fake.items))
	}
}
