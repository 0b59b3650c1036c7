package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/telebrief/telebrief/pkg/credentials"
	"github.com/telebrief/telebrief/pkg/interfaces"
)

type testLogger struct{}

func (testLogger) Info(string)  {}
func (testLogger) Error(string) {}
func (testLogger) Warn(string)  {}
func (testLogger) Debug(string) {}

// fakeGmail serves just enough of the Gmail REST surface for the pipeline.
type fakeGmail struct {
	profile  string
	pages    map[string]*gmailv1.ListMessagesResponse // keyed by pageToken, "" is the first page
	messages map[string]*gmailv1.Message

	listCalls   int
	lastQuery   url.Values
	detailCalls int
}

func (f *fakeGmail) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := r.URL.Path

		switch {
		case strings.HasSuffix(path, "/profile"):
			json.NewEncoder(w).Encode(&gmailv1.Profile{EmailAddress: f.profile})

		case strings.Contains(path, "/messages/"):
			f.detailCalls++
			id := path[strings.LastIndex(path, "/")+1:]
			msg, ok := f.messages[id]
			if !ok {
				http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(msg)

		case strings.HasSuffix(path, "/messages"):
			f.listCalls++
			f.lastQuery = r.URL.Query()
			page := f.pages[r.URL.Query().Get("pageToken")]
			if page == nil {
				page = &gmailv1.ListMessagesResponse{}
			}
			json.NewEncoder(w).Encode(page)

		default:
			http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
		}
	})
}

func newTestPipeline(t *testing.T, fake *fakeGmail) (*Pipeline, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	store := credentials.NewStore(filepath.Join(t.TempDir(), "token.json"))
	if err := store.Save(credentials.Credentials{AccessToken: "ya29.test", TokenType: "Bearer"}); err != nil {
		t.Fatal(err)
	}

	factory := NewFactory(store, option.WithEndpoint(srv.URL))
	return NewPipeline(factory, testLogger{}), srv
}

func enc(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestServiceUnauthenticated(t *testing.T) {
	store := credentials.NewStore(filepath.Join(t.TempDir(), "token.json"))
	factory := NewFactory(store)

	if _, err := factory.Service(context.Background()); !errors.Is(err, interfaces.ErrUnauthenticated) {
		t.Fatalf("Service() error = %v, want ErrUnauthenticated", err)
	}
}

func TestServiceEmptyAccessToken(t *testing.T) {
	store := credentials.NewStore(filepath.Join(t.TempDir(), "token.json"))
	if err := store.Save(credentials.Credentials{AccessToken: ""}); err != nil {
		t.Fatal(err)
	}
	factory := NewFactory(store)

	if _, err := factory.Service(context.Background()); !errors.Is(err, interfaces.ErrUnauthenticated) {
		t.Fatalf("Service() error = %v, want ErrUnauthenticated", err)
	}
}

func TestActiveAccount(t *testing.T) {
	fake := &fakeGmail{profile: "alice@example.com"}
	p, _ := newTestPipeline(t, fake)

	got, err := p.ActiveAccount(context.Background())
	if err != nil {
		t.Fatalf("ActiveAccount() error: %v", err)
	}
	if got != "alice@example.com" {
		t.Errorf("ActiveAccount() = %q", got)
	}
}

func TestLastMessageEmptyInbox(t *testing.T) {
	fake := &fakeGmail{pages: map[string]*gmailv1.ListMessagesResponse{}}
	p, _ := newTestPipeline(t, fake)

	msg, err := p.LastMessage(context.Background())
	if err != nil {
		t.Fatalf("LastMessage() on empty inbox: %v", err)
	}
	if msg != nil {
		t.Errorf("LastMessage() = %+v, want nil", msg)
	}
}

func TestLastMessageFullRendering(t *testing.T) {
	body := strings.Repeat("abcdef", 100) // 600 chars
	fake := &fakeGmail{
		pages: map[string]*gmailv1.ListMessagesResponse{
			"": {Messages: []*gmailv1.Message{{Id: "m1"}}},
		},
		messages: map[string]*gmailv1.Message{
			"m1": {
				Id: "m1",
				Payload: &gmailv1.MessagePart{
					MimeType: "multipart/alternative",
					Headers: []*gmailv1.MessagePartHeader{
						{Name: "From", Value: "alice@example.com"},
						{Name: "Subject", Value: "Hi"},
						{Name: "Date", Value: "Mon, 1 Jan 2024 00:00:00 +0000"},
					},
					Parts: []*gmailv1.MessagePart{
						{MimeType: "text/html", Body: &gmailv1.MessagePartBody{Data: enc("<p>ignored</p>")}},
						{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: enc(body)}},
					},
				},
			},
		},
	}
	p, _ := newTestPipeline(t, fake)

	msg, err := p.LastMessage(context.Background())
	if err != nil {
		t.Fatalf("LastMessage() error: %v", err)
	}
	if msg == nil {
		t.Fatal("LastMessage() = nil")
	}
	if msg.From != "alice@example.com" || msg.Subject != "Hi" || msg.Date != "Mon, 1 Jan 2024 00:00:00 +0000" {
		t.Errorf("headers = %q / %q / %q", msg.From, msg.Subject, msg.Date)
	}
	if msg.Body != body {
		t.Errorf("body length = %d, want %d", len(msg.Body), len(body))
	}

	rendered := RenderMessage(msg)
	for _, want := range []string{"From: alice@example.com", "Subject: Hi", "Date: Mon, 1 Jan 2024 00:00:00 +0000"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendering missing %q", want)
		}
	}
	if !strings.HasSuffix(rendered, body[:500]+"...") {
		t.Error("rendering does not end with the first 500 body characters and an ellipsis")
	}
	if strings.Contains(rendered, body[:501]) {
		t.Error("rendering contains more than 500 body characters")
	}
}

func TestLastMessageHeaderPlaceholders(t *testing.T) {
	fake := &fakeGmail{
		pages: map[string]*gmailv1.ListMessagesResponse{
			"": {Messages: []*gmailv1.Message{{Id: "m1"}}},
		},
		messages: map[string]*gmailv1.Message{
			"m1": {
				Id: "m1",
				Payload: &gmailv1.MessagePart{
					MimeType: "text/plain",
					Body:     &gmailv1.MessagePartBody{Data: enc("top-level body")},
				},
			},
		},
	}
	p, _ := newTestPipeline(t, fake)

	msg, err := p.LastMessage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if msg.From != "Unknown sender" {
		t.Errorf("From = %q", msg.From)
	}
	if msg.Subject != "(No subject)" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.Date != "" {
		t.Errorf("Date = %q", msg.Date)
	}
	if msg.Body != "top-level body" {
		t.Errorf("Body = %q, want the top-level body", msg.Body)
	}
}

func TestTodaysMessagesQueryBoundary(t *testing.T) {
	fake := &fakeGmail{pages: map[string]*gmailv1.ListMessagesResponse{}}
	p, _ := newTestPipeline(t, fake)

	loc := time.FixedZone("TST", 2*3600)
	p.now = func() time.Time { return time.Date(2024, 6, 15, 13, 45, 30, 0, loc) }

	if _, err := p.TodaysMessages(context.Background()); err != nil {
		t.Fatal(err)
	}

	wantMidnight := time.Date(2024, 6, 15, 0, 0, 0, 0, loc)
	wantQuery := "after:" + strconv.FormatInt(wantMidnight.Unix(), 10)
	if got := fake.lastQuery.Get("q"); got != wantQuery {
		t.Errorf("query = %q, want %q", got, wantQuery)
	}
	if got := fake.lastQuery.Get("maxResults"); got != "50" {
		t.Errorf("maxResults = %q, want 50", got)
	}
}

func TestTodaysMessagesEmpty(t *testing.T) {
	fake := &fakeGmail{pages: map[string]*gmailv1.ListMessagesResponse{}}
	p, _ := newTestPipeline(t, fake)

	msgs, err := p.TodaysMessages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if msgs == nil {
		t.Fatal("TodaysMessages() = nil, want empty slice")
	}
	if len(msgs) != 0 {
		t.Errorf("len = %d, want 0", len(msgs))
	}
	if fake.detailCalls != 0 {
		t.Errorf("detail fetches = %d, want 0", fake.detailCalls)
	}
}

func TestTodaysMessagesSnippetFirst(t *testing.T) {
	fake := &fakeGmail{
		pages: map[string]*gmailv1.ListMessagesResponse{
			"": {Messages: []*gmailv1.Message{{Id: "m1"}, {Id: "m2"}}},
		},
		messages: map[string]*gmailv1.Message{
			"m1": {
				Id:      "m1",
				Snippet: "short provider snippet",
				Payload: &gmailv1.MessagePart{
					Headers: []*gmailv1.MessagePartHeader{{Name: "From", Value: "a@example.com"}},
					Parts: []*gmailv1.MessagePart{
						{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: enc("full body text")}},
					},
				},
			},
			"m2": {
				Id: "m2",
				Payload: &gmailv1.MessagePart{
					Headers: []*gmailv1.MessagePartHeader{{Name: "From", Value: "b@example.com"}},
					Parts: []*gmailv1.MessagePart{
						{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: enc("fallback body")}},
					},
				},
			},
		},
	}
	p, _ := newTestPipeline(t, fake)

	msgs, err := p.TodaysMessages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Body != "short provider snippet" {
		t.Errorf("msgs[0].Body = %q, want the snippet", msgs[0].Body)
	}
	if msgs[1].Body != "fallback body" {
		t.Errorf("msgs[1].Body = %q, want the extracted body", msgs[1].Body)
	}
	// Provider listing order is preserved.
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("order = %s, %s", msgs[0].ID, msgs[1].ID)
	}
}

func TestTodaysMessagesPagination(t *testing.T) {
	fake := &fakeGmail{
		pages: map[string]*gmailv1.ListMessagesResponse{
			"":   {Messages: []*gmailv1.Message{{Id: "m1"}}, NextPageToken: "p2"},
			"p2": {Messages: []*gmailv1.Message{{Id: "m2"}}},
		},
		messages: map[string]*gmailv1.Message{
			"m1": {Id: "m1", Snippet: "one"},
			"m2": {Id: "m2", Snippet: "two"},
		},
	}
	p, _ := newTestPipeline(t, fake)

	msgs, err := p.TodaysMessages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if fake.listCalls != 2 {
		t.Errorf("list calls = %d, want 2", fake.listCalls)
	}
}

func TestLocalMidnight(t *testing.T) {
	loc := time.FixedZone("TST", -5*3600)
	in := time.Date(2024, 3, 10, 23, 59, 59, 999_000_000, loc)

	got := localMidnight(in)
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("localMidnight() = %v, want %v", got, want)
	}

	// Already-midnight input is a fixed point.
	if again := localMidnight(got); !again.Equal(want) {
		t.Errorf("localMidnight(midnight) = %v", again)
	}
}
