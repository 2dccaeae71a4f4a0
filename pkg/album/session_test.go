package album

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mitenedl/pkg/errors"
	"mitenedl/pkg/logger"
)

const stubToken = "tok-123abc"

// stubAlbum is a minimal in-memory album provider for session tests
type stubAlbum struct {
	mu        sync.Mutex
	password  string // empty means public
	pages     [][]Item
	pageHits  map[int]int
	downloads int
}

func newStubAlbum(password string, pages [][]Item) *stubAlbum {
	return &stubAlbum{
		password: password,
		pages:    pages,
		pageHits: make(map[int]int),
	}
}

func (s *stubAlbum) authenticated(r *http.Request) bool {
	if s.password == "" {
		return true
	}
	c, err := r.Cookie("album_session")
	return err == nil && c.Value == "ok"
}

func (s *stubAlbum) listingBody(page int) string {
	items := []Item{}
	if page-1 < len(s.pages) {
		items = s.pages[page-1]
	}
	payload, _ := json.Marshal(listingPayload{MediaFiles: items})
	return fmt.Sprintf(`<html><body><script>
//<![CDATA[
window.gon={};gon.media=%s;gon.familyUserIdToColorMap={"1":"#abc"};
//]]>
</script></body></html>`, payload)
}

func (s *stubAlbum) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/f/test", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if !s.authenticated(r) {
			io.WriteString(w, challengePage)
			return
		}

		page := 1
		// The login redirect lands here without a page parameter; only
		// enumeration requests carry one, and only those are counted.
		if q := r.URL.Query().Get("page"); q != "" {
			fmt.Sscanf(q, "%d", &page)
			s.pageHits[page]++
		}
		io.WriteString(w, s.listingBody(page))
	})

	mux.HandleFunc("/f/test/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			io.WriteString(w, challengePage)
			return
		}

		r.ParseForm()
		if r.PostFormValue("authenticity_token") == stubToken &&
			r.PostFormValue("session[password]") == s.password {
			http.SetCookie(w, &http.Cookie{Name: "album_session", Value: "ok", Path: "/"})
			http.Redirect(w, r, "/f/test", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/f/test/login", http.StatusSeeOther)
	})

	mux.HandleFunc("/f/test/media_files/", func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticated(r) {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		s.mu.Lock()
		s.downloads++
		s.mu.Unlock()

		parts := strings.Split(r.URL.Path, "/")
		uuid := parts[len(parts)-2]
		io.WriteString(w, "media-"+uuid)
	})

	return mux
}

func (s *stubAlbum) downloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads
}

func newTestSession(t *testing.T, serverURL, password string) *Session {
	t.Helper()
	session, err := NewSession(serverURL+"/f/test", password, 10*time.Second, logger.NewTestLogger())
	require.NoError(t, err)
	return session
}

func testItem(uuid string) Item {
	return Item{
		UUID:        uuid,
		TookAt:      "2024-05-01T09:30:00",
		ContentType: "image/jpeg",
		ExpiringURL: "https://cdn.example.com/media/" + uuid + ".jpg",
	}
}

func TestSessionPublicAlbumPagination(t *testing.T) {
	stub := newStubAlbum("", [][]Item{
		{testItem("a1"), testItem("a2")},
		{testItem("b1")},
	})
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	session := newTestSession(t, server.URL, "")
	assert.Equal(t, StateAnonymous, session.State())

	items, err := session.AllItems()
	require.NoError(t, err)

	// Union of pages 1..k in page order, terminated by the empty page 3
	require.Len(t, items, 3)
	assert.Equal(t, "a1", items[0].UUID)
	assert.Equal(t, "a2", items[1].UUID)
	assert.Equal(t, "b1", items[2].UUID)

	// Each page fetched exactly once, in increasing order
	assert.Equal(t, 1, stub.pageHits[1])
	assert.Equal(t, 1, stub.pageHits[2])
	assert.Equal(t, 1, stub.pageHits[3])

	assert.Equal(t, StateAuthenticated, session.State())
}

func TestSessionLoginWithCorrectPassword(t *testing.T) {
	stub := newStubAlbum("hunter2", [][]Item{{testItem("a1")}})
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	session := newTestSession(t, server.URL, "hunter2")
	items, err := session.AllItems()
	require.NoError(t, err)

	assert.Len(t, items, 1)
	assert.Equal(t, StateAuthenticated, session.State())

	// Page 1 served once after login; the pre-login hit was the challenge
	assert.Equal(t, 1, stub.pageHits[1])
}

func TestSessionLoginWithWrongPassword(t *testing.T) {
	stub := newStubAlbum("hunter2", [][]Item{{testItem("a1")}})
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	session := newTestSession(t, server.URL, "wrong")
	_, err := session.AllItems()
	require.Error(t, err)

	assert.Equal(t, apperrors.ErrorTypeAuth, apperrors.TypeOf(err))
	assert.Equal(t, StateAuthFailed, session.State())
	assert.Zero(t, stub.downloadCount(), "no download may be issued after a failed login")
}

func TestSessionProtectedAlbumWithoutPassword(t *testing.T) {
	stub := newStubAlbum("hunter2", [][]Item{{testItem("a1")}})
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	session := newTestSession(t, server.URL, "")
	_, err := session.AllItems()
	require.Error(t, err)

	assert.Equal(t, apperrors.ErrorTypeConfiguration, apperrors.TypeOf(err))
	assert.Equal(t, StateAuthFailed, session.State())
}

func TestSessionChallengeWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>Please enter your password</body></html>")
	}))
	defer server.Close()

	session, err := NewSession(server.URL+"/f/test", "hunter2", 10*time.Second, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = session.FetchPage(1)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeProtocol, apperrors.TypeOf(err))
	assert.Equal(t, StateAuthFailed, session.State())
}

func TestSessionUnrecognizedPageFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>something unrelated</body></html>")
	}))
	defer server.Close()

	session, err := NewSession(server.URL+"/f/test", "", 10*time.Second, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = session.FetchPage(1)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeProtocol, apperrors.TypeOf(err))
}

func TestSessionOpenDownload(t *testing.T) {
	stub := newStubAlbum("", [][]Item{{testItem("a1")}})
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	session := newTestSession(t, server.URL, "")

	body, err := session.OpenDownload(testItem("a1"))
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "media-a1", string(data))
	assert.Equal(t, 1, stub.downloadCount())
}

func TestSessionOpenDownloadHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	session, err := NewSession(server.URL+"/f/test", "", 10*time.Second, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = session.OpenDownload(testItem("gone"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeTransport, apperrors.TypeOf(err))

	var typed *apperrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, http.StatusNotFound, typed.Code)
}
