package render

import (
	"embed"
	"fmt"
	"html"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"anon-bbs/internal/domain"
)

//go:embed templates/bbs.html
var templateFS embed.FS

// TimestampLayout is the display format of post times.
const TimestampLayout = "2006-01-02 15:04:05"

// Renderer turns board state into a full page or a JSON fragment.
type Renderer struct {
	page     *template.Template
	location *time.Location
}

// New parses templatePath, or the embedded page when it is empty.
// Post times are shown at the fixed offset utcOffsetHours.
func New(templatePath string, utcOffsetHours int) (*Renderer, error) {
	var raw []byte
	var err error
	if strings.TrimSpace(templatePath) == "" {
		raw, err = templateFS.ReadFile("templates/bbs.html")
	} else {
		raw, err = os.ReadFile(templatePath)
	}
	if err != nil {
		return nil, fmt.Errorf("read page template: %w", err)
	}

	page, err := template.New("bbs").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	name := fmt.Sprintf("UTC%+d", utcOffsetHours)
	return &Renderer{
		page:     page,
		location: time.FixedZone(name, utcOffsetHours*60*60),
	}, nil
}

// PageData fills the page placeholders. Strings are escaped by the template.
type PageData struct {
	Topic         string
	SavedUsername string
	SavedSeed     string
	RememberMe    bool
	Posts         []PostView
}

// PostView is one numbered, display-ready post.
type PostView struct {
	No        int
	Username  string
	UserID    string
	Message   template.HTML
	CreatedAt string
}

// Page writes the full HTML document for board.
func (r *Renderer) Page(w io.Writer, board domain.Board, savedUsername, savedSeed string, rememberMe bool) error {
	data := PageData{
		Topic:         board.Topic,
		SavedUsername: savedUsername,
		SavedSeed:     savedSeed,
		RememberMe:    rememberMe,
		Posts:         r.PostViews(board.Posts),
	}
	if err := r.page.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// PostViews numbers posts from len(posts) down to 1; posts must be newest-first.
func (r *Renderer) PostViews(posts []domain.Post) []PostView {
	views := make([]PostView, len(posts))
	for i, post := range posts {
		views[i] = PostView{
			No:        len(posts) - i,
			Username:  post.Username,
			UserID:    post.UserID,
			Message:   MessageHTML(post.Message),
			CreatedAt: r.FormatTimestamp(post.CreatedAt),
		}
	}
	return views
}

// FormatTimestamp converts t to the display timezone. An unknown time renders empty.
func (r *Renderer) FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(r.location).Format(TimestampLayout)
}

var lineBreaks = strings.NewReplacer("\r\n", "<br>", "\n", "<br>", "\r", "<br>")

// MessageHTML escapes message and turns its line breaks into <br> tags.
func MessageHTML(message string) template.HTML {
	return template.HTML(lineBreaks.Replace(html.EscapeString(message)))
}

// Fragment is the JSON body returned to script-driven submissions.
// Values are raw; the client escapes them when redrawing.
type Fragment struct {
	Posts    []domain.Post `json:"posts"`
	Topic    string        `json:"topic"`
	Username string        `json:"username"`
	Seed     string        `json:"seed"`
}

func NewFragment(board domain.Board, username, seed string) Fragment {
	posts := board.Posts
	if posts == nil {
		posts = []domain.Post{}
	}
	return Fragment{
		Posts:    posts,
		Topic:    board.Topic,
		Username: username,
		Seed:     seed,
	}
}
