package templates

// SiteName is appended to every page title.
const SiteName = "Portfolio Demos"

// CardView is one tile of the demo catalog.
type CardView struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	DetailURL   string
}

// DemoListPageData bundles template data for the paginated catalog.
type DemoListPageData struct {
	Title       string
	Cards       []CardView
	Page        int
	NumPages    int
	PreviousURL string
	NextURL     string
}

// TOCEntry is one heading link in a demo page's table of contents.
type TOCEntry struct {
	Level int
	ID    string
	Text  string
}

// DemoPageData contains the dynamic values for a generic demo page.
type DemoPageData struct {
	Title           string
	MetaDescription string
	MetaKeywords    string
	Heading         string
	HTML            string
	TOC             []TOCEntry
	SourceURL       string
}

// SentimentPageData holds the form state of the sentiment demo.
type SentimentPageData struct {
	Available    bool
	Text         string
	Label        string
	ScorePercent string
	ErrorMessage string
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	Title       string
	StatusLabel string
	Message     string
}
