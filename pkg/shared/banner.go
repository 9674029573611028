package shared

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

// DefaultBanner is shown when no banner file is configured.
const DefaultBanner = `{{center "RETROBASIC" .Width}}
{{center "INTEGER AND FLOAT BASIC" .Width}}
{{if .Username}}WELCOME, {{upper .Username}}{{else}}GUEST SESSION - PROGRAMS ARE NOT KEPT{{end}}
`

// BannerData contains all variables that can be used in banner templates
type BannerData struct {
	Username  string
	SessionID string
	Width     int
	Timestamp string
}

// BannerManager renders the greeting of a session.
type BannerManager struct {
	tmpl *template.Template
}

var bannerFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"center": func(s string, width int) string {
		if pad := (width - len(s)) / 2; pad > 0 {
			return strings.Repeat(" ", pad) + s
		}
		return s
	},
}

// NewBannerManager loads the template from path. An empty path uses
// DefaultBanner.
func NewBannerManager(path string) (*BannerManager, error) {
	text := DefaultBanner
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load banner from %s: %w", path, err)
		}
		text = string(content)
	}
	tmpl, err := template.New("banner").Funcs(bannerFuncs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse banner template: %w", err)
	}
	return &BannerManager{tmpl: tmpl}, nil
}

// Render fills the template. Width defaults to 40 columns.
func (bm *BannerManager) Render(data BannerData) (string, error) {
	if data.Width <= 0 {
		data.Width = 40
	}
	if data.Timestamp == "" {
		data.Timestamp = time.Now().Format("2006-01-02 15:04")
	}
	var buf bytes.Buffer
	if err := bm.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute banner template: %w", err)
	}
	return buf.String(), nil
}
