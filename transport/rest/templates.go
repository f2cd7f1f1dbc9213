package rest

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageTemplate struct {
	tpl *template.Template
}

func loadPageTemplate() *pageTemplate {
	return &pageTemplate{
		tpl: template.Must(template.ParseFS(templateFS, "templates/game.html")),
	}
}

func (that *pageTemplate) render(view entity.View) ([]byte, error) {
	var buf bytes.Buffer

	if err := that.tpl.ExecuteTemplate(&buf, "game.html", view); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.Bytes(), nil
}
