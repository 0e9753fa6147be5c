package generator

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// GeneratedSite is the assembled artifact stored on a preview.
type GeneratedSite struct {
	Title string
	HTML  string
	CSS   string
	JS    string
}

type templateData struct {
	Content *SiteContent
	Images  []StockPhoto
}

var siteTemplate = template.Must(template.New("site").Funcs(template.FuncMap{
	"oddIndex": func(i int) bool { return i%2 == 1 },
	"imageFor": func(data templateData, i int) *StockPhoto {
		if i < len(data.Images) {
			return &data.Images[i]
		}
		return nil
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Content.Title}}</title>
<link rel="stylesheet" href="style.css">
</head>
<body>
<header class="hero">
<h1>{{.Content.Title}}</h1>
{{if .Content.Tagline}}<p class="tagline">{{.Content.Tagline}}</p>{{end}}
</header>
<main>
{{range $i, $section := .Content.Sections}}
<section class="content-section{{if oddIndex $i}} alt{{end}}">
<h2>{{$section.Heading}}</h2>
<p>{{$section.Body}}</p>
{{with imageFor $ $i}}<img src="{{.MediumURL}}" alt="{{.Alt}}" loading="lazy">{{end}}
</section>
{{end}}
</main>
<footer>
<p>&copy; {{.Content.Title}}</p>
</footer>
<script src="app.js"></script>
</body>
</html>
`))

// AssembleSite renders content and images into the final HTML/CSS/JS triple.
func AssembleSite(content *SiteContent, images []StockPhoto) (*GeneratedSite, error) {
	var buf bytes.Buffer
	if err := siteTemplate.Execute(&buf, templateData{Content: content, Images: images}); err != nil {
		return nil, fmt.Errorf("failed to render site template: %w", err)
	}

	return &GeneratedSite{
		Title: content.Title,
		HTML:  buf.String(),
		CSS:   buildStylesheet(content.Palette),
		JS:    defaultScript,
	}, nil
}

func buildStylesheet(p Palette) string {
	var b strings.Builder
	b.WriteString(":root {\n")
	fmt.Fprintf(&b, "  --color-primary: %s;\n", p.Primary)
	fmt.Fprintf(&b, "  --color-background: %s;\n", p.Background)
	fmt.Fprintf(&b, "  --color-text: %s;\n", p.Text)
	fmt.Fprintf(&b, "  --color-accent: %s;\n", p.Accent)
	b.WriteString("}\n")
	b.WriteString(baseStylesheet)
	return b.String()
}

const baseStylesheet = `
* { box-sizing: border-box; margin: 0; padding: 0; }
body {
  font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
  background: var(--color-background);
  color: var(--color-text);
  line-height: 1.6;
}
.hero {
  background: var(--color-primary);
  color: #fff;
  padding: 5rem 1.5rem;
  text-align: center;
}
.hero .tagline { margin-top: 0.75rem; font-size: 1.25rem; opacity: 0.9; }
.content-section { max-width: 820px; margin: 0 auto; padding: 3rem 1.5rem; }
.content-section.alt { background: color-mix(in srgb, var(--color-primary) 6%, var(--color-background)); }
.content-section h2 { color: var(--color-primary); margin-bottom: 1rem; }
.content-section img { width: 100%; border-radius: 8px; margin-top: 1.5rem; }
footer { padding: 2rem 1.5rem; text-align: center; border-top: 2px solid var(--color-accent); }
`

const defaultScript = `document.addEventListener('DOMContentLoaded', function () {
  var sections = document.querySelectorAll('.content-section');
  if (!('IntersectionObserver' in window)) return;
  var observer = new IntersectionObserver(function (entries) {
    entries.forEach(function (entry) {
      if (entry.isIntersecting) entry.target.classList.add('visible');
    });
  }, { threshold: 0.15 });
  sections.forEach(function (s) { observer.observe(s); });
});
`
