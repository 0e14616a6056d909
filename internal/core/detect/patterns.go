// internal/core/detect/patterns.go
package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"trustscan/internal/core/domain"
)

// maxMatchedLength longitud máxima del fragmento reportado.
const maxMatchedLength = 100

// AnalyzePatterns aplica la tabla de reglas sobre texto plano.
// Deduplica por categoría+severidad (gana la primera regla) y ordena
// por severidad, critical primero.
func AnalyzePatterns(text string) domain.PatternsData {
	return analyzeWith(patternRules, text)
}

func analyzeWith(rules []Rule, text string) domain.PatternsData {
	seen := make(map[string]struct{})
	matches := []domain.PatternMatch{}

	for _, r := range rules {
		matched, ok := r.fires(text)
		if !ok {
			continue
		}

		key := string(r.Category) + "-" + string(r.Severity)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		matches = append(matches, domain.PatternMatch{
			Pattern:     r.Source,
			Category:    r.Category,
			Severity:    r.Severity,
			Description: r.Description,
			Matched:     truncate(matched, maxMatchedLength),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Severity.Rank() < matches[j].Severity.Rank()
	})

	return domain.PatternsData{Matches: matches}
}

// CheckPatterns convierte el HTML a texto y ejecuta AnalyzePatterns.
// Los fallos de preprocesado se devuelven en el campo Error.
func CheckPatterns(rawHTML string) domain.PatternsData {
	text, err := HTMLToText(rawHTML)
	if err != nil {
		return domain.PatternsData{Matches: []domain.PatternMatch{}, Error: err.Error()}
	}
	return AnalyzePatterns(text)
}

// HTMLToText elimina bloques script/style, reemplaza etiquetas por
// espacios y colapsa espacios en blanco.
func HTMLToText(rawHTML string) (string, error) {
	// Sin scripting el contenido de <noscript> se parsea como elementos
	// y sus atributos (píxeles de seguimiento) no llegan al texto.
	root, err := html.ParseWithOptions(strings.NewReader(rawHTML), html.ParseOptionEnableScripting(false))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	doc.Find("script, style").Remove()

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}

// truncate recorta s a max runas añadiendo "..." si fue necesario.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
