package pdf

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/money"
)

//go:embed templates/*.html
var templateFS embed.FS

var contractTmpl = template.Must(template.New("contract.html").Funcs(template.FuncMap{
	"money": money.Exact,
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	// Signature images are data URLs produced by the signing pad.
	"imgsrc": func(s string) template.URL { return template.URL(s) },
}).ParseFS(templateFS, "templates/contract.html"))

type signatureLine struct {
	Label string
	Sig   *domain.Signature
}

type categoryLine struct {
	Category domain.LineCategory
	Total    float64
}

type contractView struct {
	Company    string
	C          *domain.Contract
	Categories []categoryLine
	Signatures []signatureLine
}

// RenderContractHTML renders the printable contract document.
func RenderContractHTML(c *domain.Contract) ([]byte, error) {
	totals := domain.CategoryTotals(c)
	view := contractView{Company: domain.CompanyName, C: c}
	for _, cat := range domain.LineCategories {
		if totals[cat] != 0 {
			view.Categories = append(view.Categories, categoryLine{Category: cat, Total: totals[cat]})
		}
	}
	view.Signatures = []signatureLine{
		{"Company Representative", c.Signatures.Company},
		{"Customer", c.Signatures.Customer1},
	}
	for i, s := range []*domain.Signature{c.Signatures.Customer2, c.Signatures.Customer3, c.Signatures.Customer4} {
		if s != nil {
			view.Signatures = append(view.Signatures, signatureLine{Label: "Customer " + string(rune('2'+i)), Sig: s})
		}
	}

	var buf bytes.Buffer
	if err := contractTmpl.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
