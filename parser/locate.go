package parser

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// moduleButtonID — id кнопки модуля на странице после входа.
const moduleButtonID = "9"

// locator — один способ найти элемент на странице.
type locator struct {
	name string
	find func(doc *goquery.Document) *goquery.Selection
}

// locate пробует стратегии по порядку, побеждает первая сработавшая.
func locate(doc *goquery.Document, strategies []locator) (*goquery.Selection, string, bool) {
	for _, l := range strategies {
		if s := l.find(doc); s != nil && s.Length() > 0 {
			return s.First(), l.name, true
		}
	}
	return nil, "", false
}

func moduleLocators(module string) []locator {
	return []locator{
		{
			name: "id+text",
			find: func(doc *goquery.Document) *goquery.Selection {
				return withText(doc.Find(fmt.Sprintf("button[id='%s']", moduleButtonID)), module)
			},
		},
		{
			name: "class+text",
			find: func(doc *goquery.Document) *goquery.Selection {
				return withText(doc.Find("button.listaModulos"), module)
			},
		},
		{
			name: "id",
			find: func(doc *goquery.Document) *goquery.Selection {
				return doc.Find(fmt.Sprintf("[id='%s']", moduleButtonID))
			},
		},
	}
}

func withText(s *goquery.Selection, text string) *goquery.Selection {
	return s.FilterFunction(func(i int, el *goquery.Selection) bool {
		return strings.Contains(cleanText(el.Text()), text)
	})
}

// buttonTarget определяет, куда ведёт кнопка: data-url, href, formaction
// или отправка формы, в которой она лежит.
func buttonTarget(button *goquery.Selection, base *url.URL) (string, string, url.Values, error) {
	for _, attr := range []string{"data-url", "href", "formaction"} {
		if ref := attrOr(button, attr, ""); ref != "" {
			target, err := resolve(base, ref)
			if err != nil {
				return "", "", nil, err
			}
			return http.MethodGet, target, nil, nil
		}
	}

	form := button.Closest("form")
	if form.Length() == 0 {
		return "", "", nil, fmt.Errorf("%w: button has no target", ErrModuleNotFound)
	}
	target, err := resolve(base, attrOr(form, "action", ""))
	if err != nil {
		return "", "", nil, err
	}
	values := hiddenInputs(form)
	if name := attrOr(button, "name", ""); name != "" {
		values.Set(name, attrOr(button, "value", ""))
	}
	if strings.EqualFold(attrOr(form, "method", "get"), "post") {
		return http.MethodPost, target, values, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", "", nil, err
	}
	u.RawQuery = values.Encode()
	return http.MethodGet, u.String(), nil, nil
}
