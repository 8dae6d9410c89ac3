// Package display renders an item's rating as the HTML fragment returned by
// the AJAX rate endpoint.
package display

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"ratings/internal/microservices/http-api/models"
)

type Style string

const (
	StylePercentage     Style = "percentage"
	StyleOutOfFive      Style = "outoffive"
	StyleOutOfFiveStars Style = "outoffivestars"
	StyleOutOfTen       Style = "outoften"
	StyleOutOfTenStars  Style = "outoftenstars"
)

// ParseStyle accepts a style name case-insensitively.
func ParseStyle(s string) (Style, error) {
	style := Style(strings.ToLower(strings.TrimSpace(s)))
	if !style.Valid() {
		return "", fmt.Errorf("unknown rating style %q", s)
	}
	return style, nil
}

func (s Style) Valid() bool {
	switch s {
	case StylePercentage, StyleOutOfFive, StyleOutOfFiveStars, StyleOutOfTen, StyleOutOfTenStars:
		return true
	}
	return false
}

// Scale is the maximum score the style displays.
func (s Style) Scale() int {
	switch s {
	case StyleOutOfFive, StyleOutOfFiveStars:
		return 5
	case StyleOutOfTen, StyleOutOfTenStars:
		return 10
	}
	return 100
}

func (s Style) stars() bool {
	return s == StyleOutOfFiveStars || s == StyleOutOfTenStars
}

// Score formats a 0-100 average in the style's scale.
func Score(style Style, average int) string {
	switch style {
	case StylePercentage:
		return strconv.Itoa(average) + "%"
	default:
		return strconv.FormatFloat(float64(average)*float64(style.Scale())/100, 'f', 1, 64)
	}
}

// FilledStars is the number of filled stars out of style.Scale().
func FilledStars(style Style, average int) int {
	return int(math.Round(float64(average) * float64(style.Scale()) / 100))
}

type view struct {
	Style     Style
	Module    string
	ItemID    string
	Rated     bool
	Score     string
	Scale     int
	Count     int
	Stars     []bool
	ReturnURL string
}

var fragment = template.Must(template.New("rating").Parse(
	`<div class="ratings ratings-{{.Style}}" data-module="{{.Module}}" data-item="{{.ItemID}}">` +
		`{{if .Rated}}` +
		`{{if .Stars}}<span class="ratings-stars">{{range .Stars}}{{if .}}&#9733;{{else}}&#9734;{{end}}{{end}}</span> {{end}}` +
		`<span class="ratings-score">{{.Score}}{{if ne .Scale 100}} / {{.Scale}}{{end}}</span> ` +
		`<span class="ratings-count">({{.Count}} {{if eq .Count 1}}vote{{else}}votes{{end}})</span>` +
		`{{else}}<span class="ratings-none">not rated yet</span>{{end}}` +
		`{{if .ReturnURL}} <a class="ratings-return" href="{{.ReturnURL}}">back</a>{{end}}` +
		`</div>`))

// Render returns the display fragment for key. rating may be nil when the
// item has no votes yet.
func Render(style Style, key models.ItemKey, rating *models.Rating, returnURL string) (template.HTML, error) {
	if !style.Valid() {
		return "", fmt.Errorf("unknown rating style %q", style)
	}

	v := view{
		Style:     style,
		Module:    key.Module,
		ItemID:    key.ItemID,
		Scale:     style.Scale(),
		ReturnURL: returnURL,
	}
	if rating != nil && rating.Count > 0 {
		v.Rated = true
		v.Score = Score(style, rating.Average)
		v.Count = rating.Count
		if style.stars() {
			filled := FilledStars(style, rating.Average)
			v.Stars = make([]bool, style.Scale())
			for i := range v.Stars {
				v.Stars[i] = i < filled
			}
		}
	}

	var buf bytes.Buffer
	if err := fragment.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render rating: %w", err)
	}
	return template.HTML(buf.String()), nil
}
