package view

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/obsidianstack/showroom/pkg/types"
	"github.com/obsidianstack/showroom/viewer/internal/config"
)

// Layout names the title, currency symbol and the record paths shown in
// each column.
type Layout struct {
	Title    string
	Currency string

	Key      string
	Name     string
	Category string
	Value    string
}

// LayoutFrom builds a Layout from the view section of the config.
func LayoutFrom(vc config.ViewConfig) Layout {
	return Layout{
		Title:    vc.Title,
		Currency: vc.Currency,
		Key:      vc.Fields.Key,
		Name:     vc.Fields.Name,
		Category: vc.Fields.Category,
		Value:    vc.Fields.Value,
	}
}

// DefaultLayout matches the default config: id, model, make, price in dollars.
func DefaultLayout() Layout {
	return LayoutFrom(config.Default().Viewer.View)
}

// Row is one displayed record.
type Row struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Value    string `json:"value"`
}

// Rows projects c into rows, one per record, in order.
func Rows(c types.Collection, l Layout) []Row {
	rows := make([]Row, len(c))
	for i, r := range c {
		rows[i] = Row{
			Key:      r.KeyAt(l.Key),
			Name:     text(r.Get(l.Name)),
			Category: text(r.Get(l.Category)),
			Value:    l.Currency + text(r.Get(l.Value)),
		}
	}
	return rows
}

// text renders a JSON value the way it reads on screen: strings unquoted,
// numbers in shortest form, missing values empty.
func text(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.Number:
		if !strings.ContainsAny(v.Raw, ".eE") {
			return v.Raw
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return v.Raw
	}
}

// Snapshot is the JSON payload of the current rows.
type Snapshot struct {
	Title       string `json:"title"`
	Count       int    `json:"count"`
	Rows        []Row  `json:"rows"`
	GeneratedAt string `json:"generated_at"` // RFC3339
}

// BuildSnapshot projects c and stamps it with now.
func BuildSnapshot(c types.Collection, l Layout, now time.Time) Snapshot {
	rows := Rows(c, l)
	return Snapshot{
		Title:       l.Title,
		Count:       len(rows),
		Rows:        rows,
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
}
