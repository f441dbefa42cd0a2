package main

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/vango-dev/tether/internal/errors"
	"github.com/vango-dev/tether/pkg/reactive"
	"github.com/vango-dev/tether/pkg/wirename"
)

//go:embed web
var webFS embed.FS

// webRoot serves the demo pages at "/".
func webRoot() fs.FS {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	return sub
}

// board is a shared retro board.
type board struct {
	Title     *reactive.Reactive[string] `tether:"board_title"`
	Votes     *reactive.Reactive[int]    `tether:"votes"`
	Closed    *reactive.Reactive[bool]   `tether:"closed"`
	Notes     *reactive.Reactive[string] `tether:"notes"`
	UpdatedBy string                     `tether:"updated_by"`
}

// counter is the smallest useful model.
type counter struct {
	Count reactive.Reactive[int] `tether:"count"`
}

// demoModels constructs the models serve and inspect know by name.
var demoModels = map[string]func() any{
	"board": func() any {
		return &board{
			Title:     reactive.New("Retro " + time.Now().Format("2006-01-02")),
			UpdatedBy: "server",
		}
	},
	"counter": func() any { return &counter{} },
}

func init() {
	wirename.Register(map[string]string{
		"board_title": "board-title",
		"updated_by":  "updated-by",
	})
}

// demoModel returns a fresh model registered under name.
func demoModel(name string) (any, error) {
	fn, ok := demoModels[name]
	if !ok {
		return nil, errors.New("E203").
			WithDetail("No model named " + quote(name)).
			WithSuggestion("Known models: " + strings.Join(modelNames(), ", "))
	}
	return fn(), nil
}

func modelNames() []string {
	names := make([]string, 0, len(demoModels))
	for name := range demoModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func quote(s string) string {
	return `"` + s + `"`
}
