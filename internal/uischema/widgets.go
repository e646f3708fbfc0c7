package uischema

import (
	"fmt"
	"time"
)

// RenderFunc transforms a raw property value for display.
type RenderFunc func(value any, args map[string]any) (any, error)

// widgets is the rendering transform registry. Renderings reference
// entries by name.
var widgets = map[string]RenderFunc{
	"date": renderDate,
}

// RegisterWidget adds a rendering transform under the given name,
// replacing any existing one.
func RegisterWidget(name string, fn RenderFunc) {
	widgets[name] = fn
}

// HasWidget reports whether a rendering transform is registered.
func HasWidget(name string) bool {
	_, ok := widgets[name]
	return ok
}

// Render applies the named rendering transform to a value.
func Render(name string, value any, args map[string]any) (any, error) {
	fn, ok := widgets[name]
	if !ok {
		return nil, fmt.Errorf("unknown rendering widget %q", name)
	}
	return fn(value, args)
}

// dateInputLayouts are the accepted raw date forms, tried in order.
var dateInputLayouts = []string{
	"2006-01-02",
	time.RFC3339,
}

// renderDate reformats an ISO date string. The output layout comes from
// the "format" arg (Go reference layout), defaulting to day/month/year.
func renderDate(value any, args map[string]any) (any, error) {
	raw, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("date widget expects a string, got %T", value)
	}

	layout := "02/01/2006"
	if f, ok := args["format"].(string); ok && f != "" {
		layout = f
	}

	for _, in := range dateInputLayouts {
		if t, err := time.Parse(in, raw); err == nil {
			return t.Format(layout), nil
		}
	}
	return nil, fmt.Errorf("unparseable date %q", raw)
}
