package controller

import (
	"fmt"
	"strings"

	"github.com/zach-source/bwrofi/internal/vault"
)

const (
	fieldSep = ": "
	listSep  = ","
	noneText = "None"
)

// Field is a displayable item attribute addressed by a dotted path such
// as "login.username". List fields (login.uris.uri) yield one value per
// element.
type Field struct {
	path string
	list bool
	// get returns the values and false when the attribute is absent.
	get func(vault.Item) ([]string, bool)
}

func (f Field) String() string { return f.path }

func scalar(fn func(vault.Item) (string, bool)) func(vault.Item) ([]string, bool) {
	return func(it vault.Item) ([]string, bool) {
		v, ok := fn(it)
		if !ok || v == "" {
			return nil, false
		}
		return []string{v}, true
	}
}

var fields = map[string]Field{
	"id":   {path: "id", get: scalar(func(it vault.Item) (string, bool) { return it.ID, true })},
	"name": {path: "name", get: scalar(func(it vault.Item) (string, bool) { return it.Name, true })},
	"notes": {path: "notes", get: scalar(func(it vault.Item) (string, bool) {
		return it.Notes, true
	})},
	"folderId": {path: "folderId", get: scalar(func(it vault.Item) (string, bool) {
		if it.FolderID == nil {
			return "", false
		}
		return *it.FolderID, true
	})},
	"login.username": {path: "login.username", get: scalar(func(it vault.Item) (string, bool) {
		if it.Login == nil {
			return "", false
		}
		return it.Login.Username, true
	})},
	"login.uris.uri": {path: "login.uris.uri", list: true, get: func(it vault.Item) ([]string, bool) {
		if it.Login == nil || it.Login.URIs == nil {
			return nil, false
		}
		out := make([]string, len(it.Login.URIs))
		for i, u := range it.Login.URIs {
			out[i] = u.URI
		}
		return out, true
	}},
}

// ParseField looks up a displayable field by path. Secret fields
// (passwords, TOTP seeds) are not displayable.
func ParseField(path string) (Field, error) {
	f, ok := fields[strings.TrimSpace(path)]
	if !ok {
		return Field{}, fmt.Errorf("unknown item field %q", path)
	}
	return f, nil
}

// ParseFields parses every path.
func ParseFields(paths []string) ([]Field, error) {
	out := make([]Field, 0, len(paths))
	for _, p := range paths {
		f, err := ParseField(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func mustFields(paths ...string) []Field {
	out, err := ParseFields(paths)
	if err != nil {
		panic(err)
	}
	return out
}

// Projection renders items as menu text.
type Projection struct {
	Fields []Field
	Ignore map[string]struct{}
}

// NewProjection builds a projection over fields skipping ignored values.
func NewProjection(fields []Field, ignore []string) Projection {
	p := Projection{Fields: fields}
	if ignore != nil {
		p.Ignore = make(map[string]struct{}, len(ignore))
		for _, v := range ignore {
			p.Ignore[v] = struct{}{}
		}
	}
	return p
}

func (p Projection) ignored(v string) bool {
	if p.Ignore == nil {
		return false
	}
	_, ok := p.Ignore[v]
	return ok
}

// Render joins the field values of it. Absent attributes render as
// "None". An ignored scalar drops its field; ignored list elements are
// dropped from the list. It returns false when nothing is left.
func (p Projection) Render(it vault.Item) (string, bool) {
	var parts []string
	for _, f := range p.Fields {
		vals, ok := f.get(it)
		if !ok || !f.list {
			v := noneText
			if ok {
				v = vals[0]
			}
			if p.ignored(strings.TrimSpace(v)) {
				continue
			}
			parts = append(parts, v)
			continue
		}

		var kept []string
		for _, v := range vals {
			if !p.ignored(v) {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			parts = append(parts, strings.Join(kept, listSep))
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, fieldSep), true
}
