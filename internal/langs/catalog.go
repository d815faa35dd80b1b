// Package langs holds the catalog of languages a query can be translated to.
package langs

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed languages.toml
var languagesTOML []byte

// Language is one selectable search language.
type Language struct {
	Code    string `toml:"code" json:"code"`
	Name    string `toml:"name" json:"name"`
	Service string `toml:"service,omitempty" json:"service,omitempty"`
}

// ServiceCode is the code the translation service expects.
func (l Language) ServiceCode() string {
	if l.Service != "" {
		return l.Service
	}
	return l.Code
}

type catalogFile struct {
	Languages []Language `toml:"language"`
}

// Catalog is an ordered set of languages.
type Catalog struct {
	languages []Language
	byCode    map[string]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := parse(languagesTOML)
	if err != nil {
		panic(fmt.Sprintf("langs: embedded languages.toml: %v", err))
	}
	return c
}

// Load returns the built-in catalog merged with the file at path. Entries in
// the file override built-in ones with the same code; new codes are
// appended. A missing file is not an error.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	user, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, l := range user.languages {
		c.add(l)
	}
	return c, nil
}

func parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := &Catalog{byCode: make(map[string]int, len(f.Languages))}
	for _, l := range f.Languages {
		if strings.TrimSpace(l.Code) == "" {
			return nil, fmt.Errorf("language %q has no code", l.Name)
		}
		c.add(l)
	}
	return c, nil
}

func (c *Catalog) add(l Language) {
	l.Code = strings.ToLower(strings.TrimSpace(l.Code))
	if l.Name == "" {
		l.Name = l.Code
	}
	if i, ok := c.byCode[l.Code]; ok {
		c.languages[i] = l
		return
	}
	c.byCode[l.Code] = len(c.languages)
	c.languages = append(c.languages, l)
}

// All returns the languages in display order.
func (c *Catalog) All() []Language {
	return append([]Language(nil), c.languages...)
}

// Lookup finds a language by code.
func (c *Catalog) Lookup(code string) (Language, bool) {
	i, ok := c.byCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Language{}, false
	}
	return c.languages[i], true
}

// ServiceCode maps code to the translation service's code. Unknown codes
// pass through unchanged.
func (c *Catalog) ServiceCode(code string) string {
	if l, ok := c.Lookup(code); ok {
		return l.ServiceCode()
	}
	return code
}

// Filter keeps the known codes of codes, in catalog order, without
// duplicates.
func (c *Catalog) Filter(codes []string) []string {
	want := make(map[string]bool, len(codes))
	for _, code := range codes {
		want[strings.ToLower(strings.TrimSpace(code))] = true
	}
	out := []string{}
	for _, l := range c.languages {
		if want[l.Code] {
			out = append(out, l.Code)
		}
	}
	return out
}
