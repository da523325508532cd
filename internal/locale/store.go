// Package locale holds the console translation tables and the active language.
package locale

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v2"
)

//go:embed locales/*.yaml
var resources embed.FS

// Keys read by code rather than only by the page template
const (
	KeyNoRisks            = "noRisks"
	KeyAnalysisFailed     = "analysisFailed"
	KeyIntegrationsFailed = "integrationsFailed"
	KeyMonth              = "month"
)

var (
	// ErrUnsupportedLanguage is returned when a language has no table
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrKeySetMismatch is returned when tables do not define identical keys
	ErrKeySetMismatch = errors.New("locale key sets differ")
)

// Table maps a translation key to its text in one language
type Table map[string]string

// Translator resolves keys for a single language
type Translator interface {
	Lookup(key string) string
	Sprintf(key string, args ...any) string
	Tag() language.Tag
	Language() string
}

// Store holds every loaded table and the active language. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
	active   string
}

// New loads the embedded tables and activates defaultLang
func New(defaultLang string) (*Store, error) {
	tables, err := LoadEmbedded()
	if err != nil {
		return nil, err
	}
	return NewFromTables(tables, defaultLang)
}

// NewFromTables builds a store from in-memory tables. Every table must define the same keys.
func NewFromTables(tables map[string]Table, defaultLang string) (*Store, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("locale: no tables loaded")
	}
	if err := CheckKeySets(tables); err != nil {
		return nil, err
	}

	s := &Store{catalogs: make(map[string]*Catalog, len(tables))}
	for code, table := range tables {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("locale: %s: %w", code, err)
		}
		s.catalogs[code] = &Catalog{code: code, tag: tag, table: table}
	}

	if _, ok := s.catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, defaultLang)
	}
	s.active = defaultLang

	return s, nil
}

// LoadEmbedded parses every YAML table shipped with the binary, keyed by language code
func LoadEmbedded() (map[string]Table, error) {
	entries, err := resources.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("locale: read resources: %w", err)
	}

	tables := make(map[string]Table, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		data, err := resources.ReadFile(path.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("locale: read %s: %w", name, err)
		}
		var table Table
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("locale: parse %s: %w", name, err)
		}
		tables[strings.TrimSuffix(name, ".yaml")] = table
	}

	return tables, nil
}

// CheckKeySets reports every key that is missing from some table
func CheckKeySets(tables map[string]Table) error {
	all := make(map[string]struct{})
	for _, table := range tables {
		for key := range table {
			all[key] = struct{}{}
		}
	}

	var problems []string
	for _, code := range sortedCodes(tables) {
		var missing []string
		for key := range all {
			if _, ok := tables[code][key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			problems = append(problems, fmt.Sprintf("%s missing %s", code, strings.Join(missing, ", ")))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrKeySetMismatch, strings.Join(problems, "; "))
	}
	return nil
}

// SetLanguage switches the active language. Unknown codes leave the store unchanged.
func (s *Store) SetLanguage(code string) error {
	code = strings.ToLower(strings.TrimSpace(code))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalogs[code]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	s.active = code
	return nil
}

// Language returns the active language code
func (s *Store) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Languages returns the supported language codes in sorted order
func (s *Store) Languages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]string, 0, len(s.catalogs))
	for code := range s.catalogs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Active returns the catalog of the active language. A render should use one
// catalog throughout so a concurrent switch cannot mix languages.
func (s *Store) Active() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogs[s.active]
}

// Lookup returns the text for key in the active language
func (s *Store) Lookup(key string) string {
	return s.Active().Lookup(key)
}

// Sprintf formats the text for key in the active language
func (s *Store) Sprintf(key string, args ...any) string {
	return s.Active().Sprintf(key, args...)
}

// Tag returns the language tag of the active language
func (s *Store) Tag() language.Tag {
	return s.Active().Tag()
}

// Catalog is one immutable language table
type Catalog struct {
	code  string
	tag   language.Tag
	table Table
}

// Lookup returns the text for key, or "" when the key is not defined
func (c *Catalog) Lookup(key string) string {
	return c.table[key]
}

// Sprintf formats the text for key with locale-aware number rendering
func (c *Catalog) Sprintf(key string, args ...any) string {
	return message.NewPrinter(c.tag).Sprintf(c.table[key], args...)
}

// Tag returns the catalog's language tag
func (c *Catalog) Tag() language.Tag {
	return c.tag
}

// Language returns the catalog's language code
func (c *Catalog) Language() string {
	return c.code
}

func sortedCodes(tables map[string]Table) []string {
	codes := make([]string, 0, len(tables))
	for code := range tables {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
