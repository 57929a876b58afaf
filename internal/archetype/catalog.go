// Package archetype maps personality codes to named archetypes and their
// long-form report text.
package archetype

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
	"github.com/mind-engage/mindengage-bigfive/internal/storage"
)

const (
	TextKey = "archetypes.txt"

	UnknownName   = "Unknown Archetype"
	MissingDetail = "Detailed report not found."
)

// Name overrides are read from the first of these that exists and is non-empty.
var overrideKeys = []string{"archetypes.yaml", "archetypes.json"}

var fallbackNames = map[quiz.Code]string{"Low-Low-Low-Low-Low": "Aquashine"}

var (
	headerRe = regexp.MustCompile(`(?i)openness\s*[:\-–—]?\s*(low|medium|high).*?` +
		`conscientiousness\s*[:\-–—]?\s*(low|medium|high).*?` +
		`extraversion\s*[:\-–—]?\s*(low|medium|high).*?` +
		`agreeableness\s*[:\-–—]?\s*(low|medium|high).*?` +
		`neuroticism\s*[:\-–—]?\s*(low|medium|high)`)
	nameRe = regexp.MustCompile(`(?i)^archetype\s*[:\-–—]?\s*(.+?)\s*$`)
)

type Entry struct {
	Code   quiz.Code `json:"code"`
	Name   string    `json:"name"`
	Detail string    `json:"detail"`
}

type Catalog struct {
	names        map[quiz.Code]string
	detailByCode map[quiz.Code]string
	detailByName map[string]string
}

func newCatalog() *Catalog {
	return &Catalog{
		names:        map[quiz.Code]string{},
		detailByCode: map[quiz.Code]string{},
		detailByName: map[string]string{},
	}
}

// Lookup never fails; unknown codes get placeholder name and text.
func (c *Catalog) Lookup(code quiz.Code) Entry {
	e := Entry{Code: code, Name: c.names[code], Detail: c.detailByCode[code]}
	if e.Detail == "" && e.Name != "" {
		e.Detail = c.detailByName[e.Name]
	}
	if e.Detail == "" {
		e.Detail = MissingDetail
	}
	if e.Name == "" {
		e.Name = UnknownName
	}
	return e
}

func (c *Catalog) Len() int { return len(c.names) }

// Missing lists the codes, out of all 243, that have no named archetype.
func (c *Catalog) Missing() []quiz.Code {
	var out []quiz.Code
	for _, code := range quiz.AllCodes() {
		if _, ok := c.names[code]; !ok {
			out = append(out, code)
		}
	}
	return out
}

// Load builds the catalog from the text export and name overrides in bs.
// Missing sources are not an error; an empty result falls back to a
// minimal built-in mapping.
func Load(bs storage.BlobStore, log *zap.Logger) (*Catalog, error) {
	c := newCatalog()

	rc, err := bs.Get(TextKey)
	switch {
	case err == nil:
		perr := c.parseText(rc)
		rc.Close()
		if perr != nil {
			return nil, fmt.Errorf("parse %s: %w", TextKey, perr)
		}
		log.Info("archetypes loaded", zap.String("source", TextKey), zap.Int("count", len(c.detailByCode)))
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("archetype text export not found", zap.String("key", TextKey))
	default:
		return nil, err
	}

	for _, key := range overrideKeys {
		n, err := c.applyOverrides(bs, key, log)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if n > 0 {
			log.Info("archetype names loaded", zap.String("source", key), zap.Int("count", n))
			break
		}
	}

	if len(c.names) == 0 {
		log.Warn("using fallback minimal archetypes")
		for code, name := range fallbackNames {
			c.names[code] = name
		}
	}
	return c, nil
}

func (c *Catalog) parseText(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var raw []string
	for sc.Scan() {
		raw = append(raw, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return err
	}

	var (
		code quiz.Code
		name string
		buf  []string
	)
	flush := func() {
		if code != "" {
			c.names[code] = name
			if text := strings.TrimSpace(strings.Join(buf, "\n")); text != "" {
				c.detailByCode[code] = text
				c.detailByName[name] = text
			}
		}
		buf = nil
	}

	for i := 0; i < len(raw); i++ {
		line := strings.TrimSpace(raw[i])
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			if code != "" {
				buf = append(buf, raw[i])
			}
			continue
		}
		flush()
		lv := make(map[quiz.Trait]quiz.Level, len(quiz.Traits))
		for k, t := range quiz.Traits {
			lv[t], _ = quiz.ParseLevel(m[k+1])
		}
		code = quiz.ComposeCode(lv)
		name = ""
		// the archetype name sits within the next few lines
		for j := 1; j <= 3 && i+j < len(raw); j++ {
			if nm := nameRe.FindStringSubmatch(strings.TrimSpace(raw[i+j])); nm != nil {
				name = strings.TrimSpace(nm[1])
				i += j
				break
			}
		}
		if name == "" {
			name = fmt.Sprintf("Unknown_%d", i)
		}
	}
	flush()
	return nil
}

func (c *Catalog) applyOverrides(bs storage.BlobStore, key string, log *zap.Logger) (int, error) {
	rc, err := bs.Get(key)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	var m map[string]string
	if err := yaml.NewDecoder(rc).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for raw, name := range m {
		code, err := quiz.ParseCode(raw)
		if err != nil {
			log.Warn("skipping archetype override", zap.String("code", raw), zap.Error(err))
			continue
		}
		c.names[code] = strings.TrimSpace(name)
		n++
	}
	return n, nil
}
