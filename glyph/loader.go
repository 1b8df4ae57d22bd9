package glyph

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"

	apperrors "github.com/leeforge/multicaptcha/errors"
)

// ErrFontLoad is the inner error of every font resolution failure.
var ErrFontLoad = errors.New("font load failed")

var builtinFonts = map[string][]byte{
	"gobold":     gobold.TTF,
	"goitalic":   goitalic.TTF,
	"gomedium":   gomedium.TTF,
	"gomono":     gomono.TTF,
	"gomonobold": gomonobold.TTF,
	"goregular":  goregular.TTF,
}

// BuiltinNames lists the fonts available without an assets directory.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinFonts))
	for name := range builtinFonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FontLoader resolves font names to parsed TrueType fonts.
// A file under <assets>/fonts wins over a builtin font of the same name.
type FontLoader struct {
	assetsPath string

	mu    sync.Mutex
	fonts map[string]*truetype.Font
}

func NewFontLoader(assetsPath string) *FontLoader {
	return &FontLoader{
		assetsPath: assetsPath,
		fonts:      make(map[string]*truetype.Font),
	}
}

// Load returns the parsed font, reading and parsing it at most once.
func (l *FontLoader) Load(name string) (*truetype.Font, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.fonts[name]; ok {
		return f, nil
	}

	data, err := l.read(name)
	if err != nil {
		return nil, err
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, loadError(name, fmt.Errorf("parse: %w", err))
	}
	l.fonts[name] = f
	return f, nil
}

func (l *FontLoader) read(name string) ([]byte, error) {
	if name == "" {
		return nil, loadError(name, errors.New("empty font name"))
	}

	if l.assetsPath != "" {
		path := filepath.Join(l.assetsPath, "fonts", filepath.Base(name))
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, loadError(name, err)
		}
	}

	if data, ok := builtinFonts[name]; ok {
		return data, nil
	}
	return nil, loadError(name, fmt.Errorf("no file under %s and no builtin font", filepath.Join(l.assetsPath, "fonts")))
}

func loadError(name string, cause error) error {
	return apperrors.New(apperrors.ErrorTypeInternal, fmt.Sprintf("load font %q", name)).
		WithCode(apperrors.CodeFontLoad).
		WithDetail("font", name).
		WithDetail("cause", cause.Error()).
		WithHTTPStatus(http.StatusInternalServerError).
		WithInnerError(errors.Join(ErrFontLoad, cause))
}
