package i18n

import (
	"context"
	"encoding/json"
	"io/fs"
	"slices"
	"testing"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		lang string
		id   string
		want string
	}{
		{"nl", "AppTitle", "Toetsgenerator"},
		{"nl", "View_matrix", "Toetsmatrijs"},
		{"en", "AppTitle", "Test Generator"},
		{"en", "View_answers", "Answer key"},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.id, func(t *testing.T) {
			ctx := initLang(t, tt.lang)
			if got := T(ctx, tt.id); got != tt.want {
				t.Errorf("T(%s) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestInitUnknownLanguage(t *testing.T) {
	if err := Init("fr"); err == nil {
		t.Fatal("Init(fr) succeeded without a French catalogue")
	}
	if err := Init("not a tag!"); err == nil {
		t.Fatal("Init accepted an invalid tag")
	}
}

func TestFallbackWithoutLocalizer(t *testing.T) {
	initLang(t, "nl")
	if got := T(context.Background(), "Login"); got != "Inloggen" {
		t.Errorf("T(Login) without localizer = %q, want Dutch fallback", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "nl")

	if got := Tp(ctx, "TestsCount", 1); got != "1 toets" {
		t.Errorf("Tp(TestsCount, 1) = %q, want '1 toets'", got)
	}
	if got := Tp(ctx, "TestsCount", 4); got != "4 toetsen" {
		t.Errorf("Tp(TestsCount, 4) = %q, want '4 toetsen'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ErrorGeneration", map[string]any{"Detail": "quota exceeded"})
	if got != "Generation failed: quota exceeded" {
		t.Errorf("Td(ErrorGeneration) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "nl")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestLocaleFilesLoad(t *testing.T) {
	files, err := fs.Glob(localeFS, "locales/*.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) < 2 {
		t.Fatalf("found %d locale files, want nl and en", len(files))
	}

	ids := make(map[string][]string)
	for _, f := range files {
		b := i18n.NewBundle(language.Dutch)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)
		mf, err := b.LoadMessageFileFS(localeFS, f)
		if err != nil {
			t.Errorf("load %s: %v", f, err)
			continue
		}
		for _, m := range mf.Messages {
			ids[f] = append(ids[f], m.ID)
		}
		slices.Sort(ids[f])
	}

	var first string
	for f := range ids {
		if first == "" {
			first = f
			continue
		}
		if !slices.Equal(ids[first], ids[f]) {
			t.Errorf("%s and %s define different message IDs", first, f)
		}
	}
}
