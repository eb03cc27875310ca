package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

// fakeConverter returns the HTML itself as "PDF" bytes.
type fakeConverter struct {
	err    error
	block  bool
	closed bool
}

func (f *fakeConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(html), nil
}

func (f *fakeConverter) Close() error {
	f.closed = true
	return nil
}

func contextValues() map[string]string {
	return map[string]string{
		"nome_consorcio":       "HUBE ENERGY",
		"endereco_consorcio":   "Av. Central, 100",
		"cnpj_consorcio":       "11.222.333/0001-44",
		"razao_social":         "Ana Souza",
		"endereco_consorciado": "Rua A, 1 - Campinas - SP",
		"cnpj_consorciado":     "123.456.789-01",
		"numero_conta":         "10020",
		"numero_cobranca":      "C-77",
		"numero_instalacao":    "998877",
		"data_emissao":         "01/05/2024",
		"data_vencimento":      "10/05/2024",
		"mes_referencia":       "04/2024",
		"total_pagar":          "R$ 1.000,50",
		"economia_mes":         "R$ 120,00",
		"dados_bancarios":      "Banco 001 Ag 1234 CC 5678-9",
	}
}

func TestParse_MissingKeyIsError(t *testing.T) {
	tmpl, err := Parse("t.html", "<p>{{.razao_social}} {{.inexistente}}</p>")
	require.NoError(t, err)

	_, err = tmpl.Execute(map[string]string{"razao_social": "Ana"})
	require.Error(t, err)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeTemplateFailed, renderErr.Code)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("t.html", "{{.razao_social")
	require.Error(t, err)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = Parse("t.html", "   ")
	assert.Error(t, err)
}

func TestExecute_EscapesHTML(t *testing.T) {
	tmpl := MustParse("t.html", "<p>{{.razao_social}}</p>")

	html, err := tmpl.Execute(map[string]string{"razao_social": "Ana & <Filhos>"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Ana &amp; &lt;Filhos&gt;</p>", html)
}

func TestExecute_LegacyPlaceholders(t *testing.T) {
	tmpl := MustParse("t.html", "<p>{{ razao_social }} - {{total_pagar}}{{ if .numero_conta }} ({{ numero_conta }}){{ end }}</p>")

	html, err := tmpl.Execute(map[string]string{
		"razao_social": "Ana",
		"total_pagar":  "R$ 1,00",
		"numero_conta": "10",
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>Ana - R$ 1,00 (10)</p>", html)
}

func TestExecute_Functions(t *testing.T) {
	tmpl := MustParse("t.html", `{{upper .razao_social}}|{{default "-" .numero_conta}}`)

	html, err := tmpl.Execute(map[string]string{"razao_social": "ana", "numero_conta": ""})
	require.NoError(t, err)
	assert.Equal(t, "ANA|-", html)
}

func TestEmbedded_UsesAllContextKeys(t *testing.T) {
	html, err := Embedded().Execute(contextValues())
	require.NoError(t, err)

	for _, v := range contextValues() {
		assert.Contains(t, html, strings.ReplaceAll(v, "&", "&amp;"))
	}

	values := contextValues()
	delete(values, "dados_bancarios")
	_, err = Embedded().Execute(values)
	assert.Error(t, err)
}

func TestRenderer_Render(t *testing.T) {
	conv := &fakeConverter{}
	r := NewRenderer(conv, time.Second)

	pdf, err := r.Render(context.Background(), MustParse("t.html", "<p>{{.razao_social}}</p>"), map[string]string{"razao_social": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Ana</p>", string(pdf))

	require.NoError(t, r.Close())
	assert.True(t, conv.closed)
}

func TestRenderer_ConverterFailure(t *testing.T) {
	r := NewRenderer(&fakeConverter{err: errors.New("chrome crashed")}, time.Second)

	_, err := r.Render(context.Background(), MustParse("t.html", "<p>x</p>"), nil)
	require.Error(t, err)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeRenderFailed, renderErr.Code)
	assert.Contains(t, err.Error(), "chrome crashed")
}

func TestRenderer_Timeout(t *testing.T) {
	r := NewRenderer(&fakeConverter{block: true}, 10*time.Millisecond)

	_, err := r.Render(context.Background(), MustParse("t.html", "<p>x</p>"), nil)
	require.Error(t, err)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeRenderTimeout, renderErr.Code)
}

func TestRenderer_EmptyPDF(t *testing.T) {
	r := NewRenderer(&fakeConverter{}, 0)

	_, err := r.Convert(context.Background(), "")
	require.Error(t, err)
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.html", "a.html", ".hidden.html", "_base.html", "notes.txt", "C.HTML"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<p>x</p>"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.html"), 0o755))

	names, err := NewStore(dir, "", "").List()
	require.NoError(t, err)
	assert.Equal(t, []string{"C.HTML", "a.html", "b.html"}, names)
}

func TestStore_ListCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "templates")

	names, err := NewStore(dir, "", "").List()
	require.NoError(t, err)
	assert.Empty(t, names)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nota.html"), []byte("<p>{{.razao_social}}</p>"), 0o644))

	store := NewStore(dir, "utf-8", "nota.html")

	tmpl, err := store.Load("")
	require.NoError(t, err)
	assert.Equal(t, "nota.html", tmpl.Name)

	_, err = store.Load("ausente.html")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = store.Load("../nota.html")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = store.Load("_base.html")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	tmpl, err = store.Load(EmbeddedTemplateName)
	require.NoError(t, err)
	assert.Equal(t, EmbeddedTemplateName, tmpl.Name)
}

func TestStore_LoadEmbeddedByDefault(t *testing.T) {
	tmpl, err := NewStore(t.TempDir(), "", "").Load("")
	require.NoError(t, err)
	assert.Equal(t, EmbeddedTemplateName, tmpl.Name)
}

func TestStore_LoadLatin1(t *testing.T) {
	dir := t.TempDir()
	encoded, err := charmap.ISO8859_1.NewEncoder().String("<p>Cobrança {{.razao_social}}</p>")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nota.html"), []byte(encoded), 0o644))

	tmpl, err := NewStore(dir, "latin-1", "").Load("nota.html")
	require.NoError(t, err)

	html, err := tmpl.Execute(map[string]string{"razao_social": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Cobrança Ana</p>", html)
}

func TestNewChromeConverter(t *testing.T) {
	_, err := NewChromeConverter(ChromeConfig{Paper: "A3"})
	assert.Error(t, err)

	c, err := NewChromeConverter(ChromeConfig{Paper: "letter", NoSandbox: true})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}

func TestChromeConverter_RejectsEmptyHTML(t *testing.T) {
	c, err := NewChromeConverter(ChromeConfig{})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Convert(context.Background(), "  ")
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestWrapDocument(t *testing.T) {
	assert.Equal(t, "<html><body>x</body></html>", wrapDocument("<html><body>x</body></html>"))

	wrapped := wrapDocument("<p>x</p>")
	assert.True(t, strings.HasPrefix(wrapped, "<!DOCTYPE html>"))
	assert.Contains(t, wrapped, `<meta charset="UTF-8">`)
	assert.Contains(t, wrapped, "<p>x</p>")
}
