package seedfile

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

type fakeOpener struct {
	objects map[string]string // "bucket/object" -> body
	calls   []string
}

func (f *fakeOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	key := bucket + "/" + object
	f.calls = append(f.calls, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestLoad_DefaultCatalog(t *testing.T) {
	units, err := NewLoader(nil).Load(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, units, 5)

	assert.Equal(t, []string{"1º GBM", "2º GBM", "3º GBM", "4º GBM", "5º GBM"}, fudom.Codes(units))
	assert.Equal(t, "Anápolis", units[4].City)
	assert.Equal(t, "Major", units[3].CommanderRank)
	for _, u := range units {
		assert.True(t, u.IsActive, u.Code)
		assert.Equal(t, "GO", u.State)
		assert.True(t, u.CreatedAt.IsZero())
	}

	defaults, err := NewLoader(nil).Default()
	require.NoError(t, err)
	assert.Equal(t, defaults, units)
}

func TestParse_TOMLAndJSON(t *testing.T) {
	l := NewLoader(nil)

	tomlDoc := `
[[units]]
name = "6º Grupamento de Bombeiros Militar"
code = "6º GBM"
city = "Rio Verde"
state = "go"
isActive = false
`
	units, err := l.Parse([]byte(tomlDoc), "toml")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "6º GBM", units[0].Code)
	assert.Equal(t, "GO", units[0].State)
	assert.False(t, units[0].IsActive)

	jsonDoc := `{"units":[{"name":"7º GBM","code":"7º GBM","email":"7gbm@bombeiros.go.gov.br"}]}`
	units, err = l.Parse([]byte(jsonDoc), "json")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.True(t, units[0].IsActive, "isActive defaults to true")
}

func TestParse_Rejects(t *testing.T) {
	l := NewLoader(nil)

	tests := []struct {
		name    string
		format  string
		doc     string
		wantErr error
		wantMsg string
	}{
		{name: "empty", format: "yaml", doc: "", wantErr: ErrEmptyCatalog},
		{name: "no units", format: "yaml", doc: "units: []", wantErr: ErrEmptyCatalog},
		{name: "missing code", format: "yaml", doc: "units:\n  - name: X\n", wantMsg: "Code"},
		{name: "bad email", format: "yaml", doc: "units:\n  - name: X\n    code: X\n    email: nope\n", wantMsg: "Email"},
		{name: "bad state", format: "yaml", doc: "units:\n  - name: X\n    code: X\n    state: GOI\n", wantMsg: "State"},
		{name: "unknown yaml key", format: "yaml", doc: "units:\n  - name: X\n    code: X\n    colour: red\n", wantMsg: "colour"},
		{name: "unknown json key", format: "json", doc: `{"units":[{"name":"X","code":"X","colour":"red"}]}`, wantMsg: "colour"},
		{name: "unknown toml key", format: "toml", doc: "[[units]]\nname = \"X\"\ncode = \"X\"\ncolour = \"red\"\n", wantMsg: "unknown keys"},
		{name: "duplicate code", format: "yaml", doc: "units:\n  - {name: A, code: 1º GBM}\n  - {name: B, code: 1º gbm}\n", wantErr: ErrDuplicateCode},
		{name: "unsupported", format: "xml", doc: "<units/>", wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Parse([]byte(tt.doc), tt.format)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_LocalFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "units.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"units":[{"name":"Local","code":"L1"}]}`), 0o600))

	units, err := NewLoader(nil).Load(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "L1", units[0].Code)

	_, err = NewLoader(nil).Load(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_GCSObject(t *testing.T) {
	opener := &fakeOpener{objects: map[string]string{
		"cbmgo-config/seeds/units.toml": "[[units]]\nname = \"Remote\"\ncode = \"R1\"\n",
	}}

	units, err := NewLoader(opener).Load(context.Background(), "gs://cbmgo-config/seeds/units.toml")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "R1", units[0].Code)
	assert.Equal(t, []string{"cbmgo-config/seeds/units.toml"}, opener.calls)

	_, err = NewLoader(nil).Load(context.Background(), "gs://cbmgo-config/seeds/units.toml")
	assert.ErrorIs(t, err, ErrNoObjectOpener)

	_, err = NewLoader(opener).Load(context.Background(), "gs://cbmgo-config/other.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object not found")
}

func TestSplitGCSURI(t *testing.T) {
	b, o, ok := SplitGCSURI("gs://bucket/a/b.yaml")
	assert.True(t, ok)
	assert.Equal(t, "bucket", b)
	assert.Equal(t, "a/b.yaml", o)

	for _, bad := range []string{"bucket/a.yaml", "gs://bucket", "gs://bucket/", "gs:///a.yaml", "/tmp/a.yaml"} {
		_, _, ok := SplitGCSURI(bad)
		assert.False(t, ok, bad)
	}
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "toml", FormatOf("units.TOML"))
	assert.Equal(t, "json", FormatOf("gs://b/units.json"))
	assert.Equal(t, "yaml", FormatOf("units.yml"))
	assert.Equal(t, "yaml", FormatOf("units"))
}
