// internal/infra/seedfile/loader.go
package seedfile

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

//go:embed default_units.yaml
var defaultUnitsYAML []byte

// DefaultSource はシードファイル未指定時にログへ出す名前です。
const DefaultSource = "embedded:default_units.yaml"

var (
	ErrEmptyCatalog      = errors.New("seedfile: catalog has no units")
	ErrDuplicateCode     = errors.New("seedfile: duplicate unit code")
	ErrUnsupportedFormat = errors.New("seedfile: unsupported format")
	ErrNoObjectOpener    = errors.New("seedfile: gs:// source requires an object opener")
)

// ObjectOpener は gs://bucket/object を開くためのポートです（GCS adapter が実装）。
type ObjectOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// Document はシードファイルのルート構造です。
type Document struct {
	Units []Unit `yaml:"units" toml:"units" json:"units" validate:"required,min=1,dive"`
}

// Unit は 1 部隊分のシード定義です。isActive 省略時は true として扱います。
type Unit struct {
	Name          string `yaml:"name" toml:"name" json:"name" validate:"required,max=200"`
	Code          string `yaml:"code" toml:"code" json:"code" validate:"required,max=50"`
	Address       string `yaml:"address" toml:"address" json:"address"`
	City          string `yaml:"city" toml:"city" json:"city"`
	State         string `yaml:"state" toml:"state" json:"state" validate:"omitempty,len=2,alpha"`
	Phone         string `yaml:"phone" toml:"phone" json:"phone"`
	Email         string `yaml:"email" toml:"email" json:"email" validate:"omitempty,email"`
	CommanderName string `yaml:"commanderName" toml:"commanderName" json:"commanderName"`
	CommanderRank string `yaml:"commanderRank" toml:"commanderRank" json:"commanderRank"`
	IsActive      *bool  `yaml:"isActive" toml:"isActive" json:"isActive"`
}

// Loader はシードファイルを読み込み、検証済みの FireUnit 一覧を返します。
type Loader struct {
	opener   ObjectOpener
	validate *validator.Validate
}

func NewLoader(opener ObjectOpener) *Loader {
	return &Loader{
		opener:   opener,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Load は source（空ならデフォルト、ローカルパス、または gs://bucket/object）を読み込みます。
func (l *Loader) Load(ctx context.Context, source string) ([]fudom.FireUnit, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return l.Default()
	}

	raw, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}
	return l.Parse(raw, FormatOf(source))
}

// Default は埋め込みのデフォルトカタログを返します。
func (l *Loader) Default() ([]fudom.FireUnit, error) {
	return l.Parse(defaultUnitsYAML, "yaml")
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	if bucket, object, ok := SplitGCSURI(source); ok {
		if l.opener == nil {
			return nil, ErrNoObjectOpener
		}
		rc, err := l.opener.Open(ctx, bucket, object)
		if err != nil {
			return nil, fmt.Errorf("seedfile: open %s: %w", source, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("seedfile: read %s: %w", source, err)
		}
		return b, nil
	}

	b, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("seedfile: read %s: %w", source, err)
	}
	return b, nil
}

// Parse は指定フォーマット（yaml / toml / json）のバイト列を検証済み FireUnit に変換します。
func (l *Loader) Parse(raw []byte, format string) ([]fudom.FireUnit, error) {
	var doc Document

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("seedfile: decode yaml: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(raw), &doc)
		if err != nil {
			return nil, fmt.Errorf("seedfile: decode toml: %w", err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("seedfile: decode toml: unknown keys %v", undec)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("seedfile: decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if len(doc.Units) == 0 {
		return nil, ErrEmptyCatalog
	}
	if err := l.validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("seedfile: invalid catalog: %w", err)
	}

	units := make([]fudom.FireUnit, 0, len(doc.Units))
	for i, su := range doc.Units {
		active := true
		if su.IsActive != nil {
			active = *su.IsActive
		}
		u, err := fudom.NewFireUnit(
			su.Name, su.Code, su.Address, su.City, su.State, su.Phone, su.Email,
			su.CommanderName, su.CommanderRank, active,
		)
		if err != nil {
			return nil, fmt.Errorf("seedfile: unit #%d (%s): %w", i+1, su.Code, err)
		}
		units = append(units, u)
	}

	if dups := fudom.DuplicateCodes(units); len(dups) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, strings.Join(dups, ", "))
	}
	return units, nil
}

// FormatOf は拡張子からフォーマット名を決めます（不明な場合は yaml）。
func FormatOf(source string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(source)))
	switch ext {
	case ".toml":
		return "toml"
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

// SplitGCSURI は "gs://bucket/path/to/object" を (bucket, object) に分解します。
func SplitGCSURI(uri string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(uri), "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || strings.TrimSpace(object) == "" {
		return "", "", false
	}
	return bucket, object, true
}
