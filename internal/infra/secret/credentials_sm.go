// internal/infra/secret/credentials_sm.go
package secret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

var ErrEmptySecret = errors.New("secret: payload is empty")

// Accessor は AccessSecretVersion の最小インターフェースです（テスト差し替え用）。
type Accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// CredentialsProvider は Secret Manager に保存されたサービスアカウント JSON を取得します。
// secretID には "name" または "projects/<p>/secrets/<name>/versions/<v>" のどちらも指定できます。
type CredentialsProvider struct {
	Client    Accessor
	ProjectID string
	closer    func() error
}

// NewCredentialsProvider は ADC で Secret Manager クライアントを生成します。
func NewCredentialsProvider(ctx context.Context, projectID string) (*CredentialsProvider, error) {
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secret: secretmanager.NewClient failed: %w", err)
	}
	return &CredentialsProvider{Client: c, ProjectID: projectID, closer: c.Close}, nil
}

// CredentialsJSON は secret の最新バージョン（または指定バージョン）を読み、
// JSON として妥当であることを確認して返します。
func (p *CredentialsProvider) CredentialsJSON(ctx context.Context, secretID string) ([]byte, error) {
	if p == nil || p.Client == nil {
		return nil, errors.New("secret: client is nil")
	}
	name, err := p.versionName(secretID)
	if err != nil {
		return nil, err
	}

	res, err := p.Client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("secret: access %s: %w", name, err)
	}

	data := res.GetPayload().GetData()
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySecret, name)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("secret: %s is not valid JSON", name)
	}
	return data, nil
}

func (p *CredentialsProvider) versionName(secretID string) (string, error) {
	secretID = strings.TrimSpace(secretID)
	if secretID == "" {
		return "", errors.New("secret: secretID is empty")
	}
	if strings.HasPrefix(secretID, "projects/") {
		if !strings.Contains(secretID, "/versions/") {
			secretID += "/versions/latest"
		}
		return secretID, nil
	}
	if strings.TrimSpace(p.ProjectID) == "" {
		return "", errors.New("secret: projectID is empty")
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", p.ProjectID, secretID), nil
}

func (p *CredentialsProvider) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer()
}
