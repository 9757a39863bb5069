// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ClientWrapper は Firestore クライアントとその設定をラップします。
type ClientWrapper struct {
	Client    *firestore.Client
	App       *firebase.App
	ProjectID string
}

// NewClient は Firebase App 経由で Firestore クライアントを初期化します。
// opts が空の場合は ADC(Application Default Credentials) を使用します。
// FIRESTORE_EMULATOR_HOST が設定されていればクライアントライブラリがエミュレータへ接続します。
func NewClient(ctx context.Context, projectID string, log *zap.Logger, opts ...option.ClientOption) (*ClientWrapper, error) {
	if projectID == "" {
		return nil, errors.New("firestoreinfra: projectID is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestoreinfra: firebase app init failed (project=%s): %w", projectID, err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestoreinfra: failed to create firestore client (project=%s): %w", projectID, err)
	}

	if host := os.Getenv("FIRESTORE_EMULATOR_HOST"); host != "" {
		log.Info("✅ Firestore connected (emulator)", zap.String("project", projectID), zap.String("host", host))
	} else {
		log.Info("✅ Firestore connected", zap.String("project", projectID))
	}
	return &ClientWrapper{Client: client, App: app, ProjectID: projectID}, nil
}

// Close は Firestore クライアントをクローズします。
func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
