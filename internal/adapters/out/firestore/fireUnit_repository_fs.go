// internal/adapters/out/firestore/fireUnit_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

// FireUnitRepositoryFS implements the fire unit repository using Firestore.
type FireUnitRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

func NewFireUnitRepositoryFS(client *firestore.Client, collection string) *FireUnitRepositoryFS {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = fudom.DefaultCollection
	}
	return &FireUnitRepositoryFS{Client: client, Collection: collection}
}

func (r *FireUnitRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// ==============================
// Queries
// ==============================

func (r *FireUnitRepositoryFS) ListAll(ctx context.Context) ([]fudom.FireUnit, error) {
	return r.collect(ctx, r.col().Query)
}

func (r *FireUnitRepositoryFS) ListActive(ctx context.Context) ([]fudom.FireUnit, error) {
	return r.collect(ctx, r.col().Where("isActive", "==", true))
}

func (r *FireUnitRepositoryFS) ExistsByCode(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}

	it := r.col().Where("code", "==", code).Limit(1).Documents(ctx)
	defer it.Stop()

	_, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *FireUnitRepositoryFS) Count(ctx context.Context) (int, error) {
	it := r.col().Select().Documents(ctx)
	defer it.Stop()

	count := 0
	for {
		_, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (r *FireUnitRepositoryFS) collect(ctx context.Context, q firestore.Query) ([]fudom.FireUnit, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	var out []fudom.FireUnit
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		u, err := docToFireUnit(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// ==============================
// Mutations
// ==============================

func (r *FireUnitRepositoryFS) Create(ctx context.Context, u fudom.FireUnit) (fudom.FireUnit, error) {
	var docRef *firestore.DocumentRef
	if strings.TrimSpace(u.ID) == "" {
		docRef = r.col().NewDoc()
		u.ID = docRef.ID
	} else {
		docRef = r.col().Doc(strings.TrimSpace(u.ID))
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := docRef.Create(ctx, fireUnitToDocData(u))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fudom.FireUnit{}, fudom.ErrConflict
		}
		return fudom.FireUnit{}, err
	}
	return u, nil
}

func (r *FireUnitRepositoryFS) Update(ctx context.Context, id string, patch fudom.FireUnitPatch) (fudom.FireUnit, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return fudom.FireUnit{}, fudom.ErrNotFound
	}

	docRef := r.col().Doc(id)
	if patch.IsEmpty() {
		return r.get(ctx, docRef)
	}

	if _, err := docRef.Update(ctx, patchToUpdates(patch)); err != nil {
		if status.Code(err) == codes.NotFound {
			return fudom.FireUnit{}, fudom.ErrNotFound
		}
		return fudom.FireUnit{}, err
	}
	return r.get(ctx, docRef)
}

func (r *FireUnitRepositoryFS) get(ctx context.Context, docRef *firestore.DocumentRef) (fudom.FireUnit, error) {
	snap, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fudom.FireUnit{}, fudom.ErrNotFound
		}
		return fudom.FireUnit{}, err
	}
	return docToFireUnit(snap)
}

// ==============================
// Helpers
// ==============================

func patchToUpdates(p fudom.FireUnitPatch) []firestore.Update {
	var updates []firestore.Update

	setStr := func(path string, v *string) {
		if v != nil {
			updates = append(updates, firestore.Update{Path: path, Value: strings.TrimSpace(*v)})
		}
	}
	setStr("name", p.Name)
	setStr("address", p.Address)
	setStr("city", p.City)
	setStr("state", p.State)
	setStr("phone", p.Phone)
	setStr("email", p.Email)
	setStr("commanderName", p.CommanderName)
	setStr("commanderRank", p.CommanderRank)

	if p.IsActive != nil {
		updates = append(updates, firestore.Update{Path: "isActive", Value: *p.IsActive})
	}
	if p.UpdatedAt != nil {
		if p.UpdatedAt.IsZero() {
			updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.Delete})
		} else {
			updates = append(updates, firestore.Update{Path: "updatedAt", Value: p.UpdatedAt.UTC()})
		}
	}
	return updates
}

// fireUnitToDocData は元のコンソールスクリプトと同じ camelCase キーで書き込みます。
// ドキュメント ID はフィールドとして持たせません。
func fireUnitToDocData(u fudom.FireUnit) map[string]any {
	m := map[string]any{
		"name":          strings.TrimSpace(u.Name),
		"code":          strings.TrimSpace(u.Code),
		"address":       strings.TrimSpace(u.Address),
		"city":          strings.TrimSpace(u.City),
		"state":         strings.TrimSpace(u.State),
		"phone":         strings.TrimSpace(u.Phone),
		"email":         strings.TrimSpace(u.Email),
		"commanderName": strings.TrimSpace(u.CommanderName),
		"commanderRank": strings.TrimSpace(u.CommanderRank),
		"isActive":      u.IsActive,
		"createdAt":     u.CreatedAt.UTC(),
	}
	if u.UpdatedAt != nil && !u.UpdatedAt.IsZero() {
		m["updatedAt"] = u.UpdatedAt.UTC()
	}
	return m
}

func docToFireUnit(doc *firestore.DocumentSnapshot) (fudom.FireUnit, error) {
	data := doc.Data()
	if data == nil {
		return fudom.FireUnit{}, fmt.Errorf("empty fire unit document: %s", doc.Ref.ID)
	}
	return mapToFireUnit(doc.Ref.ID, data), nil
}

// mapToFireUnit は camelCase / snake_case の両方を許容してデコードします。
// 有効フラグは ListActive の条件と揃えて isActive キーのみを見ます。
// 欠損した isActive は false（= 有効化対象）として扱います。
func mapToFireUnit(id string, data map[string]any) fudom.FireUnit {
	getStr := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := data[k].(string); ok {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}
	getBool := func(key string) bool {
		v, _ := data[key].(bool)
		return v
	}
	getTimePtr := func(keys ...string) *time.Time {
		for _, k := range keys {
			if v, ok := data[k].(time.Time); ok {
				t := v.UTC()
				return &t
			}
		}
		return nil
	}

	u := fudom.FireUnit{
		ID:            id,
		Name:          getStr("name"),
		Code:          getStr("code"),
		Address:       getStr("address"),
		City:          getStr("city"),
		State:         getStr("state"),
		Phone:         getStr("phone"),
		Email:         getStr("email"),
		CommanderName: getStr("commanderName", "commander_name"),
		CommanderRank: getStr("commanderRank", "commander_rank"),
		IsActive:      getBool("isActive"),
	}
	if pt := getTimePtr("createdAt", "created_at"); pt != nil {
		u.CreatedAt = *pt
	}
	u.UpdatedAt = getTimePtr("updatedAt", "updated_at")
	return u
}
