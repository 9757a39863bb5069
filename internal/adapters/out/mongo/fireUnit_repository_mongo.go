// internal/adapters/out/mongo/fireUnit_repository_mongo.go
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

// fireUnitDoc は書き込み時のドキュメント形状です（キーは Firestore と同じ camelCase）。
// 読み込みは既存データの型揺れを許容するため bson.M 経由で行います。
// _id は ObjectID または文字列です。
type fireUnitDoc struct {
	ID            any        `bson:"_id,omitempty"`
	Name          string     `bson:"name"`
	Code          string     `bson:"code"`
	Address       string     `bson:"address"`
	City          string     `bson:"city"`
	State         string     `bson:"state"`
	Phone         string     `bson:"phone"`
	Email         string     `bson:"email"`
	CommanderName string     `bson:"commanderName"`
	CommanderRank string     `bson:"commanderRank"`
	IsActive      bool       `bson:"isActive"`
	CreatedAt     time.Time  `bson:"createdAt"`
	UpdatedAt     *time.Time `bson:"updatedAt,omitempty"`
}

// FireUnitRepositoryMongo implements the fire unit repository on MongoDB.
type FireUnitRepositoryMongo struct {
	c *mongo.Collection
}

func NewFireUnitRepositoryMongo(db *mongo.Database, collection string) *FireUnitRepositoryMongo {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = fudom.DefaultCollection
	}
	return &FireUnitRepositoryMongo{c: db.Collection(collection)}
}

// EnsureIndexes は code / isActive の検索用インデックスを作成します（一意制約は付けません）。
func (r *FireUnitRepositoryMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetName("idx_code")},
		{Keys: bson.D{{Key: "isActive", Value: 1}}, Options: options.Index().SetName("idx_is_active")},
	})
	return err
}

func (r *FireUnitRepositoryMongo) ListAll(ctx context.Context) ([]fudom.FireUnit, error) {
	return r.find(ctx, bson.M{})
}

func (r *FireUnitRepositoryMongo) ListActive(ctx context.Context) ([]fudom.FireUnit, error) {
	return r.find(ctx, bson.M{"isActive": true})
}

func (r *FireUnitRepositoryMongo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}
	n, err := r.c.CountDocuments(ctx, bson.M{"code": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *FireUnitRepositoryMongo) Count(ctx context.Context) (int, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *FireUnitRepositoryMongo) Create(ctx context.Context, u fudom.FireUnit) (fudom.FireUnit, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	doc := toFireUnitDoc(u)

	// ID 未指定なら ObjectID を採番、16 進 24 桁なら ObjectID、それ以外は文字列 _id
	id := strings.TrimSpace(u.ID)
	switch oid, err := primitive.ObjectIDFromHex(id); {
	case id == "":
		doc.ID = primitive.NewObjectID()
	case err == nil:
		doc.ID = oid
	default:
		doc.ID = id
	}

	if _, err := r.c.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fudom.FireUnit{}, fudom.ErrConflict
		}
		return fudom.FireUnit{}, err
	}

	return fromFireUnitDoc(doc), nil
}

func (r *FireUnitRepositoryMongo) Update(ctx context.Context, id string, patch fudom.FireUnitPatch) (fudom.FireUnit, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return fudom.FireUnit{}, fudom.ErrNotFound
	}
	filter := idFilter(id)

	if patch.IsEmpty() {
		return r.getOne(ctx, filter)
	}

	var m bson.M
	err := r.c.FindOneAndUpdate(ctx, filter, patchToUpdate(patch),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fudom.FireUnit{}, fudom.ErrNotFound
		}
		return fudom.FireUnit{}, err
	}
	return fromBSON(m), nil
}

func (r *FireUnitRepositoryMongo) getOne(ctx context.Context, filter bson.M) (fudom.FireUnit, error) {
	var m bson.M
	if err := r.c.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fudom.FireUnit{}, fudom.ErrNotFound
		}
		return fudom.FireUnit{}, err
	}
	return fromBSON(m), nil
}

func (r *FireUnitRepositoryMongo) find(ctx context.Context, filter bson.M) ([]fudom.FireUnit, error) {
	cur, err := r.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]fudom.FireUnit, 0, len(docs))
	for _, m := range docs {
		out = append(out, fromBSON(m))
	}
	return out, nil
}

// ==============================
// Helpers
// ==============================

func patchToUpdate(p fudom.FireUnitPatch) bson.M {
	set := bson.M{}
	unset := bson.M{}

	setStr := func(key string, v *string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
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
		set["isActive"] = *p.IsActive
	}
	if p.UpdatedAt != nil {
		if p.UpdatedAt.IsZero() {
			unset["updatedAt"] = ""
		} else {
			set["updatedAt"] = p.UpdatedAt.UTC()
		}
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func toFireUnitDoc(u fudom.FireUnit) fireUnitDoc {
	d := fireUnitDoc{
		Name:          strings.TrimSpace(u.Name),
		Code:          strings.TrimSpace(u.Code),
		Address:       strings.TrimSpace(u.Address),
		City:          strings.TrimSpace(u.City),
		State:         strings.TrimSpace(u.State),
		Phone:         strings.TrimSpace(u.Phone),
		Email:         strings.TrimSpace(u.Email),
		CommanderName: strings.TrimSpace(u.CommanderName),
		CommanderRank: strings.TrimSpace(u.CommanderRank),
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt.UTC(),
	}
	if u.UpdatedAt != nil && !u.UpdatedAt.IsZero() {
		t := u.UpdatedAt.UTC()
		d.UpdatedAt = &t
	}
	return d
}

func fromFireUnitDoc(d fireUnitDoc) fudom.FireUnit {
	u := fudom.FireUnit{
		ID:            idString(d.ID),
		Name:          d.Name,
		Code:          d.Code,
		Address:       d.Address,
		City:          d.City,
		State:         d.State,
		Phone:         d.Phone,
		Email:         d.Email,
		CommanderName: d.CommanderName,
		CommanderRank: d.CommanderRank,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt.UTC(),
	}
	if d.UpdatedAt != nil {
		t := d.UpdatedAt.UTC()
		u.UpdatedAt = &t
	}
	return u
}

// fromBSON は型が揃っていないドキュメントも読めるようにデコードします。
// isActive が bool 以外（欠損・文字列など）の場合は false（= 有効化対象）です。
func fromBSON(m bson.M) fudom.FireUnit {
	getStr := func(key string) string {
		if v, ok := m[key].(string); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}
	getBool := func(key string) bool {
		v, _ := m[key].(bool)
		return v
	}
	getTimePtr := func(key string) *time.Time {
		var t time.Time
		switch v := m[key].(type) {
		case primitive.DateTime:
			t = v.Time()
		case time.Time:
			t = v
		default:
			return nil
		}
		t = t.UTC()
		return &t
	}

	u := fudom.FireUnit{
		ID:            idString(m["_id"]),
		Name:          getStr("name"),
		Code:          getStr("code"),
		Address:       getStr("address"),
		City:          getStr("city"),
		State:         getStr("state"),
		Phone:         getStr("phone"),
		Email:         getStr("email"),
		CommanderName: getStr("commanderName"),
		CommanderRank: getStr("commanderRank"),
		IsActive:      getBool("isActive"),
	}
	if pt := getTimePtr("createdAt"); pt != nil {
		u.CreatedAt = *pt
	}
	u.UpdatedAt = getTimePtr("updatedAt")
	return u
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// idFilter は 16 進 ObjectID 形式の ID なら ObjectID と文字列の両方で照合します。
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}
