package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"user-management/internal/domain"
)

const usersCollection = "users"

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UniqueID     string             `bson:"uniqueId"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Email        string             `bson:"email"`
	Gender       string             `bson:"gender,omitempty"`
	SelectedDate time.Time          `bson:"selectedDate"`
	FullAddress  string             `bson:"fullAddress"`
	PhoneNumber  *int64             `bson:"phoneNumber,omitempty"`
	Status       string             `bson:"status,omitempty"`
	Delete       bool               `bson:"delete"`
}

func toDoc(u *domain.User) userDoc {
	return userDoc{
		UniqueID:     u.UniqueID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Gender:       string(u.Gender),
		SelectedDate: u.SelectedDate,
		FullAddress:  u.FullAddress,
		PhoneNumber:  u.PhoneNumber,
		Status:       string(u.Status),
		Delete:       u.Delete,
	}
}

func (d userDoc) toUser() domain.User {
	return domain.User{
		ID:           d.ID.Hex(),
		UniqueID:     d.UniqueID,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Gender:       domain.Gender(d.Gender),
		SelectedDate: d.SelectedDate.UTC(),
		FullAddress:  d.FullAddress,
		PhoneNumber:  d.PhoneNumber,
		Status:       domain.Status(d.Status),
		Delete:       d.Delete,
	}
}

type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection(usersCollection)}
}

func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uniqueId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "delete", Value: 1}}},
	})
	return err
}

func (s *MongoUserStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *MongoUserStore) Insert(ctx context.Context, u *domain.User) error {
	u.Normalize()
	if err := domain.Validate(u); err != nil {
		return err
	}
	doc := toDoc(u)
	doc.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return mongoErr(err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

// InsertMany 全部成功或全部回滚：ID 预先生成，失败时按 ID 删掉已写入的部分
func (s *MongoUserStore) InsertMany(ctx context.Context, us []*domain.User) error {
	if err := checkBatch(us); err != nil {
		return err
	}
	docs := make([]any, len(us))
	ids := make([]primitive.ObjectID, len(us))
	for i, u := range us {
		d := toDoc(u)
		d.ID = primitive.NewObjectID()
		ids[i] = d.ID
		docs[i] = d
	}
	if _, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		// 回滚不受请求取消影响
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, rbErr := s.coll.DeleteMany(rbCtx, bson.M{"_id": bson.M{"$in": ids}}); rbErr != nil {
			return errors.Join(mongoErr(err), rbErr)
		}
		return mongoErr(err)
	}
	for i, u := range us {
		u.ID = ids[i].Hex()
	}
	return nil
}

func (s *MongoUserStore) FindAll(ctx context.Context, f domain.ListFilter) ([]domain.User, error) {
	filter := bson.M{}
	if f.Deleted != nil {
		if *f.Deleted {
			filter["delete"] = true
		} else {
			filter["delete"] = bson.M{"$ne": true}
		}
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toUser())
	}
	return out, nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	var d userDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u := d.toUser()
	return &u, nil
}

func (s *MongoUserStore) ReplaceByID(ctx context.Context, id string, r domain.Replacement) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	u := r.User
	u.Normalize()
	if err := domain.Validate(&u); err != nil {
		return nil, err
	}
	set, unset := replacementUpdate(u, r.Delete)
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var d userDoc
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, mongoErr(err)
	}
	out := d.toUser()
	return &out, nil
}

// replacementUpdate 整体替换：可选字段为空时 $unset，delete 仅在显式给出时写入
func replacementUpdate(u domain.User, del *bool) (bson.M, bson.M) {
	set := bson.M{
		"uniqueId":     u.UniqueID,
		"firstName":    u.FirstName,
		"lastName":     u.LastName,
		"email":        u.Email,
		"selectedDate": u.SelectedDate,
		"fullAddress":  u.FullAddress,
	}
	unset := bson.M{}
	if u.Gender != "" {
		set["gender"] = string(u.Gender)
	} else {
		unset["gender"] = ""
	}
	if u.PhoneNumber != nil {
		set["phoneNumber"] = *u.PhoneNumber
	} else {
		unset["phoneNumber"] = ""
	}
	if u.Status != "" {
		set["status"] = string(u.Status)
	} else {
		unset["status"] = ""
	}
	if del != nil {
		set["delete"] = *del
	}
	return set, unset
}

func (s *MongoUserStore) SetDeleteFlag(ctx context.Context, ids []string, deleted bool) (*domain.BulkResult, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return &domain.BulkResult{Acknowledged: true}, nil
	}
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": oids}},
		bson.M{"$set": bson.M{"delete": deleted}},
	)
	if err != nil {
		return nil, err
	}
	out := &domain.BulkResult{
		Acknowledged:  true, // v1 driver: unacknowledged writes return ErrUnacknowledgedWrite above
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		hex := oid.Hex()
		out.UpsertedID = &hex
	}
	return out, nil
}

// objectIDs 丢弃无法解析的 ID：它们不可能匹配任何记录
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if _, dup := seen[oid]; dup {
			continue
		}
		seen[oid] = struct{}{}
		out = append(out, oid)
	}
	return out
}

func mongoErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.DuplicateError(domain.DuplicateField(err.Error()), err)
	}
	return err
}
