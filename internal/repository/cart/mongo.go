package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vibe-commerce/internal/db"
	"vibe-commerce/internal/domain"
)

// CollectionName matches the collection the storefront has always used.
const CollectionName = "cartitems"

type itemDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ProductID int64              `bson:"productId"`
	Title     string             `bson:"title"`
	Price     float64            `bson:"price"`
	Image     string             `bson:"image,omitempty"`
	Quantity  int                `bson:"quantity"`
	AddedAt   time.Time          `bson:"addedAt"`
}

func (d itemDocument) toDomain() domain.CartItem {
	return domain.CartItem{
		ID:        d.ID.Hex(),
		ProductID: d.ProductID,
		Title:     d.Title,
		Price:     d.Price,
		Image:     d.Image,
		Quantity:  d.Quantity,
		AddedAt:   d.AddedAt.UTC(),
	}
}

type mongoRepo struct {
	conn *db.Lazy[*db.Mongo]
}

func NewMongo(conn *db.Lazy[*db.Mongo]) Repository {
	return &mongoRepo{conn: conn}
}

// EnsureMongoIndexes creates the unique productId index that backs merging.
func EnsureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "productId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "addedAt", Value: 1}},
		},
	}
	if _, err := database.Collection(CollectionName).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (r *mongoRepo) handle(ctx context.Context) (*db.Mongo, *mongo.Collection, error) {
	h, err := r.conn.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo unavailable: %w", err)
	}
	return h, h.Database.Collection(CollectionName), nil
}

func (r *mongoRepo) FindAll(ctx context.Context) ([]domain.CartItem, error) {
	_, coll, err := r.handle(ctx)
	if err != nil {
		return nil, err
	}
	return findAll(ctx, coll)
}

func findAll(ctx context.Context, coll *mongo.Collection) ([]domain.CartItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "addedAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find cart items: %w", err)
	}
	defer cur.Close(ctx)

	items := []domain.CartItem{}
	for cur.Next(ctx) {
		var doc itemDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode cart item: %w", err)
		}
		items = append(items, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

func (r *mongoRepo) FindByProductID(ctx context.Context, productID int64) (*domain.CartItem, error) {
	_, coll, err := r.handle(ctx)
	if err != nil {
		return nil, err
	}
	var doc itemDocument
	if err := coll.FindOne(ctx, bson.M{"productId": productID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	item := doc.toDomain()
	return &item, nil
}

func (r *mongoRepo) Insert(ctx context.Context, item domain.CartItem) (*domain.CartItem, error) {
	_, coll, err := r.handle(ctx)
	if err != nil {
		return nil, err
	}
	doc := itemDocument{
		ID:        primitive.NewObjectID(),
		ProductID: item.ProductID,
		Title:     item.Title,
		Price:     item.Price,
		Image:     item.Image,
		Quantity:  item.Quantity,
		AddedAt:   now(),
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert cart item: %w", err)
	}
	created := doc.toDomain()
	return &created, nil
}

func (r *mongoRepo) Save(ctx context.Context, item domain.CartItem) error {
	_, coll, err := r.handle(ctx)
	if err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(item.ID)
	if err != nil {
		return domain.ErrNotFound
	}
	update := bson.M{"$set": bson.M{
		"title":    item.Title,
		"price":    item.Price,
		"image":    item.Image,
		"quantity": item.Quantity,
	}}
	res, err := coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("save cart item: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *mongoRepo) AddOrIncrement(ctx context.Context, item domain.CartItem) (*domain.CartItem, bool, error) {
	_, coll, err := r.handle(ctx)
	if err != nil {
		return nil, false, err
	}

	// _id is chosen here so an upserted row can be described without a re-read.
	fresh := itemDocument{
		ID:        primitive.NewObjectID(),
		ProductID: item.ProductID,
		Title:     item.Title,
		Price:     item.Price,
		Image:     item.Image,
		Quantity:  item.Quantity,
		AddedAt:   now(),
	}
	filter := bson.M{"productId": item.ProductID}
	update := bson.M{
		"$inc": bson.M{"quantity": item.Quantity},
		"$setOnInsert": bson.M{
			"_id":     fresh.ID,
			"title":   fresh.Title,
			"price":   fresh.Price,
			"image":   fresh.Image,
			"addedAt": fresh.AddedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var before itemDocument
	err = coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		created := fresh.toDomain()
		return &created, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("upsert cart item: %w", err)
	}
	before.Quantity += item.Quantity
	merged := before.toDomain()
	return &merged, false, nil
}

func (r *mongoRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	_, coll, err := r.handle(ctx)
	if err != nil {
		return false, err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoRepo) DeleteAll(ctx context.Context) error {
	_, coll, err := r.handle(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *mongoRepo) TakeAll(ctx context.Context) ([]domain.CartItem, error) {
	h, coll, err := r.handle(ctx)
	if err != nil {
		return nil, err
	}
	if !h.Transactions {
		// Standalone servers have no transactions; takeAll still never drops a
		// row it did not return.
		return takeAll(ctx, coll)
	}

	sess, err := h.Database.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return takeAll(sc, coll)
	})
	if err != nil {
		return nil, err
	}
	return res.([]domain.CartItem), nil
}

// takeAll removes rows one at a time in cart order, so every returned row is
// exactly one that was deleted. Rows added mid-loop are taken as well.
func takeAll(ctx context.Context, coll *mongo.Collection) ([]domain.CartItem, error) {
	opts := options.FindOneAndDelete().
		SetSort(bson.D{{Key: "addedAt", Value: 1}, {Key: "_id", Value: 1}})

	items := []domain.CartItem{}
	for {
		var doc itemDocument
		err := coll.FindOneAndDelete(ctx, bson.M{}, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return items, nil
		}
		if err != nil {
			return nil, fmt.Errorf("take cart item: %w", err)
		}
		items = append(items, doc.toDomain())
	}
}

func (r *mongoRepo) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (r *mongoRepo) Ping(ctx context.Context) error {
	h, err := r.conn.Get(ctx)
	if err != nil {
		return err
	}
	return h.Database.Client().Ping(ctx, nil)
}

// now is truncated to Mongo's millisecond precision so returned rows match
// what a later read yields.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
