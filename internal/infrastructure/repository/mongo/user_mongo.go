package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhubafrica/points-service/internal/domain"
)

type UserRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection(usersCollection)}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.ToDomain()
}

func eligibleFilter() bson.M {
	return bson.M{"emailVerified": true, "status": string(domain.UserStatusActive)}
}

func (r *UserRepository) ListEligible(ctx context.Context, after uuid.UUID, limit int) ([]domain.User, error) {
	filter := eligibleFilter()
	filter["_id"] = bson.M{"$gt": after.String()}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeUsers(ctx, cursor)
}

func decodeUsers(ctx context.Context, cursor *mongo.Cursor) ([]domain.User, error) {
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(docs))
	for i := range docs {
		u, err := docs[i].ToDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func (r *UserRepository) CountIneligible(ctx context.Context) (int64, error) {
	return r.users.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"emailVerified": bson.M{"$ne": true}},
		bson.M{"status": bson.M{"$ne": string(domain.UserStatusActive)}},
	}})
}

func (r *UserRepository) CountAchievements(ctx context.Context, userID uuid.UUID) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID.String()}}},
		{{Key: "$project", Value: bson.M{"n": bson.M{"$size": bson.M{"$ifNull": bson.A{"$achievements", bson.A{}}}}}}},
	}
	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var rows []struct {
		N int `bson:"n"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, domain.ErrUserNotFound
	}
	return rows[0].N, nil
}

func (r *UserRepository) CountReferrals(ctx context.Context, referrerID uuid.UUID) (int, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{"referredBy": referrerID.String()})
	return int(n), err
}

func (r *UserRepository) CountAllReferrals(ctx context.Context) (int64, error) {
	return r.users.CountDocuments(ctx, bson.M{"referredBy": bson.M{"$ne": nil}})
}

func (r *UserRepository) ListDanglingReferrals(ctx context.Context) ([]domain.User, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"referredBy": bson.M{"$ne": nil}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "referredBy"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "referrer"},
		}}},
		{{Key: "$match", Value: bson.M{"referrer": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"referrer": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return decodeUsers(ctx, cursor)
}

// ApplyPoints is a compare-and-set on pointsVersion.
func (r *UserRepository) ApplyPoints(ctx context.Context, id uuid.UUID, version int64, upd domain.PointsUpdate) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id.String(), "pointsVersion": versionMatch(version)},
		bson.M{
			"$set": bson.M{
				"points":           upd.Points,
				"enrolledCourses":  upd.EnrolledCourses,
				"completedCourses": upd.CompletedCourses,
				"pointsBreakdown":  breakdownDoc(upd.Breakdown),
				"pointsUpdatedAt":  upd.UpdatedAt,
				"updatedAt":        upd.UpdatedAt,
			},
			"$inc": bson.M{"pointsVersion": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

// versionMatch treats a missing pointsVersion as version 0. Users created by
// the CRUD layer carry no version until the first points write.
func versionMatch(version int64) interface{} {
	if version == 0 {
		return bson.M{"$in": bson.A{int64(0), int32(0), nil}}
	}
	return version
}

func (r *UserRepository) AddPoints(ctx context.Context, id uuid.UUID, delta int) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$inc": bson.M{"points": delta, "pointsVersion": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateStreak(ctx context.Context, id uuid.UUID, streak int, at time.Time) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{
			"$set": bson.M{"learningStreak": streak, "lastActivityAt": at},
			"$inc": bson.M{"pointsVersion": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	n, err := r.users.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return domain.ErrVersionConflict
}
