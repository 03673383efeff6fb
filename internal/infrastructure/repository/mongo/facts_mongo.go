package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhubafrica/points-service/internal/domain"
)

type InterestRepository struct {
	interests *mongo.Collection
}

func NewInterestRepository(db *mongo.Database) *InterestRepository {
	return &InterestRepository{interests: db.Collection(interestsCollection)}
}

func (r *InterestRepository) CountApprovedByEmail(ctx context.Context, email string) (int, error) {
	n, err := r.interests.CountDocuments(ctx, bson.M{
		"email":  primitive.Regex{Pattern: "^" + regexp.QuoteMeta(email) + "$", Options: "i"},
		"status": string(domain.InterestApproved),
	})
	return int(n), err
}

type AwardRepository struct {
	awards *mongo.Collection
}

func NewAwardRepository(db *mongo.Database) *AwardRepository {
	return &AwardRepository{awards: db.Collection(awardsCollection)}
}

func (r *AwardRepository) Create(ctx context.Context, award *domain.PointAward) error {
	if award.ID == uuid.Nil {
		award.ID = uuid.New()
	}
	_, err := r.awards.InsertOne(ctx, awardDoc{
		ID:          award.ID.String(),
		UserID:      award.UserID.String(),
		Action:      award.Action,
		Points:      award.Points,
		Description: award.Description,
		CreatedAt:   award.CreatedAt,
	})
	return err
}

func (r *AwardRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID.String()}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$points"}}}},
	}
	cursor, err := r.awards.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var rows []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

type CourseRepository struct {
	courses *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{courses: db.Collection(coursesCollection)}
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var doc courseDoc
	err := r.courses.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.ToDomain()
}

func (r *CourseRepository) Save(ctx context.Context, course *domain.Course) error {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	_, err := r.courses.ReplaceOne(ctx,
		bson.M{"_id": course.ID.String()},
		newCourseDoc(course),
		options.Replace().SetUpsert(true))
	return err
}

type WaitlistRepository struct {
	waitlists *mongo.Collection
}

func NewWaitlistRepository(db *mongo.Database) *WaitlistRepository {
	return &WaitlistRepository{waitlists: db.Collection(waitlistsCollection)}
}

func waitingFilter(courseID uuid.UUID) bson.M {
	return bson.M{"courseId": courseID.String(), "status": string(domain.WaitlistWaiting)}
}

func (r *WaitlistRepository) CountWaiting(ctx context.Context, courseID uuid.UUID) (int64, error) {
	return r.waitlists.CountDocuments(ctx, waitingFilter(courseID))
}

func (r *WaitlistRepository) ListWaiting(ctx context.Context, courseID uuid.UUID) ([]domain.WaitlistEntry, error) {
	cursor, err := r.waitlists.Find(ctx, waitingFilter(courseID), options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []waitlistDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]domain.WaitlistEntry, 0, len(docs))
	for i := range docs {
		e, err := docs[i].ToDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *WaitlistRepository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.waitlists.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"status": string(domain.WaitlistNotified), "notifiedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrWaitlistNotFound
	}
	return nil
}
