package mongo

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jhubafrica/points-service/internal/domain"
)

type EnrollmentRepository struct {
	enrollments *mongo.Collection
}

func NewEnrollmentRepository(db *mongo.Database) *EnrollmentRepository {
	return &EnrollmentRepository{enrollments: db.Collection(enrollmentsCollection)}
}

func seatStatuses() bson.A {
	statuses := bson.A{}
	for _, s := range domain.SeatStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

func (r *EnrollmentRepository) CountByStudent(ctx context.Context, studentID uuid.UUID) (domain.EnrollmentCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"studentId": studentID.String(), "status": bson.M{"$in": seatStatuses()}}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.enrollments.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.EnrollmentCounts{}, err
	}
	var rows []struct {
		Status string `bson:"_id"`
		N      int    `bson:"n"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.EnrollmentCounts{}, err
	}

	var counts domain.EnrollmentCounts
	for _, row := range rows {
		switch domain.EnrollmentStatus(row.Status) {
		case domain.EnrollmentActive:
			counts.Active = row.N
		case domain.EnrollmentCompleted:
			counts.Completed = row.N
		}
	}
	return counts, nil
}

func (r *EnrollmentRepository) CountAll(ctx context.Context) (int64, error) {
	return r.enrollments.CountDocuments(ctx, bson.M{})
}

func (r *EnrollmentRepository) CountSeated(ctx context.Context, courseID uuid.UUID) (int64, error) {
	return r.enrollments.CountDocuments(ctx, bson.M{"courseId": courseID.String(), "status": bson.M{"$in": seatStatuses()}})
}

func (r *EnrollmentRepository) ListOrphaned(ctx context.Context) ([]domain.Enrollment, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "studentId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "student"},
		}}},
		{{Key: "$match", Value: bson.M{"student": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"student": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := r.enrollments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []enrollmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	list := make([]domain.Enrollment, 0, len(docs))
	for i := range docs {
		e, err := docs[i].ToDomain()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

func (r *EnrollmentRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	orphans, err := r.ListOrphaned(ctx)
	if err != nil || len(orphans) == 0 {
		return 0, err
	}
	ids := make(bson.A, 0, len(orphans))
	for _, e := range orphans {
		ids = append(ids, e.ID.String())
	}
	res, err := r.enrollments.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
