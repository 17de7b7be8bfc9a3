package repository

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"diarydesk/internal/model"
)

type mongoNoteRepository struct {
	coll *mongo.Collection
}

// newMongoNoteRepository builds a MongoDB-backed repository over the "notes" collection.
func newMongoNoteRepository(db *mongo.Database) *mongoNoteRepository {
	return &mongoNoteRepository{coll: db.Collection("notes")}
}

// EnsureIndexes creates the per-owner listing indexes.
func (r *mongoNoteRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "updatedAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "tags", Value: 1}},
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create note indexes: %w", err)
	}
	return nil
}

func (r *mongoNoteRepository) Create(ctx context.Context, note *model.Note) error {
	note.Normalize()
	if _, err := r.coll.InsertOne(ctx, note); err != nil {
		return translateMongoError(err)
	}
	return nil
}

func (r *mongoNoteRepository) FindByOwner(ctx context.Context, owner, id string) (*model.Note, error) {
	var note model.Note
	if err := r.coll.FindOne(ctx, ownedBy(owner, id)).Decode(&note); err != nil {
		return nil, translateMongoError(err)
	}
	return &note, nil
}

func (r *mongoNoteRepository) List(ctx context.Context, owner string, q NoteQuery) ([]model.Note, error) {
	filter := bson.M{"user": owner}
	if q.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": pattern},
		}
	}
	if q.Tag != "" {
		filter["tags"] = q.Tag
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(mongoSort(q.Sort)))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := []model.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}

func (r *mongoNoteRepository) Update(ctx context.Context, owner, id string, upd NoteUpdate) (*model.Note, error) {
	set := bson.M{"updatedAt": upd.UpdatedAt}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Tags != nil {
		set["tags"] = *upd.Tags
	}
	if upd.Attachments != nil {
		set["attachments"] = *upd.Attachments
	}
	if upd.Images != nil {
		set["images"] = *upd.Images
	}
	if upd.TodoItems != nil {
		set["todoItems"] = *upd.TodoItems
	}

	var note model.Note
	err := r.coll.FindOneAndUpdate(ctx, ownedBy(owner, id), bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&note)
	if err != nil {
		return nil, translateMongoError(err)
	}
	return &note, nil
}

func (r *mongoNoteRepository) Delete(ctx context.Context, owner, id string) (*model.Note, error) {
	var note model.Note
	if err := r.coll.FindOneAndDelete(ctx, ownedBy(owner, id)).Decode(&note); err != nil {
		return nil, translateMongoError(err)
	}
	return &note, nil
}

func (r *mongoNoteRepository) DeleteMany(ctx context.Context, owner string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"user": owner, "_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, translateMongoError(err)
	}
	return res.DeletedCount, nil
}

func (r *mongoNoteRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user": owner})
	if err != nil {
		return 0, translateMongoError(err)
	}
	return res.DeletedCount, nil
}

func ownedBy(owner, id string) bson.M {
	return bson.M{"_id": id, "user": owner}
}

func mongoSort(k SortKey) bson.D {
	switch k {
	case SortDateModified:
		return bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: 1}}
	case SortAlphabetical:
		return bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}
	case SortAlphabeticalDesc:
		return bson.D{{Key: "title", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}
	}
}
