// internal/app/store/pageviews/pageviewstore.go
package pageviewstore

import (
	"context"
	"time"

	"github.com/dalemusser/docuverse/internal/app/system/txn"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// CollectionName holds raw view events.
	CollectionName = "page_views"
	// MonthlyCollectionName holds per-month snapshots maintained by Rollup.
	MonthlyCollectionName = "page_view_monthly"
)

// Store records page views and reads monthly counts.
type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	monthly *mongo.Collection
}

// New creates a page view store.
func New(db *mongo.Database) *Store {
	return &Store{
		db:      db,
		c:       db.Collection(CollectionName),
		monthly: db.Collection(MonthlyCollectionName),
	}
}

// Record appends a view event for the page.
func (s *Store) Record(ctx context.Context, pageID, appID primitive.ObjectID) error {
	_, err := s.c.InsertOne(ctx, models.PageView{
		ID:       primitive.NewObjectID(),
		PageID:   pageID,
		AppID:    appID,
		ViewedAt: time.Now().UTC(),
	})
	return err
}

// DeleteByPages removes the view events of the given pages.
func (s *Store) DeleteByPages(ctx context.Context, pageIDs []primitive.ObjectID) (int64, error) {
	if len(pageIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"page_id": bson.M{"$in": pageIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func appFilter(appID *primitive.ObjectID, start, end time.Time) bson.M {
	filter := bson.M{"viewed_at": bson.M{"$gte": start, "$lt": end}}
	if appID != nil {
		filter["app_id"] = *appID
	}
	return filter
}

// ThisMonth counts views since the start of now's month. A nil appID
// counts across all apps.
func (s *Store) ThisMonth(ctx context.Context, appID *primitive.ObjectID, now time.Time) (int64, error) {
	start := MonthStart(now)
	return s.c.CountDocuments(ctx, appFilter(appID, start, start.AddDate(0, 1, 0)))
}

// Rollup recomputes the monthly counts for now's month and the one before
// it, per app and in total. It returns the number of buckets written.
func (s *Store) Rollup(ctx context.Context, now time.Time) (int, error) {
	current := MonthStart(now)
	written := 0
	for _, start := range []time.Time{current.AddDate(0, -1, 0), current} {
		n, err := s.rollupMonth(ctx, start, start.AddDate(0, 1, 0))
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (s *Store) rollupMonth(ctx context.Context, start, end time.Time) (int, error) {
	month := start.Format(models.MonthLayout)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"viewed_at": bson.M{"$gte": start, "$lt": end}}}},
		{{Key: "$group", Value: bson.M{"_id": "$app_id", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		AppID primitive.ObjectID `bson:"_id"`
		Count int64              `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(rows)+1)
	var total int64
	for _, r := range rows {
		id := r.AppID
		total += r.Count
		docs = append(docs, models.MonthlyViews{Month: month, AppID: &id, Count: r.Count, UpdatedAt: now})
	}
	docs = append(docs, models.MonthlyViews{Month: month, Count: total, UpdatedAt: now})

	// Replace the month wholesale so apps whose views were deleted drop out.
	err = txn.Run(ctx, s.db, nil, func(ctx context.Context) error {
		if _, err := s.monthly.DeleteMany(ctx, bson.M{"month": month}); err != nil {
			return err
		}
		_, err := s.monthly.InsertMany(ctx, docs)
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Monthly returns view counts for the given number of months ending with
// now's month, oldest first. Months without data are zero. Counts are
// taken from the raw events so deleted pages and apps drop out at once.
func (s *Store) Monthly(ctx context.Context, appID *primitive.ObjectID, now time.Time, months int) ([]models.MonthlyViews, error) {
	if months <= 0 {
		months = 12
	}
	current := MonthStart(now)
	first := current.AddDate(0, -(months - 1), 0)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: appFilter(appID, first, current.AddDate(0, 1, 0))}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format":   "%Y-%m",
				"date":     "$viewed_at",
				"timezone": "UTC",
			}},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Month string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Month] = r.Count
	}

	out := make([]models.MonthlyViews, months)
	for i := range out {
		k := first.AddDate(0, i, 0).Format(models.MonthLayout)
		out[i] = models.MonthlyViews{Month: k, AppID: appID, Count: counts[k]}
	}
	return out, nil
}
