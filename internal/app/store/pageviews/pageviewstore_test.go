package pageviewstore

import (
	"testing"
	"time"

	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2026, 3, 17, 13, 4, 5, 0, time.UTC))
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("MonthStart() = %v, want %v", got, want)
	}
}

// insertAt writes a view with an explicit timestamp.
func insertAt(t *testing.T, s *Store, appID primitive.ObjectID, at time.Time) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, err := s.c.InsertOne(ctx, models.PageView{ID: primitive.NewObjectID(), PageID: testutil.NewID(), AppID: appID, ViewedAt: at})
	if err != nil {
		t.Fatalf("insert view: %v", err)
	}
}

func TestStore_RollupAndMonthly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	lastMonth := MonthStart(now).AddDate(0, -1, 0).Add(time.Hour)
	a, b := testutil.NewID(), testutil.NewID()

	insertAt(t, store, a, lastMonth)
	insertAt(t, store, a, lastMonth)
	insertAt(t, store, b, lastMonth)
	if err := store.Record(ctx, testutil.NewID(), a); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	written, err := store.Rollup(ctx, now)
	if err != nil {
		t.Fatalf("Rollup() error = %v", err)
	}
	// last month: a, b, total; this month: a, total
	if written != 5 {
		t.Errorf("Rollup() = %d, want 5", written)
	}

	// Running again replaces rather than duplicates.
	_, _ = store.Rollup(ctx, now)
	n, _ := db.Collection(MonthlyCollectionName).CountDocuments(ctx, bson.M{})
	if n != 5 {
		t.Errorf("monthly docs = %d, want 5", n)
	}

	months, err := store.Monthly(ctx, &a, now, 12)
	if err != nil {
		t.Fatalf("Monthly() error = %v", err)
	}
	if len(months) != 12 {
		t.Fatalf("Monthly() len = %d, want 12", len(months))
	}
	if months[11].Month != now.Format(models.MonthLayout) || months[11].Count != 1 {
		t.Errorf("current month = %+v, want count 1", months[11])
	}
	if months[10].Count != 2 {
		t.Errorf("previous month = %+v, want count 2", months[10])
	}
	if months[0].Count != 0 {
		t.Errorf("oldest month = %+v, want zero", months[0])
	}

	all, _ := store.Monthly(ctx, nil, now, 12)
	if all[10].Count != 3 || all[11].Count != 1 {
		t.Errorf("totals = %d, %d, want 3, 1", all[10].Count, all[11].Count)
	}

	total, _ := store.ThisMonth(ctx, nil, now)
	if total != 1 {
		t.Errorf("ThisMonth() = %d, want 1", total)
	}
}

func TestStore_MonthlyAfterPageDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	lastMonth := MonthStart(now).AddDate(0, -1, 0).Add(time.Hour)
	oldest := MonthStart(now).AddDate(0, -3, 0).Add(time.Hour)
	app, gone, kept := testutil.NewID(), testutil.NewID(), testutil.NewID()

	for _, v := range []struct {
		page primitive.ObjectID
		at   time.Time
	}{{gone, lastMonth}, {gone, lastMonth}, {kept, lastMonth}, {gone, oldest}} {
		_, err := store.c.InsertOne(ctx, models.PageView{ID: primitive.NewObjectID(), PageID: v.page, AppID: app, ViewedAt: v.at})
		if err != nil {
			t.Fatalf("insert view: %v", err)
		}
	}
	if _, err := store.Rollup(ctx, now); err != nil {
		t.Fatalf("Rollup() error = %v", err)
	}
	if _, err := store.DeleteByPages(ctx, []primitive.ObjectID{gone}); err != nil {
		t.Fatalf("DeleteByPages() error = %v", err)
	}

	for _, appID := range []*primitive.ObjectID{&app, nil} {
		months, err := store.Monthly(ctx, appID, now, 12)
		if err != nil {
			t.Fatalf("Monthly() error = %v", err)
		}
		if months[10].Count != 1 {
			t.Errorf("previous month after delete = %d, want 1", months[10].Count)
		}
		if months[8].Count != 0 {
			t.Errorf("three months back after delete = %d, want 0", months[8].Count)
		}
	}
}

func TestStore_DeleteByPages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p1, p2 := testutil.NewID(), testutil.NewID()
	app := testutil.NewID()
	_ = store.Record(ctx, p1, app)
	_ = store.Record(ctx, p1, app)
	_ = store.Record(ctx, p2, app)

	n, err := store.DeleteByPages(ctx, []primitive.ObjectID{p1})
	if err != nil {
		t.Fatalf("DeleteByPages() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteByPages() = %d, want 2", n)
	}
	if n, _ := store.DeleteByPages(ctx, nil); n != 0 {
		t.Errorf("DeleteByPages(nil) = %d, want 0", n)
	}
}
