// internal/app/store/pages/pagestore.go
package pagestore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	pageviewstore "github.com/dalemusser/docuverse/internal/app/store/pageviews"
	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/docuverse/internal/app/system/txn"
	"github.com/dalemusser/docuverse/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CollectionName holds every page of every app.
const CollectionName = "pages"

// SearchLimit caps the number of search results.
const SearchLimit = 10

var (
	// ErrNotFound is returned when no page matches.
	ErrNotFound = errors.New("Page not found")
	// ErrDuplicateSlug is returned when the scope already has a page with the slug.
	ErrDuplicateSlug = errors.New("A page with this slug already exists")
	// ErrCycle is returned when a parent change would make a page its own ancestor.
	ErrCycle = errors.New("A page cannot be moved under itself or its descendants")
	// ErrInvalidParent is returned when the parent is missing or in another scope.
	ErrInvalidParent = errors.New("Parent page not found in this version and language")
)

// Scope identifies the page set of one (app, version, language).
type Scope struct {
	AppID      primitive.ObjectID
	VersionID  primitive.ObjectID
	LanguageID primitive.ObjectID
}

func (sc Scope) filter() bson.M {
	return bson.M{"app_id": sc.AppID, "version_id": sc.VersionID, "language_id": sc.LanguageID}
}

// ScopeOf returns the scope a page belongs to.
func ScopeOf(p models.Page) Scope {
	return Scope{AppID: p.AppID, VersionID: p.VersionID, LanguageID: p.LanguageID}
}

// Store provides access to the pages collection.
type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a page store. logger may be nil.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{db: db, c: db.Collection(CollectionName), log: logger}
}

var sortOrder = bson.D{{Key: "order", Value: 1}, {Key: "title", Value: 1}, {Key: "_id", Value: 1}}

func (s *Store) findMany(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Page, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	pages := []models.Page{}
	if err := cur.All(ctx, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// ListScope returns the pages of one scope ordered by order, title and id.
func (s *Store) ListScope(ctx context.Context, sc Scope) ([]models.Page, error) {
	return s.findMany(ctx, sc.filter(), options.Find().SetSort(sortOrder))
}

// GetByID returns the page with the given id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Page, error) {
	var p models.Page
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// checkParent verifies that parentID names a page in sc.
func (s *Store) checkParent(ctx context.Context, sc Scope, parentID primitive.ObjectID) error {
	filter := sc.filter()
	filter["_id"] = parentID
	n, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidParent
	}
	return nil
}

// Create inserts a page. Its parent, if any, must be in the same scope.
func (s *Store) Create(ctx context.Context, p models.Page) (models.Page, error) {
	p.ID = primitive.NewObjectID()
	p.Slug = normalize.Slug(p.Slug)
	p.Title = normalize.Name(p.Title)
	if p.ParentID != nil {
		if err := s.checkParent(ctx, ScopeOf(p), *p.ParentID); err != nil {
			return models.Page{}, err
		}
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Page{}, ErrDuplicateSlug
		}
		return models.Page{}, err
	}
	return p, nil
}

// PageUpdate holds the fields an update may change. Parent is applied only
// when SetParent is true; a nil ParentID then moves the page to the root.
type PageUpdate struct {
	Title    *string
	Slug     *string
	Content  *string
	Order    *int
	IsFolder *bool

	SetParent bool
	ParentID  *primitive.ObjectID
}

// Update applies upd to the page. A parent change is rejected when the new
// parent is outside the scope or is the page itself or a descendant.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd PageUpdate) (*models.Page, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if upd.Title != nil {
		set["title"] = normalize.Name(*upd.Title)
	}
	if upd.Slug != nil {
		set["slug"] = normalize.Slug(*upd.Slug)
	}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	if upd.Order != nil {
		set["order"] = *upd.Order
	}
	if upd.IsFolder != nil {
		set["is_folder"] = *upd.IsFolder
	}
	if upd.SetParent {
		if upd.ParentID == nil {
			unset["parent_id"] = ""
		} else {
			sc := ScopeOf(*current)
			if err := s.checkParent(ctx, sc, *upd.ParentID); err != nil {
				return nil, err
			}
			pages, err := s.ListScope(ctx, sc)
			if err != nil {
				return nil, err
			}
			if createsCycle(parentMap(pages), id, *upd.ParentID) {
				return nil, ErrCycle
			}
			set["parent_id"] = *upd.ParentID
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var p models.Page
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &p, nil
}

func parentMap(pages []models.Page) map[primitive.ObjectID]*primitive.ObjectID {
	m := make(map[primitive.ObjectID]*primitive.ObjectID, len(pages))
	for _, p := range pages {
		m[p.ID] = p.ParentID
	}
	return m
}

// createsCycle reports whether giving id the parent newParent would put id
// on its own ancestor chain.
func createsCycle(parents map[primitive.ObjectID]*primitive.ObjectID, id, newParent primitive.ObjectID) bool {
	seen := map[primitive.ObjectID]bool{}
	for cur := &newParent; cur != nil; cur = parents[*cur] {
		if *cur == id {
			return true
		}
		if seen[*cur] {
			// An existing loop that does not pass through id.
			return false
		}
		seen[*cur] = true
	}
	return false
}

// ReorderItem is one entry of a drag-and-drop reorder.
type ReorderItem struct {
	ID       primitive.ObjectID
	Order    int
	ParentID *primitive.ObjectID
}

// Reorder applies new orders and parents to pages of a single scope in one
// transaction. The whole batch is rejected if any page is outside the
// scope or the result would contain a cycle.
func (s *Store) Reorder(ctx context.Context, items []ReorderItem) error {
	if len(items) == 0 {
		return nil
	}
	first, err := s.GetByID(ctx, items[0].ID)
	if err != nil {
		return err
	}
	pages, err := s.ListScope(ctx, ScopeOf(*first))
	if err != nil {
		return err
	}

	parents := parentMap(pages)
	for _, it := range items {
		if _, ok := parents[it.ID]; !ok {
			return ErrNotFound
		}
		if it.ParentID != nil {
			if _, ok := parents[*it.ParentID]; !ok {
				return ErrInvalidParent
			}
		}
		parents[it.ID] = it.ParentID
	}
	for _, it := range items {
		if it.ParentID != nil && createsCycle(parents, it.ID, *it.ParentID) {
			return ErrCycle
		}
	}

	now := time.Now().UTC()
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		for _, it := range items {
			update := bson.M{"$set": bson.M{"order": it.Order, "updated_at": now}}
			if it.ParentID == nil {
				update["$unset"] = bson.M{"parent_id": ""}
			} else {
				update["$set"].(bson.M)["parent_id"] = *it.ParentID
			}
			if _, err := s.c.UpdateOne(ctx, bson.M{"_id": it.ID}, update); err != nil {
				return err
			}
		}
		return nil
	})
}

// descendants returns id and every page below it, using an in-memory copy of
// the scope so a corrupt parent loop cannot run forever.
func descendants(pages []models.Page, id primitive.ObjectID) []primitive.ObjectID {
	children := map[primitive.ObjectID][]primitive.ObjectID{}
	for _, p := range pages {
		if p.ParentID != nil {
			children[*p.ParentID] = append(children[*p.ParentID], p.ID)
		}
	}

	seen := map[primitive.ObjectID]bool{id: true}
	out := []primitive.ObjectID{id}
	for i := 0; i < len(out); i++ {
		for _, c := range children[out[i]] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Delete removes the page, its descendants and their views in one
// transaction. It returns the number of pages removed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	pages, err := s.ListScope(ctx, ScopeOf(*p))
	if err != nil {
		return 0, err
	}
	ids := descendants(pages, id)

	var deleted int64
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		_, err = pageviewstore.New(s.db).DeleteByPages(ctx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteWhere removes every page matching filter and their views. It is
// used by version and language cascades and runs in the caller's ctx, so
// it joins any transaction in progress.
func DeleteWhere(ctx context.Context, db *mongo.Database, filter bson.M) error {
	c := db.Collection(CollectionName)
	cur, err := c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return err
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	if _, err := c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return err
	}
	if _, err := pageviewstore.New(db).DeleteByPages(ctx, ids); err != nil {
		return fmt.Errorf("delete page views: %w", err)
	}
	return nil
}

// SearchQuery narrows a search to an app and optionally one version and
// language.
type SearchQuery struct {
	AppID      primitive.ObjectID
	VersionID  *primitive.ObjectID
	LanguageID *primitive.ObjectID
	Text       string
}

// Search returns up to SearchLimit pages whose title or content contains
// the text, ignoring case.
func (s *Store) Search(ctx context.Context, q SearchQuery) ([]models.Page, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return []models.Page{}, nil
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}

	filter := bson.M{
		"app_id": q.AppID,
		"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"content": pattern},
		},
	}
	if q.VersionID != nil {
		filter["version_id"] = *q.VersionID
	}
	if q.LanguageID != nil {
		filter["language_id"] = *q.LanguageID
	}
	return s.findMany(ctx, filter, options.Find().SetSort(sortOrder).SetLimit(SearchLimit))
}

// Count returns the number of pages across all apps.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
