// Package formutil decodes and validates JSON request bodies and ids for
// the /api handlers.
//
// A handler declares a request struct with json and validate tags and lets
// Bind answer the 400 when the body is malformed or invalid:
//
//	var req createAppRequest
//	if !formutil.Bind(w, r, &req) {
//		return
//	}
package formutil

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/dalemusser/docuverse/internal/app/system/inputval"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Messages returned for malformed input.
const (
	MsgInvalidJSON = "Invalid JSON body"
	MsgMissingBody = "Request body is required"
	MsgInvalidID   = "Invalid id"
)

// Bind decodes the body into dst (a pointer to a struct) and validates it.
// On failure it writes a 400 and returns false.
func Bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := jsonutil.Decode(r, dst); err != nil {
		if errors.Is(err, jsonutil.ErrEmptyBody) {
			jsonutil.BadRequest(w, MsgMissingBody)
		} else {
			jsonutil.BadRequest(w, MsgInvalidJSON)
		}
		return false
	}
	// Validate the struct value, not the pointer.
	if res := inputval.Validate(reflect.Indirect(reflect.ValueOf(dst)).Interface()); res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return false
	}
	return true
}

// ObjectID parses a hex id. Surrounding space is ignored.
func ObjectID(s string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// OptionalObjectID parses a hex id that may be blank. A blank value yields
// nil and ok; a malformed one yields ok=false.
func OptionalObjectID(s string) (*primitive.ObjectID, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	oid, ok := ObjectID(s)
	if !ok {
		return nil, false
	}
	return &oid, true
}

// QueryID reads a required id from the query string, writing a 400 naming
// the parameter when it is missing or malformed.
func QueryID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	raw := query.Get(r, name)
	if raw == "" {
		jsonutil.BadRequest(w, name+" is required")
		return primitive.NilObjectID, false
	}
	oid, ok := ObjectID(raw)
	if !ok {
		jsonutil.BadRequest(w, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return oid, true
}

// BodyID parses an id taken from a request body, writing a 400 when it is
// malformed.
func BodyID(w http.ResponseWriter, raw string) (primitive.ObjectID, bool) {
	oid, ok := ObjectID(raw)
	if !ok {
		jsonutil.BadRequest(w, MsgInvalidID)
	}
	return oid, ok
}
