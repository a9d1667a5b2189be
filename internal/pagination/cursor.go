// Package pagination implements keyset pagination over (created_at DESC, _id ASC).
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is the last-seen sort key of a page.
type Cursor struct {
	CreatedAt time.Time
	ID        primitive.ObjectID
}

// Page is a request for one page of results.
type Page struct {
	After *Cursor
	Limit int
}

// Result is a page of items plus the cursor for the next page.
type Result[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Encode renders the cursor as an opaque url-safe token. Mongo stores dates
// with millisecond precision so the cursor does too.
func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixMilli(), 10) + "." + c.ID.Hex()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode.
func Decode(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	ms, hex, ok := strings.Cut(string(raw), ".")
	if !ok {
		return Cursor{}, ErrInvalidCursor
	}
	millis, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{CreatedAt: time.UnixMilli(millis).UTC(), ID: id}, nil
}

// NewPage validates the raw query values. An empty token means the first page.
func NewPage(token string, limit int) (Page, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	page := Page{Limit: limit}
	if token == "" {
		return page, nil
	}
	c, err := Decode(token)
	if err != nil {
		return Page{}, err
	}
	page.After = &c
	return page, nil
}

// Filter returns the keyset predicate selecting rows strictly after the cursor,
// or an empty document for the first page.
func (p Page) Filter(timeField, idField string) bson.M {
	if p.After == nil {
		return bson.M{}
	}
	t := primitive.NewDateTimeFromTime(p.After.CreatedAt)
	return bson.M{"$or": bson.A{
		bson.M{timeField: bson.M{"$lt": t}},
		bson.M{timeField: t, idField: bson.M{"$gt": p.After.ID}},
	}}
}

// Sort is the ordering every paginated query must use.
func Sort(timeField, idField string) bson.D {
	return bson.D{{Key: timeField, Value: -1}, {Key: idField, Value: 1}}
}

// FetchLimit is one more than the page size so HasMore needs no count query.
func (p Page) FetchLimit() int64 {
	return int64(p.Limit) + 1
}

// Build trims a limit+1 fetch down to the page and computes the next cursor.
func Build[T any](rows []T, limit int, key func(T) Cursor) Result[T] {
	res := Result[T]{Items: rows}
	if res.Items == nil {
		res.Items = []T{}
	}
	if len(rows) > limit {
		res.Items = rows[:limit]
		res.HasMore = true
		res.NextCursor = key(res.Items[limit-1]).Encode()
	}
	return res
}

// After reports whether c sorts strictly after the cursor in
// (created_at DESC, _id ASC) order.
func (c Cursor) After(other Cursor) bool {
	a, b := c.CreatedAt.UnixMilli(), other.CreatedAt.UnixMilli()
	if a != b {
		return a < b
	}
	return strings.Compare(c.ID.Hex(), other.ID.Hex()) > 0
}
