package pagination

import (
	"sort"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC), ID: primitive.NewObjectID()}
	got, err := Decode(c.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("expected id %s got %s", c.ID.Hex(), got.ID.Hex())
	}
	if got.CreatedAt.UnixMilli() != c.CreatedAt.UnixMilli() {
		t.Fatalf("expected ms %d got %d", c.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, token := range []string{"!!!", "bm9kb3Q", "YWJjLnp6eg"} {
		if _, err := Decode(token); err != ErrInvalidCursor {
			t.Fatalf("token %q: expected ErrInvalidCursor got %v", token, err)
		}
	}
}

func TestNewPageClampsLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultLimit},
		{in: -3, want: DefaultLimit},
		{in: 5, want: 5},
		{in: 1000, want: MaxLimit},
	}
	for _, tc := range tests {
		page, err := NewPage("", tc.in)
		if err != nil {
			t.Fatalf("new page: %v", err)
		}
		if page.Limit != tc.want {
			t.Fatalf("limit %d: expected %d got %d", tc.in, tc.want, page.Limit)
		}
	}
}

func TestFilterFirstPageIsEmpty(t *testing.T) {
	page, _ := NewPage("", 10)
	if len(page.Filter("created_at", "_id")) != 0 {
		t.Fatal("expected empty filter on first page")
	}
}

func TestFilterShape(t *testing.T) {
	c := Cursor{CreatedAt: time.UnixMilli(1700000000000).UTC(), ID: primitive.NewObjectID()}
	page := Page{After: &c, Limit: 10}
	f := page.Filter("created_at", "_id")
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected two-branch $or got %v", f)
	}
	tie := or[1].(bson.M)
	if tie["_id"].(bson.M)["$gt"] != c.ID {
		t.Fatalf("expected id tie-break with $gt got %v", tie)
	}
}

type row struct {
	id        primitive.ObjectID
	createdAt time.Time
}

func (r row) key() Cursor { return Cursor{CreatedAt: r.createdAt, ID: r.id} }

// page simulates the storage query: filter after cursor, sort, limit+1.
func page(all []row, p Page) Result[row] {
	var matched []row
	for _, r := range all {
		if p.After == nil || r.key().After(*p.After) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[j].key().After(matched[i].key())
	})
	if int64(len(matched)) > p.FetchLimit() {
		matched = matched[:p.FetchLimit()]
	}
	return Build(matched, p.Limit, row.key)
}

func TestPaginationIsStable(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var all []row
	// duplicate timestamps exercise the id tie-break
	for i := 0; i < 23; i++ {
		all = append(all, row{id: primitive.NewObjectID(), createdAt: base.Add(time.Duration(i/3) * time.Minute)})
	}

	for _, limit := range []int{1, 4, 7, 23, 50} {
		seen := map[primitive.ObjectID]bool{}
		var ordered []row
		p, _ := NewPage("", limit)
		for {
			res := page(all, p)
			for _, r := range res.Items {
				if seen[r.id] {
					t.Fatalf("limit %d: row %s returned twice", limit, r.id.Hex())
				}
				seen[r.id] = true
				ordered = append(ordered, r)
			}
			if !res.HasMore {
				break
			}
			next, err := NewPage(res.NextCursor, limit)
			if err != nil {
				t.Fatalf("next page: %v", err)
			}
			p = next
		}
		if len(ordered) != len(all) {
			t.Fatalf("limit %d: expected %d rows got %d", limit, len(all), len(ordered))
		}
		for i := 1; i < len(ordered); i++ {
			if !ordered[i].key().After(ordered[i-1].key()) {
				t.Fatalf("limit %d: rows out of order at %d", limit, i)
			}
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	res := Build[row](nil, 10, row.key)
	if res.Items == nil || len(res.Items) != 0 || res.HasMore || res.NextCursor != "" {
		t.Fatalf("unexpected empty result %+v", res)
	}
}
