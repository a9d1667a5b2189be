package apperror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassify(t *testing.T) {
	dupErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: fitcoach.users index: username_1 dup key: { username: "sam" }`,
	}}}
	validationErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    121,
		Message: "Document failed validation",
	}}}
	cmdErr := mongo.CommandError{Code: 13, Message: "not authorized"}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "api error passes through", err: Conflict("already a member"), status: http.StatusConflict, code: "conflict"},
		{name: "wrapped api error", err: fmt.Errorf("join: %w", Forbidden("not owner")), status: http.StatusForbidden, code: "forbidden"},
		{name: "no documents", err: mongo.ErrNoDocuments, status: http.StatusNotFound, code: "not_found"},
		{name: "duplicate key", err: dupErr, status: http.StatusConflict, code: "duplicate_key"},
		{name: "document validation", err: validationErr, status: http.StatusBadRequest, code: "validation_failed"},
		{name: "cast error", err: &CastError{Field: "groupId", Value: "nope"}, status: http.StatusBadRequest, code: "cast_error"},
		{name: "invalid hex", err: primitive.ErrInvalidHex, status: http.StatusBadRequest, code: "cast_error"},
		{name: "server error", err: cmdErr, status: http.StatusServiceUnavailable, code: "service_unavailable"},
		{name: "client disconnected", err: mongo.ErrClientDisconnected, status: http.StatusServiceUnavailable, code: "service_unavailable"},
		{name: "unclassified", err: errors.New("boom"), status: http.StatusInternalServerError, code: "internal_error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			if got.Status != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, got.Status)
			}
			if got.Code != tc.code {
				t.Fatalf("expected code %q got %q", tc.code, got.Code)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestFromStorageUnknown(t *testing.T) {
	got := FromStorage(context.Canceled)
	if got.Status != http.StatusInternalServerError || got.Message != "unknown database error" {
		t.Fatalf("unexpected translation: %+v", got)
	}
	if !errors.Is(got, context.Canceled) {
		t.Fatal("expected cause to be preserved")
	}
}

func TestDuplicateKeyDetails(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: fitcoach.users index: email_1 dup key: { email: "a@b.c" }`,
	}}}
	got := Classify(err)
	details, ok := got.Details.(DuplicateKeyDetails)
	if !ok {
		t.Fatalf("expected DuplicateKeyDetails got %T", got.Details)
	}
	if details.Key != "email" {
		t.Fatalf("expected key email got %q", details.Key)
	}
}

func TestMarshalJSON(t *testing.T) {
	err := Invalid("username", "must be 3-20 characters")
	raw, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("marshal: %v", marshalErr)
	}

	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Details struct {
			Kind   string       `json:"kind"`
			Fields []FieldError `json:"fields"`
		} `json:"details"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Success {
		t.Fatal("expected success false")
	}
	if body.Code != "validation_failed" || body.Details.Kind != "fields" {
		t.Fatalf("unexpected body %s", raw)
	}
	if len(body.Details.Fields) != 1 || body.Details.Fields[0].Field != "username" {
		t.Fatalf("unexpected fields %+v", body.Details.Fields)
	}
}

func TestMarshalJSONWithoutDetails(t *testing.T) {
	raw, err := json.Marshal(Forbidden("not allowed"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"success":false,"code":"forbidden","message":"not allowed"}`
	if string(raw) != want {
		t.Fatalf("expected %s got %s", want, raw)
	}
}
