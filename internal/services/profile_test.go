package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
)

func TestCustomSectionTitlesAreUnique(t *testing.T) {
	db := newMemDB()
	user := db.addUser(models.VisibilityPublic)
	svc := NewProfileService(memProfiles{db}, memFollows{db}, memUserGroups{db: db}, nil, nil, testLogger())
	ctx := context.Background()
	items := []models.SectionItem{{Label: "Squat", Detail: "180kg"}}

	resp, err := svc.CreateSection(ctx, user.Hex(), models.CustomSection{Title: " PRs ", Items: items})
	if err != nil {
		t.Fatalf("create section: %v", err)
	}
	if len(resp.Sections) != 1 || resp.Sections[0].Title != "PRs" {
		t.Fatalf("unexpected sections %+v", resp.Sections)
	}
	if _, err := svc.CreateSection(ctx, user.Hex(), models.CustomSection{Title: "PRs"}); !apperror.IsStatus(err, http.StatusConflict) {
		t.Fatalf("duplicate title should conflict got %v", err)
	}
	if _, err := svc.CreateSection(ctx, user.Hex(), models.CustomSection{Title: "Goals"}); err != nil {
		t.Fatalf("second section: %v", err)
	}

	if _, err := svc.UpdateSection(ctx, user.Hex(), "Goals", strPtr("PRs"), nil); !apperror.IsStatus(err, http.StatusConflict) {
		t.Fatalf("rename onto an existing title should conflict got %v", err)
	}
	if _, err := svc.UpdateSection(ctx, user.Hex(), "Missing", nil, items); !apperror.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("unknown section should be 404 got %v", err)
	}
	if _, err := svc.CreateSection(ctx, "64b7f0f0f0f0f0f0f0f0f0f0", models.CustomSection{Title: "PRs"}); !apperror.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("unknown profile should be 404 got %v", err)
	}

	if err := svc.DeleteSection(ctx, user.Hex(), "Goals"); err != nil {
		t.Fatalf("delete section: %v", err)
	}
	if err := svc.DeleteSection(ctx, user.Hex(), "Goals"); !apperror.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("deleting twice should be 404 got %v", err)
	}
}

func TestPrivateProfileHidesDetailsFromOthers(t *testing.T) {
	db := newMemDB()
	owner := db.addUser(models.VisibilityPrivate)
	db.profiles[owner].Bio = "training for a marathon"
	db.profiles[owner].Biometrics = &nutrition.Biometrics{Age: 30, Gender: nutrition.Female, HeightCm: 168, WeightKg: 60, ActivityLevel: nutrition.VeryActive}
	svc := NewProfileService(memProfiles{db}, memFollows{db}, memUserGroups{db: db}, nil, nil, testLogger())
	ctx := context.Background()

	own, err := svc.Get(ctx, owner.Hex(), owner.Hex())
	if err != nil || own.Bio == "" || own.Biometrics == nil {
		t.Fatalf("owner should see everything: %+v %v", own, err)
	}
	seen, err := svc.Get(ctx, db.addUser(models.VisibilityPublic).Hex(), owner.Hex())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if seen.Bio != "" || seen.Biometrics != nil {
		t.Fatalf("private details leaked: %+v", seen)
	}
}

func TestSectionLookupIgnoresSurroundingSpace(t *testing.T) {
	db := newMemDB()
	user := db.addUser(models.VisibilityPublic)
	svc := NewProfileService(memProfiles{db}, memFollows{db}, memUserGroups{db: db}, nil, nil, testLogger())
	ctx := context.Background()

	if _, err := svc.CreateSection(ctx, user.Hex(), models.CustomSection{Title: "Goals"}); err != nil {
		t.Fatalf("create section: %v", err)
	}
	items := []models.SectionItem{{Label: "Deadlift", Detail: "220kg"}}
	resp, err := svc.UpdateSection(ctx, user.Hex(), "Goals ", nil, items)
	if err != nil {
		t.Fatalf("padded title should match: %v", err)
	}
	if len(resp.Sections) != 1 || resp.Sections[0].Title != "Goals" || len(resp.Sections[0].Items) != 1 {
		t.Fatalf("unexpected sections %+v", resp.Sections)
	}
	if err := svc.DeleteSection(ctx, user.Hex(), "  Goals"); err != nil {
		t.Fatalf("padded delete should match: %v", err)
	}
}
