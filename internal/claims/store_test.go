package claims_test

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/kylejryan/vehicle-claims-api/internal/claims"
	"github.com/kylejryan/vehicle-claims-api/internal/memory"
	"github.com/kylejryan/vehicle-claims-api/internal/models"
	"github.com/kylejryan/vehicle-claims-api/internal/validate"
)

func str(s string) *string { return &s }

func validFields() claims.Fields {
	return claims.Fields{
		CompanyReference:   str("C1"),
		PolicyNumber:       str("P100"),
		IncidentDate:       str("2024-01-01"),
		DamageToVehicle:    str("dent"),
		RegistrationNumber: str("AB12CDE"),
	}
}

// fixedClock returns a clock that only moves when advanced.
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newStore(t *testing.T) (*claims.Store, *fixedClock) {
	t.Helper()
	clk := &fixedClock{t: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)}
	return claims.NewStore(memory.NewStore(), claims.WithClock(clk.now)), clk
}

func TestInsert_DefaultsAndGeneratedFields(t *testing.T) {
	ctx := context.Background()
	s, clk := newStore(t)

	c, err := s.Insert(ctx, validFields())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated id")
	}
	if c.Status != models.StatusPending {
		t.Fatalf("status = %q, want Pending", c.Status)
	}
	if !c.CreatedAt.Equal(clk.t) || !c.UpdatedAt.Equal(clk.t) {
		t.Fatalf("timestamps = %v/%v, want %v", c.CreatedAt, c.UpdatedAt, clk.t)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !c.IncidentDate.Equal(want) {
		t.Fatalf("incidentDate = %v, want %v", c.IncidentDate, want)
	}

	got, err := s.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != c {
		t.Fatalf("find returned %+v, want %+v", got, c)
	}
}

func TestInsert_ExplicitStatus(t *testing.T) {
	f := validFields()
	f.Status = str("Approved")

	s, _ := newStore(t)
	c, err := s.Insert(context.Background(), f)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if c.Status != models.StatusApproved {
		t.Fatalf("status = %q, want Approved", c.Status)
	}
}

func TestInsert_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*claims.Fields)
		fields []string
	}{
		{"missing company", func(f *claims.Fields) { f.CompanyReference = nil }, []string{"companyReference"}},
		{"blank policy", func(f *claims.Fields) { f.PolicyNumber = str("   ") }, []string{"policyNumber"}},
		{"missing date", func(f *claims.Fields) { f.IncidentDate = nil }, []string{"incidentDate"}},
		{"bad date", func(f *claims.Fields) { f.IncidentDate = str("yesterday") }, []string{"incidentDate"}},
		{"bad status", func(f *claims.Fields) { f.Status = str("Lost") }, []string{"status"}},
		{"empty status", func(f *claims.Fields) { f.Status = str("") }, []string{"status"}},
		{"several", func(f *claims.Fields) {
			f.DamageToVehicle = nil
			f.RegistrationNumber = str("")
		}, []string{"damageToVehicle", "registrationNumber"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newStore(t)
			f := validFields()
			tt.mutate(&f)

			_, err := s.Insert(context.Background(), f)
			if claims.KindOf(err) != claims.KindValidation {
				t.Fatalf("kind = %v (err=%v), want validation", claims.KindOf(err), err)
			}
			var verrs validate.Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected validate.Errors in chain, got %T", err)
			}
			got := verrs.Fields()
			if len(got) != len(tt.fields) {
				t.Fatalf("fields = %v, want %v", got, tt.fields)
			}
			for i := range got {
				if got[i] != tt.fields[i] {
					t.Fatalf("fields = %v, want %v", got, tt.fields)
				}
			}

			all, _ := s.FindAll(context.Background())
			if len(all) != 0 {
				t.Fatalf("invalid claim was stored: %+v", all)
			}
		})
	}
}

func TestUpdateByID_MergesAndAdvancesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	s, clk := newStore(t)

	created, err := s.Insert(ctx, validFields())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Clock has not moved: updatedAt must still advance.
	updated, err := s.UpdateByID(ctx, created.ID, claims.Fields{Status: str("Approved")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.StatusApproved {
		t.Fatalf("status = %q, want Approved", updated.Status)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updatedAt %v did not advance past %v", updated.UpdatedAt, created.UpdatedAt)
	}
	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("id/createdAt changed: %+v vs %+v", updated, created)
	}
	if updated.PolicyNumber != created.PolicyNumber || updated.RegistrationNumber != created.RegistrationNumber {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	clk.t = clk.t.Add(time.Hour)
	again, err := s.UpdateByID(ctx, created.ID, claims.Fields{DamageToVehicle: str("scratch")})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if !again.UpdatedAt.Equal(clk.t) {
		t.Fatalf("updatedAt = %v, want %v", again.UpdatedAt, clk.t)
	}
	if again.Status != models.StatusApproved {
		t.Fatalf("status lost on second update: %q", again.Status)
	}

	stored, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored != again {
		t.Fatalf("stored %+v, want %+v", stored, again)
	}
}

func TestUpdateByID_RejectsInvalidMerge(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	created, err := s.Insert(ctx, validFields())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	for name, f := range map[string]claims.Fields{
		"blank required": {PolicyNumber: str("")},
		"bad status":     {Status: str("Archived")},
		"bad date":       {IncidentDate: str("13/13/2024")},
	} {
		_, err := s.UpdateByID(ctx, created.ID, f)
		if claims.KindOf(err) != claims.KindValidation {
			t.Errorf("%s: kind = %v (err=%v), want validation", name, claims.KindOf(err), err)
		}
	}

	stored, _ := s.FindByID(ctx, created.ID)
	if stored != created {
		t.Fatalf("rejected update modified the record: %+v", stored)
	}
}

func TestUpdateByID_RejectsExplicitNulls(t *testing.T) {
	ctx := context.Background()
	s, clk := newStore(t)

	created, err := s.Insert(ctx, validFields())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	clk.t = clk.t.Add(time.Minute)

	var f claims.Fields
	if err := json.Unmarshal([]byte(`{"policyNumber":null,"Status":null,"damageToVehicle":"scratch"}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Empty() || !f.Null("policyNumber") || !f.Null("status") || f.Null("damageToVehicle") {
		t.Fatalf("nulls not recorded: %+v", f)
	}

	_, err = s.UpdateByID(ctx, created.ID, f)
	var verrs validate.Errors
	if claims.KindOf(err) != claims.KindValidation || !errors.As(err, &verrs) {
		t.Fatalf("kind = %v (err=%v), want validation", claims.KindOf(err), err)
	}
	if !verrs.Has("policyNumber") || !verrs.Has("status") || len(verrs) != 2 {
		t.Fatalf("fields = %v, want policyNumber and status", verrs.Fields())
	}

	stored, _ := s.FindByID(ctx, created.ID)
	if stored != created {
		t.Fatalf("rejected update modified the record: %+v", stored)
	}
}

func TestInsert_RejectsExplicitNulls(t *testing.T) {
	s, _ := newStore(t)

	f := validFields()
	f.IncidentDate = nil
	f.SetNull("incidentDate")

	_, err := s.Insert(context.Background(), f)
	var verrs validate.Errors
	if !errors.As(err, &verrs) || !slices.Equal(verrs.Fields(), []string{"incidentDate"}) {
		t.Fatalf("err = %v, want incidentDate required", err)
	}
}

func TestNotFoundAndInvalidID(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	missing := memory.NewStore().NewID()

	if _, err := s.FindByID(ctx, missing); claims.KindOf(err) != claims.KindNotFound {
		t.Errorf("find missing: kind = %v", claims.KindOf(err))
	}
	if _, err := s.UpdateByID(ctx, missing, claims.Fields{Status: str("Approved")}); claims.KindOf(err) != claims.KindNotFound {
		t.Errorf("update missing: kind = %v", claims.KindOf(err))
	}
	if err := s.DeleteByID(ctx, missing); claims.KindOf(err) != claims.KindNotFound {
		t.Errorf("delete missing: kind = %v", claims.KindOf(err))
	}

	if _, err := s.FindByID(ctx, "not-an-id"); claims.KindOf(err) != claims.KindInvalidID {
		t.Errorf("find bad id: kind = %v", claims.KindOf(err))
	} else if !errors.Is(err, claims.ErrInvalidID) {
		t.Errorf("find bad id: expected ErrInvalidID in chain, got %v", err)
	}
	if _, err := s.UpdateByID(ctx, "not-an-id", claims.Fields{}); claims.KindOf(err) != claims.KindInvalidID {
		t.Errorf("update bad id: kind = %v", claims.KindOf(err))
	}
	if err := s.DeleteByID(ctx, "not-an-id"); claims.KindOf(err) != claims.KindInvalidID {
		t.Errorf("delete bad id: kind = %v", claims.KindOf(err))
	}
}

func TestDeleteThenFind(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	c, err := s.Insert(ctx, validFields())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.DeleteByID(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.FindByID(ctx, c.ID); claims.KindOf(err) != claims.KindNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestFindAll_ReturnsLiveRecordsInCreationOrder(t *testing.T) {
	ctx := context.Background()
	s, clk := newStore(t)

	if all, err := s.FindAll(ctx); err != nil || all == nil || len(all) != 0 {
		t.Fatalf("empty store: all=%v err=%v, want empty non-nil slice", all, err)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		c, err := s.Insert(ctx, validFields())
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		ids = append(ids, c.ID)
		clk.t = clk.t.Add(time.Second)
	}
	if err := s.DeleteByID(ctx, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	all, err := s.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 2 || all[0].ID != ids[0] || all[1].ID != ids[2] {
		t.Fatalf("find all = %+v, want ids %s,%s", all, ids[0], ids[2])
	}
}

// brokenRepo fails every call the way an unreachable database would.
type brokenRepo struct{ *memory.Store }

var errDown = errors.New("connection refused")

func (brokenRepo) List(context.Context) ([]models.Claim, error)     { return nil, errDown }
func (brokenRepo) Insert(context.Context, models.Claim) error       { return errDown }
func (brokenRepo) Get(context.Context, string) (models.Claim, error) { return models.Claim{}, errDown }
func (brokenRepo) Ping(context.Context) error                        { return errDown }

func TestUnavailableRepository(t *testing.T) {
	ctx := context.Background()
	s := claims.NewStore(brokenRepo{memory.NewStore()})

	if _, err := s.FindAll(ctx); claims.KindOf(err) != claims.KindUnavailable || !errors.Is(err, errDown) {
		t.Errorf("find all: kind=%v err=%v", claims.KindOf(err), err)
	}
	if _, err := s.Insert(ctx, validFields()); claims.KindOf(err) != claims.KindUnavailable {
		t.Errorf("insert: kind=%v err=%v", claims.KindOf(err), err)
	}
	if err := s.Ping(ctx); !errors.Is(err, errDown) {
		t.Errorf("ping: err=%v", err)
	}
}

// racingRepo bumps the stored version between Get and Replace.
type racingRepo struct {
	*memory.Store
}

func (r racingRepo) Get(ctx context.Context, id string) (models.Claim, error) {
	c, err := r.Store.Get(ctx, id)
	if err != nil {
		return c, err
	}
	bumped := c
	bumped.Version++
	if err := r.Store.Replace(ctx, bumped, c.Version); err != nil {
		return c, err
	}
	return c, nil
}

func TestUpdateByID_Conflict(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()

	created, err := claims.NewStore(mem).Insert(ctx, validFields())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	s := claims.NewStore(racingRepo{Store: mem})
	_, err = s.UpdateByID(ctx, created.ID, claims.Fields{Status: str("Rejected")})
	if claims.KindOf(err) != claims.KindConflict {
		t.Fatalf("kind = %v (err=%v), want conflict", claims.KindOf(err), err)
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	if k := claims.KindOf(errors.New("boom")); k != claims.KindUnavailable {
		t.Fatalf("KindOf(foreign) = %v, want unavailable", k)
	}
}
