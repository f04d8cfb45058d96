package repo_test

import (
	"context"
	"reflect"
	"testing"

	"groundswell/internal/db"
	"groundswell/internal/domain"
	"groundswell/internal/repo"
	"groundswell/internal/schema"
)

func newRepo(t *testing.T) (repo.Repo, context.Context) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	if err := schema.New(conn).Ensure(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return repo.Repo{DB: conn}, ctx
}

func TestInitiativePatchFields(t *testing.T) {
	if !(repo.InitiativePatch{}).Empty() {
		t.Fatal("zero patch should be empty")
	}
	title := "x"
	state := domain.InitiativeFunded
	p := repo.InitiativePatch{Title: &title, State: &state}
	if p.Empty() {
		t.Fatal("patch with fields should not be empty")
	}
	if got, want := p.Fields(), []string{"title", "state"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
}

func TestListMilestonesByInitiativeOrdering(t *testing.T) {
	r, ctx := newRepo(t)
	initID, err := r.InsertInitiative(ctx, domain.Initiative{
		Title: "x", State: domain.InitiativeDraft, CreatedByIndividualID: 1,
	})
	if err != nil {
		t.Fatalf("insert initiative: %v", err)
	}
	oppID, err := r.InsertOpportunity(ctx, domain.Opportunity{
		InitiativeID: initID, Title: "w", Status: domain.OpportunityOpen,
	})
	if err != nil {
		t.Fatalf("insert opportunity: %v", err)
	}
	engID, err := r.InsertEngagement(ctx, domain.Engagement{
		InitiativeID: initID, OpportunityID: oppID, Status: domain.EngagementActive,
	})
	if err != nil {
		t.Fatalf("insert engagement: %v", err)
	}

	late, early := int64(2000), int64(1000)
	inserts := []domain.Milestone{
		{EngagementID: engID, Title: "no due date", Status: domain.MilestonePending},
		{EngagementID: engID, Title: "late", Status: domain.MilestonePending, DueAt: &late},
		{EngagementID: engID, Title: "early", Status: domain.MilestonePending, DueAt: &early},
	}
	for _, m := range inserts {
		if _, err := r.InsertMilestone(ctx, m); err != nil {
			t.Fatalf("insert milestone %q: %v", m.Title, err)
		}
	}

	got, err := r.ListMilestonesByInitiative(ctx, initID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Due dates ascending, undated entries last.
	if got[0].Title != "early" || got[1].Title != "late" || got[2].Title != "no due date" {
		t.Fatalf("order = %q, %q, %q", got[0].Title, got[1].Title, got[2].Title)
	}
}

func TestUpdateInitiativeNotFound(t *testing.T) {
	r, ctx := newRepo(t)
	title := "x"
	err := r.UpdateInitiative(ctx, 42, repo.InitiativePatch{Title: &title}, 0)
	if err != repo.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestParticipantUniqueness(t *testing.T) {
	r, ctx := newRepo(t)
	initID, err := r.InsertInitiative(ctx, domain.Initiative{
		Title: "x", State: domain.InitiativeDraft, CreatedByIndividualID: 1,
	})
	if err != nil {
		t.Fatalf("insert initiative: %v", err)
	}
	member := int64(5)
	row := domain.Participant{
		InitiativeID: initID,
		Kind:         domain.KindIndividual,
		IndividualID: &member,
		Role:         "contributor",
		Status:       domain.ParticipantInvited,
	}
	inserted, err := r.InsertParticipantIfAbsent(ctx, row)
	if err != nil || !inserted {
		t.Fatalf("first insert = (%v, %v), want (true, nil)", inserted, err)
	}
	inserted, err = r.InsertParticipantIfAbsent(ctx, row)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Fatal("duplicate insert should be a no-op")
	}
}
