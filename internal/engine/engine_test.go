package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"groundswell/internal/config"
	"groundswell/internal/db"
	"groundswell/internal/domain"
	"groundswell/internal/engine"
	"groundswell/internal/ledger"
	"groundswell/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func actor(id int64) engine.Actor {
	return engine.Actor{IndividualID: id}
}

func attestationsFor(t *testing.T, env testEnv, initiativeID int64) []domain.Attestation {
	t.Helper()
	items, err := env.Engine.ListAttestations(env.Ctx, &initiativeID, 0)
	if err != nil {
		t.Fatalf("list attestations: %v", err)
	}
	return items
}

func hasAttestation(items []domain.Attestation, attType string) bool {
	for _, a := range items {
		if a.Type == attType {
			return true
		}
	}
	return false
}

func TestCreateInitiativeDefaults(t *testing.T) {
	env := newTestEnv(t)
	in, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{
		Title: "Flood Relief",
	}, actor(7))
	if err != nil {
		t.Fatalf("create initiative: %v", err)
	}
	if in.State != domain.InitiativeDraft {
		t.Fatalf("state = %s, want draft", in.State)
	}
	if in.CreatedByIndividualID != 7 {
		t.Fatalf("created_by = %d, want 7", in.CreatedByIndividualID)
	}

	parts, err := env.Engine.Repo.ListParticipants(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("participants = %d, want 1", len(parts))
	}
	steward := parts[0]
	if steward.Role != "steward" || steward.Status != domain.ParticipantActive {
		t.Fatalf("steward row = %s/%s", steward.Role, steward.Status)
	}
	if steward.IndividualID == nil || *steward.IndividualID != 7 {
		t.Fatalf("steward individual = %v, want 7", steward.IndividualID)
	}

	atts := attestationsFor(t, env, in.ID)
	if len(atts) != 1 || atts[0].Type != "initiative.created" {
		t.Fatalf("attestations = %+v, want one initiative.created", atts)
	}
	if atts[0].ActorIndividualID == nil || *atts[0].ActorIndividualID != 7 {
		t.Fatalf("attestation actor = %v, want 7", atts[0].ActorIndividualID)
	}
}

func TestCreateInitiativeValidation(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{}, actor(7)); err == nil {
		t.Fatal("expected error for missing title")
	}
	if _, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, engine.Actor{}); err == nil {
		t.Fatal("expected error for missing actor")
	}
	if _, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{
		Title: "x", State: "bogus",
	}, actor(7)); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestCreateInitiativeWithParticipants(t *testing.T) {
	env := newTestEnv(t)
	member := int64(11)
	orgID := int64(3)
	in, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{
		Title: "Shared effort",
		Participants: []engine.ParticipantInput{
			{Kind: domain.KindIndividual, IndividualID: &member, Role: "contributor"},
			{Kind: domain.KindOrganization, OrganizationID: &orgID},
		},
	}, actor(7))
	if err != nil {
		t.Fatalf("create initiative: %v", err)
	}
	parts, err := env.Engine.Repo.ListParticipants(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("participants = %d, want 3 (steward + two initial)", len(parts))
	}
	var orgRow *domain.Participant
	for i := range parts {
		if parts[i].Kind == domain.KindOrganization {
			orgRow = &parts[i]
		}
	}
	if orgRow == nil {
		t.Fatal("organization participant missing")
	}
	if orgRow.Role != "observer" || orgRow.Status != domain.ParticipantInvited {
		t.Fatalf("org defaults = %s/%s, want observer/invited", orgRow.Role, orgRow.Status)
	}
}

func TestUpdateInitiativeMergePatch(t *testing.T) {
	env := newTestEnv(t)
	in, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{
		Title:   "Original",
		Summary: "keep me",
	}, actor(7))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Renamed"
	updated, err := env.Engine.UpdateInitiative(env.Ctx, in.ID, repo.InitiativePatch{Title: &title}, actor(7))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("title = %q", updated.Title)
	}
	if updated.Summary != "keep me" {
		t.Fatalf("summary = %q, patch must not clear unset fields", updated.Summary)
	}

	state := domain.InitiativeChartered
	updated, err = env.Engine.UpdateInitiative(env.Ctx, in.ID, repo.InitiativePatch{State: &state}, actor(7))
	if err != nil {
		t.Fatalf("update state: %v", err)
	}
	if updated.State != domain.InitiativeChartered {
		t.Fatalf("state = %s", updated.State)
	}

	atts := attestationsFor(t, env, in.ID)
	count := 0
	for _, a := range atts {
		if a.Type == "initiative.updated" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("initiative.updated attestations = %d, want 2", count)
	}

	badState := domain.InitiativeState("bogus")
	if _, err := env.Engine.UpdateInitiative(env.Ctx, in.ID, repo.InitiativePatch{State: &badState}, actor(7)); err == nil {
		t.Fatal("expected error for unknown state")
	}
	if _, err := env.Engine.UpdateInitiative(env.Ctx, 9999, repo.InitiativePatch{Title: &title}, actor(7)); err == nil {
		t.Fatal("expected not found")
	}
}

func TestUpdateInitiativeEmptyPatch(t *testing.T) {
	env := newTestEnv(t)

	missing := int64(9999)
	var nfe engine.NotFoundError
	if _, err := env.Engine.UpdateInitiative(env.Ctx, missing, repo.InitiativePatch{}, actor(7)); !errors.As(err, &nfe) {
		t.Fatalf("empty patch on missing initiative: err = %v, want NotFoundError", err)
	}
	if atts := attestationsFor(t, env, missing); len(atts) != 0 {
		t.Fatalf("attestations for missing initiative = %d, want 0", len(atts))
	}

	in, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "Steady"}, actor(7))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := env.Engine.UpdateInitiative(env.Ctx, in.ID, repo.InitiativePatch{}, actor(7))
	if err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if got.Title != "Steady" {
		t.Fatalf("title = %q", got.Title)
	}
	for _, a := range attestationsFor(t, env, in.ID) {
		if a.Type == "initiative.updated" {
			t.Fatal("empty patch must not record initiative.updated")
		}
	}
}

func TestParticipantAddIdempotent(t *testing.T) {
	env := newTestEnv(t)
	in, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	member := int64(12)
	input := engine.ParticipantInput{Kind: domain.KindIndividual, IndividualID: &member, Role: "contributor"}
	for i := 0; i < 2; i++ {
		if err := env.Engine.UpsertParticipant(env.Ctx, in.ID, "add", input, actor(7)); err != nil {
			t.Fatalf("add participant (round %d): %v", i+1, err)
		}
	}
	parts, err := env.Engine.Repo.ListParticipants(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("participants = %d, want 2 (steward + one member)", len(parts))
	}
}

func TestParticipantRemoveAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	in, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	member := int64(12)
	input := engine.ParticipantInput{Kind: domain.KindIndividual, IndividualID: &member}
	if err := env.Engine.UpsertParticipant(env.Ctx, in.ID, "add", input, actor(7)); err != nil {
		t.Fatalf("add: %v", err)
	}

	update := input
	update.Role = "reviewer"
	update.Status = domain.ParticipantActive
	if err := env.Engine.UpsertParticipant(env.Ctx, in.ID, "update", update, actor(7)); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := env.Engine.UpsertParticipant(env.Ctx, in.ID, "remove", input, actor(7)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	parts, err := env.Engine.Repo.ListParticipants(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var found *domain.Participant
	for i := range parts {
		if parts[i].IndividualID != nil && *parts[i].IndividualID == member {
			found = &parts[i]
		}
	}
	if found == nil {
		t.Fatal("removed participant should still be listed")
	}
	if found.Status != domain.ParticipantRemoved {
		t.Fatalf("status = %s, want removed", found.Status)
	}
	if found.Role != "reviewer" {
		t.Fatalf("role = %q, want reviewer from earlier update", found.Role)
	}

	// Removing someone never added is tolerated.
	ghost := int64(999)
	if err := env.Engine.UpsertParticipant(env.Ctx, in.ID, "remove",
		engine.ParticipantInput{Kind: domain.KindIndividual, IndividualID: &ghost}, actor(7)); err != nil {
		t.Fatalf("remove absent: %v", err)
	}

	atts := attestationsFor(t, env, in.ID)
	for _, want := range []string{"initiative.participant.added", "initiative.participant.updated", "initiative.participant.removed"} {
		if !hasAttestation(atts, want) {
			t.Fatalf("missing attestation %s", want)
		}
	}
}

func TestOpportunityEventTypes(t *testing.T) {
	env := newTestEnv(t)
	in, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	draft, err := env.Engine.CreateOpportunity(env.Ctx, in.ID, engine.OpportunityCreateOptions{Title: "Draft work"}, actor(7))
	if err != nil {
		t.Fatalf("create draft opportunity: %v", err)
	}
	if draft.Status != domain.OpportunityDraft {
		t.Fatalf("status = %s, want draft", draft.Status)
	}

	open, err := env.Engine.CreateOpportunity(env.Ctx, in.ID, engine.OpportunityCreateOptions{
		Title:  "Open work",
		Status: domain.OpportunityOpen,
	}, actor(7))
	if err != nil {
		t.Fatalf("create open opportunity: %v", err)
	}
	if open.Status != domain.OpportunityOpen {
		t.Fatalf("status = %s, want open", open.Status)
	}

	atts := attestationsFor(t, env, in.ID)
	if !hasAttestation(atts, "opportunity.created") {
		t.Fatal("missing opportunity.created for draft")
	}
	if !hasAttestation(atts, "opportunity.published") {
		t.Fatal("missing opportunity.published for open")
	}

	if _, err := env.Engine.CreateOpportunity(env.Ctx, 9999, engine.OpportunityCreateOptions{Title: "x"}, actor(7)); err == nil {
		t.Fatal("expected not found for absent initiative")
	}
}

func TestEngagementActivationFillsOpportunity(t *testing.T) {
	env := newTestEnv(t)
	in, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	opp, err := env.Engine.CreateOpportunity(env.Ctx, in.ID, engine.OpportunityCreateOptions{
		Title: "Open work", Status: domain.OpportunityOpen,
	}, actor(7))
	if err != nil {
		t.Fatalf("create opportunity: %v", err)
	}

	contributor := int64(30)
	eng, err := env.Engine.CreateEngagement(env.Ctx, opp.ID, engine.EngagementCreateOptions{
		ContributorIndividualID: &contributor,
		Status:                  domain.EngagementActive,
	}, actor(7))
	if err != nil {
		t.Fatalf("create engagement: %v", err)
	}
	if eng.InitiativeID != in.ID {
		t.Fatalf("initiative inherited = %d, want %d", eng.InitiativeID, in.ID)
	}

	got, err := env.Engine.GetOpportunity(env.Ctx, opp.ID)
	if err != nil {
		t.Fatalf("get opportunity: %v", err)
	}
	if got.Status != domain.OpportunityFilled {
		t.Fatalf("opportunity status = %s, want filled after active engagement", got.Status)
	}

	atts := attestationsFor(t, env, in.ID)
	if !hasAttestation(atts, "engagement.activated") {
		t.Fatal("missing engagement.activated")
	}
}

func TestEngagementUpdateCascade(t *testing.T) {
	env := newTestEnv(t)
	in, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	opp, _ := env.Engine.CreateOpportunity(env.Ctx, in.ID, engine.OpportunityCreateOptions{
		Title: "Open work", Status: domain.OpportunityOpen,
	}, actor(7))
	contributor := int64(30)
	eng, err := env.Engine.CreateEngagement(env.Ctx, opp.ID, engine.EngagementCreateOptions{
		ContributorIndividualID: &contributor,
	}, actor(7))
	if err != nil {
		t.Fatalf("create engagement: %v", err)
	}
	if eng.Status != domain.EngagementProposed {
		t.Fatalf("status = %s, want proposed default", eng.Status)
	}

	active := domain.EngagementActive
	if _, err := env.Engine.UpdateEngagement(env.Ctx, eng.ID, repo.EngagementPatch{Status: &active}, actor(7)); err != nil {
		t.Fatalf("activate: %v", err)
	}
	got, _ := env.Engine.GetOpportunity(env.Ctx, opp.ID)
	if got.Status != domain.OpportunityFilled {
		t.Fatalf("opportunity = %s, want filled via update cascade", got.Status)
	}
	atts := attestationsFor(t, env, in.ID)
	if !hasAttestation(atts, "engagement.activated") {
		t.Fatal("missing engagement.activated from update path")
	}
}

func TestEngagementUpdateCascadeDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Config.Engagements.CascadeOnUpdate = false

	in, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	opp, _ := env.Engine.CreateOpportunity(env.Ctx, in.ID, engine.OpportunityCreateOptions{
		Title: "Open work", Status: domain.OpportunityOpen,
	}, actor(7))
	contributor := int64(30)
	eng, _ := env.Engine.CreateEngagement(env.Ctx, opp.ID, engine.EngagementCreateOptions{
		ContributorIndividualID: &contributor,
	}, actor(7))

	active := domain.EngagementActive
	if _, err := env.Engine.UpdateEngagement(env.Ctx, eng.ID, repo.EngagementPatch{Status: &active}, actor(7)); err != nil {
		t.Fatalf("activate: %v", err)
	}
	got, _ := env.Engine.GetOpportunity(env.Ctx, opp.ID)
	if got.Status != domain.OpportunityOpen {
		t.Fatalf("opportunity = %s, want open with cascade disabled", got.Status)
	}
}

func TestMilestoneStatusEvents(t *testing.T) {
	env := newTestEnv(t)
	in, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	opp, _ := env.Engine.CreateOpportunity(env.Ctx, in.ID, engine.OpportunityCreateOptions{
		Title: "Open work", Status: domain.OpportunityOpen,
	}, actor(7))
	contributor := int64(30)
	eng, _ := env.Engine.CreateEngagement(env.Ctx, opp.ID, engine.EngagementCreateOptions{
		ContributorIndividualID: &contributor,
	}, actor(7))
	m, err := env.Engine.CreateMilestone(env.Ctx, eng.ID, engine.MilestoneCreateOptions{Title: "Deliver report"}, actor(7))
	if err != nil {
		t.Fatalf("create milestone: %v", err)
	}
	if m.Status != domain.MilestonePending {
		t.Fatalf("status = %s, want pending", m.Status)
	}

	before := len(attestationsFor(t, env, in.ID))

	// Evidence-only patch changes no status and emits nothing.
	if _, err := env.Engine.UpdateMilestone(env.Ctx, m.ID, repo.MilestonePatch{
		Evidence: &domain.Evidence{URI: "https://example.org/report"},
	}, actor(7)); err != nil {
		t.Fatalf("evidence patch: %v", err)
	}
	if got := len(attestationsFor(t, env, in.ID)); got != before {
		t.Fatalf("attestations = %d, want %d (no event for evidence-only patch)", got, before)
	}

	steps := []struct {
		status domain.MilestoneStatus
		event  string
	}{
		{domain.MilestoneSubmitted, "milestone.submitted"},
		{domain.MilestoneVerified, "milestone.verified"},
	}
	for _, step := range steps {
		status := step.status
		updated, err := env.Engine.UpdateMilestone(env.Ctx, m.ID, repo.MilestonePatch{Status: &status}, actor(7))
		if err != nil {
			t.Fatalf("to %s: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("status = %s, want %s", updated.Status, status)
		}
		if updated.Evidence == nil || updated.Evidence.URI != "https://example.org/report" {
			t.Fatalf("evidence lost across patch: %+v", updated.Evidence)
		}
		atts := attestationsFor(t, env, in.ID)
		if !hasAttestation(atts, step.event) {
			t.Fatalf("missing %s", step.event)
		}
	}

	// Re-patching the same status emits nothing new.
	before = len(attestationsFor(t, env, in.ID))
	verified := domain.MilestoneVerified
	if _, err := env.Engine.UpdateMilestone(env.Ctx, m.ID, repo.MilestonePatch{Status: &verified}, actor(7)); err != nil {
		t.Fatalf("same-status patch: %v", err)
	}
	if got := len(attestationsFor(t, env, in.ID)); got != before {
		t.Fatalf("attestations = %d, want %d (no event for unchanged status)", got, before)
	}
}

func TestMilestoneRejected(t *testing.T) {
	env := newTestEnv(t)
	in, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	opp, _ := env.Engine.CreateOpportunity(env.Ctx, in.ID, engine.OpportunityCreateOptions{
		Title: "w", Status: domain.OpportunityOpen,
	}, actor(7))
	contributor := int64(30)
	eng, _ := env.Engine.CreateEngagement(env.Ctx, opp.ID, engine.EngagementCreateOptions{
		ContributorIndividualID: &contributor,
	}, actor(7))
	m, _ := env.Engine.CreateMilestone(env.Ctx, eng.ID, engine.MilestoneCreateOptions{Title: "d"}, actor(7))

	rejected := domain.MilestoneRejected
	if _, err := env.Engine.UpdateMilestone(env.Ctx, m.ID, repo.MilestonePatch{Status: &rejected}, actor(7)); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !hasAttestation(attestationsFor(t, env, in.ID), "milestone.rejected") {
		t.Fatal("missing milestone.rejected")
	}
}

func TestListInitiativesScopes(t *testing.T) {
	env := newTestEnv(t)
	mine, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "Mine"}, actor(7))
	if _, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "Theirs"}, actor(8)); err != nil {
		t.Fatalf("create: %v", err)
	}
	closed, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "Done"}, actor(8))

	state := domain.InitiativeClosed
	if _, err := env.Engine.UpdateInitiative(env.Ctx, closed.ID, repo.InitiativePatch{State: &state}, actor(8)); err != nil {
		t.Fatalf("close: %v", err)
	}

	all, err := env.Engine.ListInitiatives(env.Ctx, "all", 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}

	active, err := env.Engine.ListInitiatives(env.Ctx, "active", 0)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2 (closed excluded)", len(active))
	}
	for _, in := range active {
		if in.ID == closed.ID {
			t.Fatal("closed initiative leaked into active scope")
		}
	}

	got, err := env.Engine.ListInitiatives(env.Ctx, "mine", 7)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("mine = %+v, want only %d", got, mine.ID)
	}

	// Anonymous "mine" is empty rather than everything.
	got, err = env.Engine.ListInitiatives(env.Ctx, "mine", 0)
	if err != nil {
		t.Fatalf("list mine anonymous: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("anonymous mine = %d, want 0", len(got))
	}
}

func TestListInitiativesMineViaOrganization(t *testing.T) {
	env := newTestEnv(t)
	org, err := env.Engine.RegisterOrganization(env.Ctx, "Relief Org")
	if err != nil {
		t.Fatalf("register org: %v", err)
	}
	if err := env.Engine.AddOrganizationMember(env.Ctx, org.ID, 9, "member"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	in, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "Org effort"}, actor(8))
	if err := env.Engine.UpsertParticipant(env.Ctx, in.ID, "add", engine.ParticipantInput{
		Kind:           domain.KindOrganization,
		OrganizationID: &org.ID,
	}, actor(8)); err != nil {
		t.Fatalf("add org participant: %v", err)
	}

	got, err := env.Engine.ListInitiatives(env.Ctx, "mine", 9)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(got) != 1 || got[0].ID != in.ID {
		t.Fatalf("mine via org = %+v, want %d", got, in.ID)
	}
}

func TestActorAddressResolution(t *testing.T) {
	env := newTestEnv(t)
	const addr = "0x52908400098527886E0F7030069857D2E4169EE7"
	ind, err := env.Engine.RegisterIndividual(env.Ctx, "Ada", addr)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	in, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "By address"},
		engine.Actor{Address: addr})
	if err != nil {
		t.Fatalf("create by address: %v", err)
	}
	if in.CreatedByIndividualID != ind.ID {
		t.Fatalf("created_by = %d, want %d", in.CreatedByIndividualID, ind.ID)
	}

	// Unknown address fails closed.
	if _, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"},
		engine.Actor{Address: "0x0000000000000000000000000000000000000001"}); err == nil {
		t.Fatal("expected error for unknown address")
	}
	// Malformed address fails closed.
	if _, err := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"},
		engine.Actor{Address: "not-an-address"}); err == nil {
		t.Fatal("expected error for malformed address")
	}
}

func TestRegisterIndividualValidation(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.RegisterIndividual(env.Ctx, "", ""); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := env.Engine.RegisterIndividual(env.Ctx, "Bad", "0x123"); err == nil {
		t.Fatal("expected error for malformed address")
	}
	if _, err := env.Engine.RegisterIndividual(env.Ctx, "Plain", ""); err != nil {
		t.Fatalf("address should be optional: %v", err)
	}
}

func TestChainAttestation(t *testing.T) {
	env := newTestEnv(t)
	in, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	chain := int64(8453)
	id, err := env.Engine.RecordChainAttestation(env.Ctx, engine.ChainAttestationOptions{
		Type:         "funding.escrowed",
		Payload:      map[string]any{"amount": "1000"},
		InitiativeID: &in.ID,
		ChainID:      &chain,
		TxHash:       "0xabc",
		EASUID:       "0xdef",
	}, actor(7))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d", id)
	}
	atts := attestationsFor(t, env, in.ID)
	var found *domain.Attestation
	for i := range atts {
		if atts[i].Type == "funding.escrowed" {
			found = &atts[i]
		}
	}
	if found == nil {
		t.Fatal("chain attestation missing from feed")
	}
	if found.ChainID == nil || *found.ChainID != chain || found.TxHash != "0xabc" || found.EASUID != "0xdef" {
		t.Fatalf("chain metadata = %+v", found)
	}

	if _, err := env.Engine.RecordChainAttestation(env.Ctx, engine.ChainAttestationOptions{}, actor(7)); err == nil {
		t.Fatal("expected error for missing type")
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	in, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "Flood Relief"}, actor(7))
	if _, err := env.Engine.CreateWorkstream(env.Ctx, in.ID, engine.WorkstreamCreateOptions{Title: "Logistics"}, actor(7)); err != nil {
		t.Fatalf("workstream: %v", err)
	}
	if _, err := env.Engine.CreateOutcome(env.Ctx, in.ID, engine.OutcomeCreateOptions{Title: "Families housed"}, actor(7)); err != nil {
		t.Fatalf("outcome: %v", err)
	}
	opp, _ := env.Engine.CreateOpportunity(env.Ctx, in.ID, engine.OpportunityCreateOptions{
		Title: "Drive trucks", Status: domain.OpportunityOpen,
	}, actor(7))
	contributor := int64(30)
	eng, _ := env.Engine.CreateEngagement(env.Ctx, opp.ID, engine.EngagementCreateOptions{
		ContributorIndividualID: &contributor,
		Status:                  domain.EngagementActive,
	}, actor(7))
	if _, err := env.Engine.CreateMilestone(env.Ctx, eng.ID, engine.MilestoneCreateOptions{Title: "First delivery"}, actor(7)); err != nil {
		t.Fatalf("milestone: %v", err)
	}

	d, err := env.Engine.GetDashboard(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Initiative.ID != in.ID {
		t.Fatalf("initiative = %d", d.Initiative.ID)
	}
	if len(d.Workstreams) != 1 || len(d.Outcomes) != 1 || len(d.Opportunities) != 1 ||
		len(d.Engagements) != 1 || len(d.Milestones) != 1 {
		t.Fatalf("sections = ws:%d out:%d opp:%d eng:%d ms:%d",
			len(d.Workstreams), len(d.Outcomes), len(d.Opportunities), len(d.Engagements), len(d.Milestones))
	}
	if len(d.Attestations) == 0 {
		t.Fatal("attestation feed empty")
	}
	if d.Counts.Participants != 1 || d.Counts.ActiveEngagements != 1 || d.Counts.PendingMilestones != 1 {
		t.Fatalf("counts = %+v", d.Counts)
	}

	if _, err := env.Engine.GetDashboard(env.Ctx, 9999); err == nil {
		t.Fatal("expected not found")
	}
}

func TestAttestationFeedNewestFirstAndBounded(t *testing.T) {
	env := newTestEnv(t)
	in, _ := env.Engine.CreateInitiative(env.Ctx, engine.InitiativeCreateOptions{Title: "x"}, actor(7))
	for i := 0; i < 5; i++ {
		if _, err := env.Engine.Ledger.Emit(env.Ctx, ledger.Event{
			Type:         "tick",
			InitiativeID: &in.ID,
		}); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	atts, err := env.Engine.ListAttestations(env.Ctx, &in.ID, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(atts) != 3 {
		t.Fatalf("len = %d, want 3", len(atts))
	}
	for i := 1; i < len(atts); i++ {
		if atts[i-1].ID < atts[i].ID {
			t.Fatalf("feed not newest-first: %d before %d", atts[i-1].ID, atts[i].ID)
		}
	}
}
