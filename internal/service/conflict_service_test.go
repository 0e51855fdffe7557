package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"aquifer-sync-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	f := newSyncFixture()
	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	record := func(updatedAt time.Time) domain.Record {
		return &domain.Site{RecordMeta: domain.RecordMeta{ID: "site-1", UpdatedAt: updatedAt}}
	}

	tests := []struct {
		name        string
		existing    domain.Record
		claimedBase time.Time
		want        EvalOutcome
	}{
		{
			name:        "no existing record",
			existing:    nil,
			claimedBase: base,
			want:        ApplyClean,
		},
		{
			name:        "claimed base equals stored write",
			existing:    record(base),
			claimedBase: base,
			want:        ApplyClean,
		},
		{
			name:        "claimed base newer than stored write",
			existing:    record(base),
			claimedBase: base.Add(time.Minute),
			want:        ApplyClean,
		},
		{
			name:        "stored write strictly newer",
			existing:    record(base.Add(time.Minute)),
			claimedBase: base,
			want:        ConflictStale,
		},
		{
			name:        "missing base defaults to zero time",
			existing:    record(base),
			claimedBase: time.Time{},
			want:        ConflictStale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.conflicts.Evaluate(tt.existing, tt.claimedBase))
		})
	}
}

func seedConflict(f *syncFixture, clientPayload string) *domain.Site {
	existing := &domain.Site{
		RecordMeta: domain.RecordMeta{
			ID:        "site-1",
			ProjectID: "proj-1",
			UpdatedAt: f.clock.Add(-time.Hour),
		},
		Name:   "Server name",
		Region: "Central",
	}
	f.store(domain.KindSite).records["site-1"] = existing

	f.confRepo.conflicts["conf-1"] = &domain.Conflict{
		ID:            "conf-1",
		RecordType:    domain.KindSite,
		RecordID:      "site-1",
		UserID:        "user-1",
		Reason:        domain.ReasonStaleWrite,
		ClientPayload: json.RawMessage(clientPayload),
		DetectedAt:    f.clock.Add(-30 * time.Minute),
	}

	return existing
}

func TestResolve_ServerWins(t *testing.T) {
	f := newSyncFixture()
	user := testUser()
	existing := seedConflict(f, `{"name":"Client name"}`)
	before := *existing

	req := &domain.ResolveRequest{
		EntityType: domain.KindSite,
		EntityID:   "site-1",
		Resolution: domain.ResolutionServerWins,
	}

	resp, err := f.conflicts.Resolve(context.Background(), user, req)
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionServerWins, resp.Resolution)

	stored, _ := f.store(domain.KindSite).FindByID(context.Background(), "site-1")
	assert.Equal(t, before, *stored.(*domain.Site))

	conflict := f.confRepo.conflicts["conf-1"]
	assert.True(t, conflict.Resolved())
	assert.Equal(t, domain.ResolutionServerWins, conflict.Resolution)

	// Re-invoking changes nothing.
	_, err = f.conflicts.Resolve(context.Background(), user, req)
	require.NoError(t, err)
	stored, _ = f.store(domain.KindSite).FindByID(context.Background(), "site-1")
	assert.Equal(t, before, *stored.(*domain.Site))
}

func TestResolve_LocalWinsReplaysClientPayload(t *testing.T) {
	f := newSyncFixture()
	user := testUser()
	seedConflict(f, `{"name":"Client name"}`)

	resp, err := f.conflicts.Resolve(context.Background(), user, &domain.ResolveRequest{
		EntityType: domain.KindSite,
		EntityID:   "site-1",
		Resolution: domain.ResolutionLocalWins,
	})
	require.NoError(t, err)

	site := resp.Record.(*domain.Site)
	assert.Equal(t, "Client name", site.Name)
	assert.Equal(t, "Central", site.Region)
	assert.Equal(t, f.clock, site.UpdatedAt)

	stored, _ := f.store(domain.KindSite).FindByID(context.Background(), "site-1")
	assert.Equal(t, "Client name", stored.(*domain.Site).Name)

	assert.True(t, f.confRepo.conflicts["conf-1"].Resolved())
}

func TestResolve_LocalWinsWithoutRecordedConflict(t *testing.T) {
	f := newSyncFixture()
	user := testUser()

	f.store(domain.KindSite).records["site-1"] = &domain.Site{
		RecordMeta: domain.RecordMeta{ID: "site-1", ProjectID: "proj-1"},
		Name:       "Server name",
	}

	_, err := f.conflicts.Resolve(context.Background(), user, &domain.ResolveRequest{
		EntityType: domain.KindSite,
		EntityID:   "site-1",
		Resolution: domain.ResolutionLocalWins,
	})

	require.ErrorIs(t, err, ErrNoRecordedConflict)
}

func TestResolve_MergedAppliesCallerPayload(t *testing.T) {
	f := newSyncFixture()
	user := testUser()
	seedConflict(f, `{"name":"Client name"}`)

	resp, err := f.conflicts.Resolve(context.Background(), user, &domain.ResolveRequest{
		EntityType: domain.KindSite,
		EntityID:   "site-1",
		Resolution: domain.ResolutionMerged,
		MergedData: json.RawMessage(`{"name":"Merged name","region":"Rift Valley"}`),
	})
	require.NoError(t, err)

	site := resp.Record.(*domain.Site)
	assert.Equal(t, "Merged name", site.Name)
	assert.Equal(t, "Rift Valley", site.Region)
	assert.Equal(t, f.clock, site.UpdatedAt)
}

func TestResolve_MergedRequiresPayload(t *testing.T) {
	f := newSyncFixture()
	seedConflict(f, `{"name":"Client name"}`)

	_, err := f.conflicts.Resolve(context.Background(), testUser(), &domain.ResolveRequest{
		EntityType: domain.KindSite,
		EntityID:   "site-1",
		Resolution: domain.ResolutionMerged,
	})

	require.ErrorIs(t, err, ErrMergedDataRequired)
}

func TestResolve_RejectsUnknownStrategy(t *testing.T) {
	f := newSyncFixture()
	seedConflict(f, `{"name":"Client name"}`)

	_, err := f.conflicts.Resolve(context.Background(), testUser(), &domain.ResolveRequest{
		EntityType: domain.KindSite,
		EntityID:   "site-1",
		Resolution: "NEWEST_WINS",
	})

	require.ErrorIs(t, err, ErrInvalidResolution)

	// Rejected before any state change.
	stored, _ := f.store(domain.KindSite).FindByID(context.Background(), "site-1")
	assert.Equal(t, "Server name", stored.(*domain.Site).Name)
	assert.False(t, f.confRepo.conflicts["conf-1"].Resolved())
}

func TestResolve_UnknownRecord(t *testing.T) {
	f := newSyncFixture()

	_, err := f.conflicts.Resolve(context.Background(), testUser(), &domain.ResolveRequest{
		EntityType: domain.KindSite,
		EntityID:   "missing",
		Resolution: domain.ResolutionServerWins,
	})

	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_DeniesForeignProject(t *testing.T) {
	f := newSyncFixture()

	f.store(domain.KindSite).records["site-1"] = &domain.Site{
		RecordMeta: domain.RecordMeta{ID: "site-1", ProjectID: "proj-other"},
	}

	_, err := f.conflicts.Resolve(context.Background(), testUser(), &domain.ResolveRequest{
		EntityType: domain.KindSite,
		EntityID:   "site-1",
		Resolution: domain.ResolutionServerWins,
	})

	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestListOpen(t *testing.T) {
	f := newSyncFixture()
	user := testUser()
	seedConflict(f, `{"name":"Client name"}`)

	open, err := f.conflicts.ListOpen(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "conf-1", open[0].ID)

	_, err = f.conflicts.Resolve(context.Background(), user, &domain.ResolveRequest{
		EntityType: domain.KindSite,
		EntityID:   "site-1",
		Resolution: domain.ResolutionServerWins,
	})
	require.NoError(t, err)

	open, err = f.conflicts.ListOpen(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, open)
}
