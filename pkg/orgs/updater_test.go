package orgs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/orgforge/pkg/clock"
	"github.com/platinummonkey/orgforge/pkg/observability"
	"github.com/platinummonkey/orgforge/pkg/qualitygate"
	"github.com/platinummonkey/orgforge/pkg/rbac"
	"github.com/platinummonkey/orgforge/pkg/search"
)

var testUser = &User{UUID: "user-1", Login: "ada", Name: "Ada Lovelace", Email: "ada@corp.io"}

type fixture struct {
	w        *world
	tx       *fakeTx
	settings *fakeSettings
	clock    *clock.Fixed
	metrics  *observability.Metrics
	updater  *Updater
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		w:        newWorld(),
		settings: &fakeSettings{values: map[string]bool{}},
		clock:    clock.NewFixed(testNow),
		metrics:  observability.NewMetrics(prometheus.NewRegistry()),
	}
	f.tx = &fakeTx{w: f.w}
	f.updater = f.newUpdater(NewValidator())
	return f
}

func (f *fixture) newUpdater(validation Validation) *Updater {
	return NewUpdater(Dependencies{
		Tx:         f.tx,
		Store:      f.w,
		Groups:     f.w,
		Templates:  f.w,
		Indexer:    f.w,
		Profiles:   f.w,
		Gates:      f.w,
		Settings:   f.settings,
		Validation: validation,
		UUIDs:      f.w.uuids,
		Clock:      f.clock,
		Metrics:    f.metrics,
	})
}

func ptr(s string) *string {
	return &s
}

func fullDescriptor() *NewOrganization {
	return &NewOrganization{
		Key:         "acme",
		Name:        "Acme Corp",
		Description: ptr("Makers of everything"),
		URL:         ptr("https://acme.example.com"),
		Avatar:      ptr("https://acme.example.com/logo.png"),
	}
}

func TestUpdater_Create_PersistsDescriptor(t *testing.T) {
	ctx := context.Background()

	t.Run("full descriptor", func(t *testing.T) {
		f := newFixture(t)

		org, err := f.updater.Create(ctx, testUser, fullDescriptor(), nil)
		require.NoError(t, err)

		assert.Equal(t, "1", org.UUID)
		assert.Equal(t, "acme", org.Key)
		assert.Equal(t, "Acme Corp", org.Name)
		assert.Equal(t, "Makers of everything", *org.Description)
		assert.Equal(t, "https://acme.example.com", *org.URL)
		assert.Equal(t, "https://acme.example.com/logo.png", *org.Avatar)
		assert.Equal(t, SubscriptionFree, org.Subscription)
		assert.Equal(t, testNow, org.CreatedAt)
		assert.Equal(t, testNow, org.UpdatedAt)

		stored, ok := f.w.orgs[org.UUID]
		require.True(t, ok)
		assert.Equal(t, *org, stored)
		assert.Equal(t, 1, f.tx.calls)
		assert.Zero(t, f.tx.rolledBack)
	})

	t.Run("required fields only", func(t *testing.T) {
		f := newFixture(t)

		org, err := f.updater.Create(ctx, testUser, &NewOrganization{Key: "acme", Name: "Acme Corp"}, nil)
		require.NoError(t, err)

		assert.Nil(t, org.Description)
		assert.Nil(t, org.URL)
		assert.Nil(t, org.Avatar)
		assert.Nil(t, f.w.orgs[org.UUID].Description)
	})
}

func TestUpdater_Create_Visibility(t *testing.T) {
	tests := []struct {
		name        string
		setting     *bool
		wantPrivate bool
	}{
		{name: "public when unset", setting: nil, wantPrivate: false},
		{name: "public when true", setting: boolPtr(true), wantPrivate: false},
		{name: "private when false", setting: boolPtr(false), wantPrivate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setting != nil {
				f.settings.values[DefaultPublicVisibilityKey] = *tt.setting
			}

			org, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrivate, org.NewProjectPrivate)
		})
	}

	t.Run("public without settings", func(t *testing.T) {
		f := newFixture(t)
		f.updater.settings = nil

		org, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), nil)
		require.NoError(t, err)
		assert.False(t, org.NewProjectPrivate)
	})

	t.Run("settings error aborts creation", func(t *testing.T) {
		f := newFixture(t)
		f.settings.err = errBoom

		_, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), nil)
		require.ErrorIs(t, err, errBoom)
		assert.Contains(t, err.Error(), DefaultPublicVisibilityKey)
		assert.Empty(t, f.w.orgs)
	})
}

func boolPtr(b bool) *bool {
	return &b
}

func TestUpdater_Create_ProvisionsGroups(t *testing.T) {
	f := newFixture(t)

	org, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), nil)
	require.NoError(t, err)

	owners := f.w.groupNamed(org.UUID, rbac.OwnersGroupName)
	members := f.w.groupNamed(org.UUID, rbac.MembersGroupName)
	require.NotNil(t, owners)
	require.NotNil(t, members)
	assert.Len(t, f.w.groups, 2)

	assert.Equal(t, []string{testUser.UUID}, f.w.groupMembers[owners.UUID])
	assert.Equal(t, []string{testUser.UUID}, f.w.groupMembers[members.UUID])
	assert.ElementsMatch(t, rbac.GlobalPermissions(), f.w.globalPerms[owners.UUID])
	assert.Empty(t, f.w.globalPerms[members.UUID])
	assert.Equal(t, members.UUID, f.w.defaultGroup[org.UUID])
}

func TestUpdater_Create_DefaultTemplate(t *testing.T) {
	f := newFixture(t)

	org, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), nil)
	require.NoError(t, err)

	require.Len(t, f.w.templates, 1)
	template := f.w.templates[0]
	assert.Equal(t, rbac.DefaultTemplateName, template.Name)
	assert.Equal(t, "Default permission template of organization Acme Corp", template.Description)

	owners := f.w.groupNamed(org.UUID, rbac.OwnersGroupName)
	members := f.w.groupNamed(org.UUID, rbac.MembersGroupName)
	assert.ElementsMatch(t, []string{rbac.RoleAdmin, rbac.RoleScan}, f.w.grants[owners.UUID])
	assert.ElementsMatch(t,
		[]string{rbac.RoleUser, rbac.RoleCodeViewer, rbac.RoleIssueAdmin, rbac.RoleSecurityHotspotAdmin},
		f.w.grants[members.UUID])

	defaults := f.w.defaultTemplates[org.UUID]
	assert.Equal(t, template.UUID, defaults.ProjectUUID)
	assert.Nil(t, defaults.ApplicationsUUID)
}

func TestUpdater_Create_MembershipAndIndex(t *testing.T) {
	f := newFixture(t)

	org, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{testUser.UUID}, f.w.members[org.UUID])
	assert.Equal(t, []search.UserDocument{{
		UserUUID: testUser.UUID,
		Login:    testUser.Login,
		Name:     testUser.Name,
		Email:    testUser.Email,
	}}, f.w.indexed[org.UUID])
}

func TestUpdater_Create_QualityProfilesAndGate(t *testing.T) {
	f := newFixture(t)

	org, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), nil)
	require.NoError(t, err)

	require.Len(t, f.w.profiles, 3)
	var goProfiles, goDefaults int
	for _, p := range f.w.profiles {
		assert.Equal(t, org.UUID, p.OrganizationUUID)
		if p.Language == "go" {
			goProfiles++
			if p.IsDefault {
				goDefaults++
				assert.Equal(t, "Strict", p.Name)
			}
		}
	}
	assert.Equal(t, 2, goProfiles)
	assert.Equal(t, 1, goDefaults)

	assert.Equal(t, "gate-builtin", f.w.gates[org.UUID])
}

func TestUpdater_Create_Callback(t *testing.T) {
	f := newFixture(t)

	var received []*Organization
	org, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), func(o *Organization) {
		received = append(received, o)
		// the organization is complete when the callback runs
		assert.Equal(t, "gate-builtin", f.w.gates[o.UUID])
	})
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Same(t, org, received[0])
}

func TestUpdater_Create_NilDescriptor(t *testing.T) {
	f := newFixture(t)

	_, err := f.updater.Create(context.Background(), testUser, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, "newOrganization can't be null", err.Error())
	assert.Zero(t, f.tx.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrganizationsCreatedTotal.WithLabelValues(observability.StatusInvalid)))
}

func TestUpdater_Create_EmptyName(t *testing.T) {
	f := newFixture(t)
	validation := &recordingValidation{Validator: NewValidator()}

	_, err := f.newUpdater(validation).Create(context.Background(), testUser, &NewOrganization{Key: "acme", Name: ""}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "name can't be null", err.Error())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
	assert.Empty(t, validation.checked)
	assert.Zero(t, f.tx.calls)
	assert.Empty(t, f.w.orgs)
}

func TestUpdater_Create_ValidationFailuresPropagateUnchanged(t *testing.T) {
	tests := []struct {
		field       string
		wantChecked []string
	}{
		{field: "key", wantChecked: []string{"key"}},
		{field: "description", wantChecked: []string{"key", "description"}},
		{field: "url", wantChecked: []string{"key", "description", "url"}},
		{field: "avatar", wantChecked: []string{"key", "description", "url", "avatar"}},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f := newFixture(t)
			failure := &ValidationError{Field: tt.field, Message: tt.field + " is wrong"}
			validation := &recordingValidation{Validator: NewValidator(), failField: tt.field, err: failure}

			_, err := f.newUpdater(validation).Create(context.Background(), testUser, fullDescriptor(), nil)
			require.Error(t, err)
			assert.Same(t, failure, err)
			assert.Equal(t, tt.wantChecked, validation.checked)
			assert.Zero(t, f.tx.calls)
		})
	}
}

func TestUpdater_Create_InvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewOrganization)
		wantErr string
	}{
		{
			name:    "key with upper case",
			mutate:  func(n *NewOrganization) { n.Key = "Acme" },
			wantErr: "Key 'Acme' contains at least one invalid char",
		},
		{
			name:    "empty key",
			mutate:  func(n *NewOrganization) { n.Key = "" },
			wantErr: "Key '' must be at least 1 chars long",
		},
		{
			name:    "description too long",
			mutate:  func(n *NewOrganization) { n.Description = ptr(strings.Repeat("d", 257)) },
			wantErr: "must be at most 256 chars long",
		},
		{
			name:    "avatar too long",
			mutate:  func(n *NewOrganization) { n.Avatar = ptr(strings.Repeat("a", 257)) },
			wantErr: "must be at most 256 chars long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			descriptor := fullDescriptor()
			tt.mutate(descriptor)

			_, err := f.updater.Create(context.Background(), testUser, descriptor, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, f.w.orgs)
		})
	}
}

func TestUpdater_Create_KeyConflict(t *testing.T) {
	f := newFixture(t)
	f.w.orgs["existing"] = Organization{UUID: "existing", Key: "acme", Name: "Other"}

	called := false
	_, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), func(*Organization) { called = true })
	require.Error(t, err)

	var conflict *KeyConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "acme", conflict.Key)
	assert.Equal(t, "Organization key 'acme' is already used", err.Error())
	assert.True(t, IsKeyConflict(err))
	assert.ErrorIs(t, err, ErrKeyConflict)

	assert.Len(t, f.w.orgs, 1)
	assert.Empty(t, f.w.groups)
	assert.False(t, called)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrganizationsCreatedTotal.WithLabelValues(observability.StatusConflict)))
}

func TestUpdater_Create_RollsBackOnFailure(t *testing.T) {
	steps := []string{
		"Insert",
		"CreateOwnersGroup",
		"CreateDefaultGroup",
		"AddMember",
		"SetDefaultGroupUUID",
		"CreateDefaultTemplate",
		"SetDefaultTemplates",
		"InsertMember",
		"IndexForOrganization",
		"CloneBuiltIns",
		"LinkBuiltIn",
	}

	for _, step := range steps {
		t.Run(step, func(t *testing.T) {
			f := newFixture(t)
			f.w.failOn = step

			called := false
			org, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), func(*Organization) { called = true })
			require.ErrorIs(t, err, errBoom)
			assert.Nil(t, org)
			assert.False(t, called)

			assert.Equal(t, 1, f.tx.rolledBack)
			assert.Empty(t, f.w.orgs)
			assert.Empty(t, f.w.groups)
			assert.Empty(t, f.w.templates)
			assert.Empty(t, f.w.members)
			assert.Empty(t, f.w.indexed)
			assert.Empty(t, f.w.profiles)
			assert.Empty(t, f.w.gates)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrganizationsCreatedTotal.WithLabelValues(observability.StatusError)))
		})
	}
}

func TestUpdater_Create_MissingBuiltInGate(t *testing.T) {
	f := newFixture(t)
	f.w.gateUUID = ""

	_, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), nil)
	require.ErrorIs(t, err, qualitygate.ErrBuiltInMissing)
	assert.Contains(t, err.Error(), "built-in quality gate is missing")
	assert.Empty(t, f.w.orgs)
}

func TestUpdater_Create_RecordsMetrics(t *testing.T) {
	f := newFixture(t)

	_, err := f.updater.Create(context.Background(), testUser, fullDescriptor(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrganizationsCreatedTotal.WithLabelValues(observability.StatusSuccess)))
	assert.Equal(t, 6, testutil.CollectAndCount(f.metrics.ProvisioningStepDuration))
}

func TestUpdater_UpdateKey(t *testing.T) {
	ctx := context.Background()
	later := testNow.Add(time.Hour)

	seed := func(f *fixture) *Organization {
		org := Organization{UUID: "org-1", Key: "acme", Name: "Acme Corp", CreatedAt: testNow, UpdatedAt: testNow}
		f.w.orgs[org.UUID] = org
		f.w.orgs["org-2"] = Organization{UUID: "org-2", Key: "globex", Name: "Globex"}
		f.clock.Set(later)
		return &org
	}

	t.Run("new key", func(t *testing.T) {
		f := newFixture(t)
		org := seed(f)

		require.NoError(t, f.updater.UpdateKey(ctx, org, "acme-labs"))
		assert.Equal(t, "acme-labs", org.Key)
		assert.Equal(t, later, org.UpdatedAt)
		assert.Equal(t, "acme-labs", f.w.orgs["org-1"].Key)
		assert.Equal(t, later, f.w.orgs["org-1"].UpdatedAt)
	})

	t.Run("raw key is normalized", func(t *testing.T) {
		f := newFixture(t)
		org := seed(f)

		require.NoError(t, f.updater.UpdateKey(ctx, org, "  Acme Résearch Labs! "))
		assert.Equal(t, "acme-research-labs", org.Key)
	})

	t.Run("same normalized key is a no-op", func(t *testing.T) {
		f := newFixture(t)
		org := seed(f)

		require.NoError(t, f.updater.UpdateKey(ctx, org, "ACME"))
		assert.Equal(t, "acme", org.Key)
		assert.Equal(t, testNow, org.UpdatedAt)
		assert.Zero(t, f.tx.calls)
	})

	t.Run("key used by another organization", func(t *testing.T) {
		f := newFixture(t)
		org := seed(f)

		err := f.updater.UpdateKey(ctx, org, "globex")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStateConflict)
		assert.Equal(t,
			"Can't create organization with key 'globex' because an organization with this key already exists",
			err.Error())
		assert.Equal(t, "acme", org.Key)
		assert.Equal(t, "acme", f.w.orgs["org-1"].Key)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrganizationKeyUpdates.WithLabelValues(observability.StatusConflict)))
	})

	t.Run("nothing left after normalization", func(t *testing.T) {
		f := newFixture(t)
		org := seed(f)

		err := f.updater.UpdateKey(ctx, org, "!!!")
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, "acme", org.Key)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t)
		org := seed(f)
		f.w.failOn = "UpdateKey"

		err := f.updater.UpdateKey(ctx, org, "acme-labs")
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, "acme", org.Key)
		assert.Equal(t, 1, f.tx.rolledBack)
	})

	t.Run("nil organization", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.updater.UpdateKey(ctx, nil, "acme"), ErrInvalidArgument)
	})
}
