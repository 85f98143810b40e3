package orgs

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/platinummonkey/orgforge/pkg/ids"
	"github.com/platinummonkey/orgforge/pkg/qualitygate"
	"github.com/platinummonkey/orgforge/pkg/qualityprofile"
	"github.com/platinummonkey/orgforge/pkg/rbac"
	"github.com/platinummonkey/orgforge/pkg/search"
	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

var (
	testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	errBoom = errors.New("boom")
)

// world is an in-memory database implementing every collaborator of the Updater
type world struct {
	uuids    ids.UUIDFactory
	failOn   string
	builtIns []qualityprofile.BuiltInProfile
	gateUUID string

	orgs             map[string]Organization
	defaultGroup     map[string]string
	defaultTemplates map[string]DefaultTemplates
	members          map[string][]string
	groups           []rbac.Group
	groupMembers     map[string][]string
	globalPerms      map[string][]string
	templates        []rbac.PermissionTemplate
	grants           map[string][]string
	indexed          map[string][]search.UserDocument
	profiles         []qualityprofile.OrgProfile
	gates            map[string]string
}

type worldState struct {
	orgs             map[string]Organization
	defaultGroup     map[string]string
	defaultTemplates map[string]DefaultTemplates
	members          map[string][]string
	groups           []rbac.Group
	groupMembers     map[string][]string
	globalPerms      map[string][]string
	templates        []rbac.PermissionTemplate
	grants           map[string][]string
	indexed          map[string][]search.UserDocument
	profiles         []qualityprofile.OrgProfile
	gates            map[string]string
}

func newWorld() *world {
	return &world{
		uuids: ids.NewSequenceUUIDFactory(),
		builtIns: []qualityprofile.BuiltInProfile{
			{Language: "go", Name: "Sonar way"},
			{Language: "go", Name: "Strict", IsDefault: true},
			{Language: "java", Name: "Sonar way", IsDefault: true},
		},
		gateUUID:         "gate-builtin",
		orgs:             map[string]Organization{},
		defaultGroup:     map[string]string{},
		defaultTemplates: map[string]DefaultTemplates{},
		members:          map[string][]string{},
		groupMembers:     map[string][]string{},
		globalPerms:      map[string][]string{},
		grants:           map[string][]string{},
		indexed:          map[string][]search.UserDocument{},
		gates:            map[string]string{},
	}
}

func (w *world) snapshot() worldState {
	return worldState{
		orgs:             maps.Clone(w.orgs),
		defaultGroup:     maps.Clone(w.defaultGroup),
		defaultTemplates: maps.Clone(w.defaultTemplates),
		members:          maps.Clone(w.members),
		groups:           slices.Clone(w.groups),
		groupMembers:     maps.Clone(w.groupMembers),
		globalPerms:      maps.Clone(w.globalPerms),
		templates:        slices.Clone(w.templates),
		grants:           maps.Clone(w.grants),
		indexed:          maps.Clone(w.indexed),
		profiles:         slices.Clone(w.profiles),
		gates:            maps.Clone(w.gates),
	}
}

func (w *world) restore(s worldState) {
	w.orgs = s.orgs
	w.defaultGroup = s.defaultGroup
	w.defaultTemplates = s.defaultTemplates
	w.members = s.members
	w.groups = s.groups
	w.groupMembers = s.groupMembers
	w.globalPerms = s.globalPerms
	w.templates = s.templates
	w.grants = s.grants
	w.indexed = s.indexed
	w.profiles = s.profiles
	w.gates = s.gates
}

func (w *world) fail(operation string) error {
	if w.failOn == operation {
		return errBoom
	}
	return nil
}

func (w *world) groupNamed(organizationUUID, name string) *rbac.Group {
	for i := range w.groups {
		if w.groups[i].OrganizationUUID == organizationUUID && w.groups[i].Name == name {
			return &w.groups[i]
		}
	}
	return nil
}

// OrganizationStore

func (w *world) Insert(_ context.Context, _ postgres.Querier, org *Organization) error {
	if err := w.fail("Insert"); err != nil {
		return err
	}
	w.orgs[org.UUID] = *org
	return nil
}

func (w *world) KeyExists(_ context.Context, _ postgres.Querier, key string) (bool, error) {
	if err := w.fail("KeyExists"); err != nil {
		return false, err
	}
	for _, org := range w.orgs {
		if org.Key == key {
			return true, nil
		}
	}
	return false, nil
}

func (w *world) UpdateKey(_ context.Context, _ postgres.Querier, uuid, key string, updatedAt time.Time) error {
	if err := w.fail("UpdateKey"); err != nil {
		return err
	}
	org, ok := w.orgs[uuid]
	if !ok {
		return ErrNotFound
	}
	org.Key = key
	org.UpdatedAt = updatedAt
	w.orgs[uuid] = org
	return nil
}

func (w *world) SetDefaultGroupUUID(_ context.Context, _ postgres.Querier, organizationUUID, groupUUID string) error {
	if err := w.fail("SetDefaultGroupUUID"); err != nil {
		return err
	}
	w.defaultGroup[organizationUUID] = groupUUID
	return nil
}

func (w *world) SetDefaultTemplates(_ context.Context, _ postgres.Querier, organizationUUID string, templates DefaultTemplates) error {
	if err := w.fail("SetDefaultTemplates"); err != nil {
		return err
	}
	w.defaultTemplates[organizationUUID] = templates
	return nil
}

func (w *world) InsertMember(_ context.Context, _ postgres.Querier, organizationUUID, userUUID string) error {
	if err := w.fail("InsertMember"); err != nil {
		return err
	}
	w.members[organizationUUID] = append(slices.Clone(w.members[organizationUUID]), userUUID)
	return nil
}

// GroupProvisioner

func (w *world) CreateOwnersGroup(_ context.Context, _ postgres.Querier, organizationUUID, userUUID string) (*rbac.Group, error) {
	if err := w.fail("CreateOwnersGroup"); err != nil {
		return nil, err
	}
	group := rbac.Group{UUID: w.uuids.Create(), OrganizationUUID: organizationUUID, Name: rbac.OwnersGroupName}
	w.groups = append(w.groups, group)
	w.globalPerms[group.UUID] = rbac.GlobalPermissions()
	w.groupMembers[group.UUID] = []string{userUUID}
	return &group, nil
}

func (w *world) CreateDefaultGroup(_ context.Context, _ postgres.Querier, organizationUUID string) (*rbac.Group, error) {
	if err := w.fail("CreateDefaultGroup"); err != nil {
		return nil, err
	}
	group := rbac.Group{UUID: w.uuids.Create(), OrganizationUUID: organizationUUID, Name: rbac.MembersGroupName}
	w.groups = append(w.groups, group)
	return &group, nil
}

func (w *world) AddMember(_ context.Context, _ postgres.Querier, groupUUID, userUUID string) error {
	if err := w.fail("AddMember"); err != nil {
		return err
	}
	w.groupMembers[groupUUID] = append(slices.Clone(w.groupMembers[groupUUID]), userUUID)
	return nil
}

// TemplateProvisioner

func (w *world) CreateDefaultTemplate(_ context.Context, _ postgres.Querier, organizationUUID, organizationName string, owners, defaultGroup *rbac.Group) (*rbac.PermissionTemplate, error) {
	if err := w.fail("CreateDefaultTemplate"); err != nil {
		return nil, err
	}
	template := rbac.PermissionTemplate{
		UUID:             w.uuids.Create(),
		OrganizationUUID: organizationUUID,
		Name:             rbac.DefaultTemplateName,
		Description:      rbac.DefaultTemplateDescription(organizationName),
	}
	w.templates = append(w.templates, template)
	w.grants[owners.UUID] = rbac.OwnersTemplatePermissions()
	w.grants[defaultGroup.UUID] = rbac.DefaultGroupTemplatePermissions()
	return &template, nil
}

// UserIndexer

func (w *world) IndexForOrganization(_ context.Context, _ postgres.Querier, organizationUUID string, doc search.UserDocument) error {
	if err := w.fail("IndexForOrganization"); err != nil {
		return err
	}
	w.indexed[organizationUUID] = append(slices.Clone(w.indexed[organizationUUID]), doc)
	return nil
}

// ProfileCloner

func (w *world) CloneBuiltIns(_ context.Context, _ postgres.Querier, organizationUUID string) ([]qualityprofile.OrgProfile, error) {
	if err := w.fail("CloneBuiltIns"); err != nil {
		return nil, err
	}
	var cloned []qualityprofile.OrgProfile
	for _, builtIn := range w.builtIns {
		cloned = append(cloned, qualityprofile.OrgProfile{
			UUID:             w.uuids.Create(),
			OrganizationUUID: organizationUUID,
			Name:             builtIn.Name,
			Language:         builtIn.Language,
			IsDefault:        builtIn.IsDefault,
		})
	}
	w.profiles = append(w.profiles, cloned...)
	return cloned, nil
}

// GateLinker

func (w *world) LinkBuiltIn(_ context.Context, _ postgres.Querier, organizationUUID string) (*qualitygate.QualityGate, error) {
	if err := w.fail("LinkBuiltIn"); err != nil {
		return nil, err
	}
	if w.gateUUID == "" {
		return nil, qualitygate.ErrBuiltInMissing
	}
	w.gates[organizationUUID] = w.gateUUID
	return &qualitygate.QualityGate{UUID: w.gateUUID, Name: qualitygate.BuiltInName, IsBuiltIn: true}, nil
}

// fakeTx restores the world when the transaction function fails
type fakeTx struct {
	w          *world
	calls      int
	rolledBack int
}

func (f *fakeTx) WithTx(_ context.Context, fn func(q postgres.Querier) error) error {
	f.calls++
	state := f.w.snapshot()
	if err := fn(nil); err != nil {
		f.w.restore(state)
		f.rolledBack++
		return err
	}
	return nil
}

type fakeSettings struct {
	values map[string]bool
	err    error
}

func (s *fakeSettings) GetBool(_ context.Context, key string, fallback bool) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return fallback, nil
}

// recordingValidation delegates to the real Validator, records the checked fields
// and fails the chosen one
type recordingValidation struct {
	*Validator
	failField string
	err       error
	checked   []string
}

func (r *recordingValidation) check(field string) error {
	r.checked = append(r.checked, field)
	if field == r.failField {
		return r.err
	}
	return nil
}

func (r *recordingValidation) CheckKey(key string) (string, error) {
	if err := r.check("key"); err != nil {
		return "", err
	}
	return r.Validator.CheckKey(key)
}

func (r *recordingValidation) CheckDescription(description *string) (*string, error) {
	if err := r.check("description"); err != nil {
		return nil, err
	}
	return r.Validator.CheckDescription(description)
}

func (r *recordingValidation) CheckURL(url *string) (*string, error) {
	if err := r.check("url"); err != nil {
		return nil, err
	}
	return r.Validator.CheckURL(url)
}

func (r *recordingValidation) CheckAvatar(avatar *string) (*string, error) {
	if err := r.check("avatar"); err != nil {
		return nil, err
	}
	return r.Validator.CheckAvatar(avatar)
}
