package orgs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/orgforge/pkg/clock"
	"github.com/platinummonkey/orgforge/pkg/ids"
	"github.com/platinummonkey/orgforge/pkg/observability"
	"github.com/platinummonkey/orgforge/pkg/qualitygate"
	"github.com/platinummonkey/orgforge/pkg/qualityprofile"
	"github.com/platinummonkey/orgforge/pkg/rbac"
	"github.com/platinummonkey/orgforge/pkg/search"
	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

var tracer = otel.Tracer("orgforge/orgs/updater")

// OrganizationStore persists organizations
type OrganizationStore interface {
	Insert(ctx context.Context, q postgres.Querier, org *Organization) error
	KeyExists(ctx context.Context, q postgres.Querier, key string) (bool, error)
	UpdateKey(ctx context.Context, q postgres.Querier, uuid, key string, updatedAt time.Time) error
	SetDefaultGroupUUID(ctx context.Context, q postgres.Querier, organizationUUID, groupUUID string) error
	SetDefaultTemplates(ctx context.Context, q postgres.Querier, organizationUUID string, templates DefaultTemplates) error
	InsertMember(ctx context.Context, q postgres.Querier, organizationUUID, userUUID string) error
}

// GroupProvisioner creates the groups of a new organization
type GroupProvisioner interface {
	CreateOwnersGroup(ctx context.Context, q postgres.Querier, organizationUUID, userUUID string) (*rbac.Group, error)
	CreateDefaultGroup(ctx context.Context, q postgres.Querier, organizationUUID string) (*rbac.Group, error)
	AddMember(ctx context.Context, q postgres.Querier, groupUUID, userUUID string) error
}

// TemplateProvisioner creates the default permission template of a new organization
type TemplateProvisioner interface {
	CreateDefaultTemplate(ctx context.Context, q postgres.Querier, organizationUUID, organizationName string, owners, defaultGroup *rbac.Group) (*rbac.PermissionTemplate, error)
}

// UserIndexer makes members searchable
type UserIndexer interface {
	IndexForOrganization(ctx context.Context, q postgres.Querier, organizationUUID string, doc search.UserDocument) error
}

// ProfileCloner copies the built-in quality profiles into an organization
type ProfileCloner interface {
	CloneBuiltIns(ctx context.Context, q postgres.Querier, organizationUUID string) ([]qualityprofile.OrgProfile, error)
}

// GateLinker attaches the built-in quality gate to an organization
type GateLinker interface {
	LinkBuiltIn(ctx context.Context, q postgres.Querier, organizationUUID string) (*qualitygate.QualityGate, error)
}

// Settings reads global settings
type Settings interface {
	GetBool(ctx context.Context, key string, fallback bool) (bool, error)
}

// Dependencies are the collaborators of an Updater. Metrics and Logger are optional.
// A nil Settings makes every organization public by default.
type Dependencies struct {
	Tx         postgres.TxRunner
	Store      OrganizationStore
	Groups     GroupProvisioner
	Templates  TemplateProvisioner
	Indexer    UserIndexer
	Profiles   ProfileCloner
	Gates      GateLinker
	Settings   Settings
	Validation Validation
	UUIDs      ids.UUIDFactory
	Clock      clock.Clock
	Metrics    *observability.Metrics
	Logger     *logrus.Logger
}

// Updater creates organizations and changes their keys
type Updater struct {
	tx         postgres.TxRunner
	store      OrganizationStore
	groups     GroupProvisioner
	templates  TemplateProvisioner
	indexer    UserIndexer
	profiles   ProfileCloner
	gates      GateLinker
	settings   Settings
	validation Validation
	uuids      ids.UUIDFactory
	clock      clock.Clock
	metrics    *observability.Metrics
	log        *logrus.Logger
}

// NewUpdater creates a new Updater
func NewUpdater(deps Dependencies) *Updater {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.Validation == nil {
		deps.Validation = NewValidator()
	}
	if deps.UUIDs == nil {
		deps.UUIDs = ids.NewRandomUUIDFactory()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}

	return &Updater{
		tx:         deps.Tx,
		store:      deps.Store,
		groups:     deps.Groups,
		templates:  deps.Templates,
		indexer:    deps.Indexer,
		profiles:   deps.Profiles,
		gates:      deps.Gates,
		settings:   deps.Settings,
		validation: deps.Validation,
		uuids:      deps.UUIDs,
		clock:      deps.Clock,
		metrics:    deps.Metrics,
		log:        deps.Logger,
	}
}

// Create validates newOrg, then creates the organization and everything it starts
// with: the Owners and Members groups, the default permission template, the
// membership of user, the built-in quality profiles and the built-in quality gate.
// onCreated, when not nil, is called with the organization before the transaction
// commits. Nothing is persisted when any step fails.
//
// Name is required and stored as given. Validation failures are returned as is.
// A key already in use yields a *KeyConflictError.
func (u *Updater) Create(ctx context.Context, user *User, newOrg *NewOrganization, onCreated func(*Organization)) (*Organization, error) {
	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()

	start := time.Now()
	org, err := u.create(ctx, user, newOrg, onCreated)
	u.metrics.RecordOrganizationCreated(outcome(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create organization")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("organization_uuid", org.UUID),
		attribute.String("organization_key", org.Key),
	)
	span.SetStatus(codes.Ok, "organization created")
	observability.WithTraceContext(ctx, u.log).
		WithField("organization_uuid", org.UUID).
		Infof("Created organization %s for user %s", org.Key, user.Login)
	return org, nil
}

func (u *Updater) create(ctx context.Context, user *User, newOrg *NewOrganization, onCreated func(*Organization)) (*Organization, error) {
	if newOrg == nil {
		return nil, invalidArgument("newOrganization", "newOrganization can't be null")
	}
	if user == nil {
		return nil, invalidArgument("user", "user can't be null")
	}
	if newOrg.Name == "" {
		return nil, invalidArgument("name", "name can't be null")
	}

	key, err := u.validation.CheckKey(newOrg.Key)
	if err != nil {
		return nil, err
	}
	description, err := u.validation.CheckDescription(newOrg.Description)
	if err != nil {
		return nil, err
	}
	url, err := u.validation.CheckURL(newOrg.URL)
	if err != nil {
		return nil, err
	}
	avatar, err := u.validation.CheckAvatar(newOrg.Avatar)
	if err != nil {
		return nil, err
	}

	var org *Organization
	err = u.tx.WithTx(ctx, func(q postgres.Querier) error {
		exists, err := u.store.KeyExists(ctx, q, key)
		if err != nil {
			return err
		}
		if exists {
			u.log.Warnf("Organization key %s is already used", key)
			return &KeyConflictError{Key: key}
		}

		public, err := u.defaultPublicVisibility(ctx)
		if err != nil {
			return err
		}

		now := u.clock.Now()
		org = &Organization{
			UUID:              u.uuids.Create(),
			Key:               key,
			Name:              newOrg.Name,
			Description:       description,
			URL:               url,
			Avatar:            avatar,
			Subscription:      SubscriptionFree,
			NewProjectPrivate: !public,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		return u.provision(ctx, q, org, user, onCreated)
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (u *Updater) provision(ctx context.Context, q postgres.Querier, org *Organization, user *User, onCreated func(*Organization)) error {
	if err := u.step("organization", func() error {
		return u.store.Insert(ctx, q, org)
	}); err != nil {
		return err
	}

	var owners, members *rbac.Group
	if err := u.step("groups", func() error {
		var err error
		if owners, err = u.groups.CreateOwnersGroup(ctx, q, org.UUID, user.UUID); err != nil {
			return fmt.Errorf("failed to create owners group: %w", err)
		}
		if members, err = u.groups.CreateDefaultGroup(ctx, q, org.UUID); err != nil {
			return fmt.Errorf("failed to create default group: %w", err)
		}
		if err := u.groups.AddMember(ctx, q, members.UUID, user.UUID); err != nil {
			return fmt.Errorf("failed to add user to default group: %w", err)
		}
		return u.store.SetDefaultGroupUUID(ctx, q, org.UUID, members.UUID)
	}); err != nil {
		return err
	}

	if err := u.step("permission_template", func() error {
		template, err := u.templates.CreateDefaultTemplate(ctx, q, org.UUID, org.Name, owners, members)
		if err != nil {
			return fmt.Errorf("failed to create default template: %w", err)
		}
		return u.store.SetDefaultTemplates(ctx, q, org.UUID, DefaultTemplates{ProjectUUID: template.UUID})
	}); err != nil {
		return err
	}

	if err := u.step("membership", func() error {
		if err := u.store.InsertMember(ctx, q, org.UUID, user.UUID); err != nil {
			return err
		}
		return u.indexer.IndexForOrganization(ctx, q, org.UUID, search.UserDocument{
			UserUUID: user.UUID,
			Login:    user.Login,
			Name:     user.Name,
			Email:    user.Email,
		})
	}); err != nil {
		return err
	}

	if err := u.step("quality_profiles", func() error {
		_, err := u.profiles.CloneBuiltIns(ctx, q, org.UUID)
		return err
	}); err != nil {
		return fmt.Errorf("failed to copy built-in quality profiles: %w", err)
	}

	if err := u.step("quality_gate", func() error {
		_, err := u.gates.LinkBuiltIn(ctx, q, org.UUID)
		return err
	}); err != nil {
		return fmt.Errorf("failed to link built-in quality gate: %w", err)
	}

	if onCreated != nil {
		onCreated(org)
	}
	return nil
}

// UpdateKey renames an organization. newKey goes through GenerateKeyFrom first;
// when the result is the current key nothing happens. A key used by another
// organization yields a *StateConflictError. On success org carries the new key.
func (u *Updater) UpdateKey(ctx context.Context, org *Organization, newKey string) error {
	ctx, span := tracer.Start(ctx, "UpdateKey", trace.WithAttributes(attribute.String("new_key", newKey)))
	defer span.End()

	if org == nil {
		err := invalidArgument("organization", "organization can't be null")
		u.metrics.RecordKeyUpdate(observability.StatusInvalid)
		return err
	}

	key := u.validation.GenerateKeyFrom(newKey)
	if key == org.Key {
		u.log.Debugf("Key of organization %s is already %s", org.UUID, key)
		u.metrics.RecordKeyUpdate(observability.StatusSuccess)
		return nil
	}

	err := u.updateKey(ctx, org, key)
	u.metrics.RecordKeyUpdate(outcome(err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update organization key")
		return err
	}

	span.SetStatus(codes.Ok, "organization key updated")
	return nil
}

func (u *Updater) updateKey(ctx context.Context, org *Organization, key string) error {
	if _, err := u.validation.CheckKey(key); err != nil {
		return err
	}

	now := u.clock.Now()
	err := u.tx.WithTx(ctx, func(q postgres.Querier) error {
		exists, err := u.store.KeyExists(ctx, q, key)
		if err != nil {
			return err
		}
		if exists {
			u.log.Warnf("Organization key %s is already used", key)
			return keyAlreadyExists(key)
		}
		return u.store.UpdateKey(ctx, q, org.UUID, key, now)
	})
	if err != nil {
		return err
	}

	u.log.Infof("Renamed organization %s from %s to %s", org.UUID, org.Key, key)
	org.Key = key
	org.UpdatedAt = now
	return nil
}

func (u *Updater) defaultPublicVisibility(ctx context.Context) (bool, error) {
	if u.settings == nil {
		return true, nil
	}
	public, err := u.settings.GetBool(ctx, DefaultPublicVisibilityKey, true)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", DefaultPublicVisibilityKey, err)
	}
	return public, nil
}

func (u *Updater) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	u.metrics.ObserveStep(name, start)
	if err == nil {
		u.log.Debugf("Provisioning step %s done", name)
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return observability.StatusSuccess
	case errors.Is(err, ErrInvalidArgument):
		return observability.StatusInvalid
	case errors.Is(err, ErrKeyConflict), errors.Is(err, ErrStateConflict):
		return observability.StatusConflict
	default:
		return observability.StatusError
	}
}
