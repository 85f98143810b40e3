package qualitygate

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/orgforge/pkg/clock"
	"github.com/platinummonkey/orgforge/pkg/ids"
	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// BuiltInName is the name given to the built-in quality gate when it is seeded
const BuiltInName = "Sonar way"

// Linker attaches the built-in quality gate to organizations
type Linker struct {
	store *Store
	uuids ids.UUIDFactory
	clock clock.Clock
	log   *logrus.Logger
}

// NewLinker creates a new Linker
func NewLinker(store *Store, uuids ids.UUIDFactory, clk clock.Clock, log *logrus.Logger) *Linker {
	if log == nil {
		log = logrus.New()
	}
	return &Linker{store: store, uuids: uuids, clock: clk, log: log}
}

// LinkBuiltIn associates the built-in quality gate with an organization and makes it
// the organization's default gate. The gate is shared, not copied.
func (l *Linker) LinkBuiltIn(ctx context.Context, q postgres.Querier, organizationUUID string) (*QualityGate, error) {
	gate, err := l.store.SelectBuiltIn(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := l.store.Associate(ctx, q, l.uuids.Create(), organizationUUID, gate.UUID); err != nil {
		return nil, err
	}
	if err := l.store.SetDefault(ctx, q, organizationUUID, gate.UUID); err != nil {
		return nil, err
	}

	l.log.Debugf("Linked quality gate %q to organization %s", gate.Name, organizationUUID)
	return gate, nil
}

// SeedBuiltIn creates the built-in quality gate unless one exists. It reports whether
// a gate was created.
func (l *Linker) SeedBuiltIn(ctx context.Context, q postgres.Querier) (bool, error) {
	_, err := l.store.SelectBuiltIn(ctx, q)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrBuiltInMissing) {
		return false, err
	}

	now := l.clock.Now()
	gate := &QualityGate{
		UUID:      l.uuids.Create(),
		Name:      BuiltInName,
		IsBuiltIn: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.Insert(ctx, q, gate); err != nil {
		return false, err
	}

	l.log.Infof("Registered built-in quality gate %q", gate.Name)
	return true, nil
}
