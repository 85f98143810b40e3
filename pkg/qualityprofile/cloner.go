package qualityprofile

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/orgforge/pkg/clock"
	"github.com/platinummonkey/orgforge/pkg/ids"
	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// Cloner copies the built-in profiles into a new organization
type Cloner struct {
	registry Registry
	store    *Store
	uuids    ids.UUIDFactory
	clock    clock.Clock
	log      *logrus.Logger
}

// NewCloner creates a new Cloner
func NewCloner(registry Registry, store *Store, uuids ids.UUIDFactory, clk clock.Clock, log *logrus.Logger) *Cloner {
	if log == nil {
		log = logrus.New()
	}
	return &Cloner{
		registry: registry,
		store:    store,
		uuids:    uuids,
		clock:    clk,
		log:      log,
	}
}

// CloneBuiltIns creates one organization profile per built-in profile and marks one
// profile per language as default: the first one flagged default, or the first one
// registered when none is flagged.
func (c *Cloner) CloneBuiltIns(ctx context.Context, q postgres.Querier, organizationUUID string) ([]OrgProfile, error) {
	builtIns := c.registry.BuiltIns()
	defaults := defaultPerLanguage(builtIns)
	now := c.clock.Now()

	profiles := make([]OrgProfile, 0, len(builtIns))
	for i, builtIn := range builtIns {
		rp, err := c.store.SelectBuiltInRulesProfile(ctx, q, builtIn.Language, builtIn.Name)
		if err != nil {
			return nil, fmt.Errorf("built-in profile %q (%s): %w", builtIn.Name, builtIn.Language, err)
		}

		profile := OrgProfile{
			UUID:             c.uuids.Create(),
			OrganizationUUID: organizationUUID,
			RulesProfileUUID: rp.UUID,
			Name:             rp.Name,
			Language:         rp.Language,
			IsDefault:        defaults[builtIn.Language] == i,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := c.store.InsertOrgProfile(ctx, q, &profile); err != nil {
			return nil, err
		}
		if profile.IsDefault {
			if err := c.store.InsertDefault(ctx, q, organizationUUID, profile.Language, profile.UUID, now); err != nil {
				return nil, err
			}
		}
		profiles = append(profiles, profile)
	}

	c.log.Debugf("Cloned %d built-in quality profiles into organization %s", len(profiles), organizationUUID)
	return profiles, nil
}

// defaultPerLanguage returns, per language, the index of the profile to mark default
func defaultPerLanguage(builtIns []BuiltInProfile) map[string]int {
	first := make(map[string]int)
	flagged := make(map[string]int)
	for i, p := range builtIns {
		if _, ok := first[p.Language]; !ok {
			first[p.Language] = i
		}
		if _, ok := flagged[p.Language]; !ok && p.IsDefault {
			flagged[p.Language] = i
		}
	}
	for language, i := range flagged {
		first[language] = i
	}
	return first
}

// SeedBuiltIns persists a built-in rules profile for every registered profile that
// has none yet. It returns the number of rules profiles created.
func (c *Cloner) SeedBuiltIns(ctx context.Context, q postgres.Querier) (int, error) {
	created := 0
	for _, builtIn := range c.registry.BuiltIns() {
		_, err := c.store.SelectBuiltInRulesProfile(ctx, q, builtIn.Language, builtIn.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrRulesProfileNotFound) {
			return created, err
		}

		rp := &RulesProfile{
			UUID:      c.uuids.Create(),
			Name:      builtIn.Name,
			Language:  builtIn.Language,
			IsBuiltIn: true,
		}
		if err := c.store.InsertRulesProfile(ctx, q, rp); err != nil {
			return created, err
		}
		c.log.Infof("Registered built-in quality profile %q (%s)", rp.Name, rp.Language)
		created++
	}
	return created, nil
}
