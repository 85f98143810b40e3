// Package settings resolves server-wide settings stored in the properties table.
//
//	provider := settings.NewProvider(settings.NewPostgresSource(db), settings.Config{
//		CacheSize: 128,
//		CacheTTL:  time.Minute,
//		Defaults:  map[string]string{"organizations.default_public_visibility": "true"},
//	}, metrics, log)
//
//	public, err := provider.GetBool(ctx, "organizations.default_public_visibility", true)
package settings
