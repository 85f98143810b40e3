// Package cli implements the orgadmin commands.
//
//	orgadmin migrate
//	orgadmin seed
//	orgadmin create --login ada --name "Acme Corp" [--key acme] [--description ...] [--url ...] [--avatar ...]
//	orgadmin rename --key acme --new-key "Acme Labs"
//	orgadmin members --key acme --q 'ada OR grace'
//	orgadmin check
//
// Every command reads its configuration from ORGFORGE_* environment variables,
// see package config.
package cli
