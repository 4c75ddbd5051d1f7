// Package migrations holds the ops database schema. Each file registers
// its migrations from init(); cmd/storefront imports the package so they
// are known at startup.
package migrations
