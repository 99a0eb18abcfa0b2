// Package models holds the gorm table mappings of the installments schema.
// Domain types carry no ORM tags; each model converts to and from its domain
// type with ToDomain and FromDomain.
//
// Tables: customers, contracts, installments, notifications, settings.
// The column layout matches migrations/000001_init_schema.up.sql, which is
// what production runs; AutoMigrate over these models is for dev and tests.
package models
