//go:build !wasm
// +build !wasm

// Package gorm provides a GORM-based implementation of the authview profile
// store. It supports any database that GORM supports (PostgreSQL, MySQL,
// SQLite, etc.) and is suitable for deployments that keep profiles in a
// relational database.
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	gormstore.AutoMigrate(db)
//	profiles := gormstore.NewProfileStore(db)
package gorm
