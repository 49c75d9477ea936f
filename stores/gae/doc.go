//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of the
// authview profile store. It is designed for deployment on Google Cloud
// Platform and supports multi-tenancy through Datastore namespaces.
//
// # Namespacing
//
// Pass a namespace when creating the store to isolate data between tenants:
//
//	profiles := gae.NewProfileStore(client, "tenant-123")
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	profiles := gae.NewProfileStore(client, "") // default namespace
package gae
