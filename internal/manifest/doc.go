// Package manifest provides the Manifest handle, an in-memory view of one
// remote manifest resource of the ADE Notify API.
//
// # Lifecycle
//
// A handle starts without an id, carrying only shape parameters. It becomes
// bound to a remote manifest by Create (a new OPEN manifest) or Fetch (an
// existing one). Entries are added while the manifest is OPEN, and Notify
// moves it to NOTIFIED, which is terminal:
//
//	m := manifest.New(client, key, params, logger)
//	if err := m.Create(ctx); err != nil {
//	    return err
//	}
//	if err := m.AddEntry(ctx, domain.NewEntry("s3://bucket/landing/x.csv", nil)); err != nil {
//	    return err
//	}
//	if err := m.Notify(ctx); err != nil {
//	    return err
//	}
//
// A handle may be created again after a conflict. It then points to the new
// manifest and forgets the old one.
//
// # Error Handling
//
// Fetch, FetchEntries and Notify on a handle without id return
// domain.ErrManifestIDMissing. Remote failures are returned as produced by
// the domain.StateClient.
package manifest
