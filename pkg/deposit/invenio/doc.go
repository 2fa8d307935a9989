// Package invenio deposits software metadata and files on an
// Invenio-based repository such as Zenodo.
//
// A deposit runs in three steps on a deposit context that holds the
// processed CodeMeta document under "codemeta":
//
//	d := invenio.New(cfg.Deposit.Invenio, invenio.Options{Token: token})
//	err := d.Prepare(ctx, dc)   // deposit.invenio.requiredSchema
//	_, err = d.Map(ctx, dc)     // deposit.invenio.depositionMetadata
//	rec, err := d.Deposit(ctx, dc, files)
//
// Map validates the mapped metadata against an embedded JSON schema of
// the deposition API and stores a snapshot in the "deposit" cache stage.
// Deposit creates a deposition, uploads the files through the bucket API
// and publishes the record.
package invenio
