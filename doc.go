// Package linguastore is an embedded store for language learning content and
// study groups.
//
// Records live in a single persistent address space: a memory-mapped file
// split into independently growable regions. Region 0 holds the ID
// allocator shared by both collections, region 1 the content map and region
// 2 the study group map. Contents survive process restarts; Open recovers
// them before returning.
//
// # Quick Start
//
//	ctx := context.Background()
//	st, err := linguastore.Open(ctx, "learn.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	c, _ := st.AddContent(ctx, linguastore.ContentPayload{
//	    Text:             "hola",
//	    ImageURL:         "i.png",
//	    SoundURL:         "s.mp3",
//	    ScentDescription: "citrus",
//	})
//
//	hits, _ := st.SearchContentByText(ctx, "hola")
//
// # Records
//
// Every record encodes to at most MaxRecordSize bytes. Larger payloads are
// rejected with a *RecordTooLargeError before an id is consumed, and strings
// that are not valid UTF-8 with an *InvalidRecordError. Ids come
// from one allocator for both collections, so they are unique across the
// store and strictly increasing in creation order.
//
// # Errors
//
// Missing records yield a *NotFoundError (errors.Is(err, ErrNotFound)).
// ErrCorrupt, ErrLayoutMismatch and ErrExhausted report storage failures; the
// failed operation has no partial effect visible to later reads.
//
// # Backups
//
// Backup streams a compressed image of the address space to any
// blobstore.BlobStore (local directory, S3, MinIO). Restore writes such an
// image to a new store file.
package linguastore
