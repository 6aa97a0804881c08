// Package bucketgate is an HTTP gateway over a key-addressed object store.
//
// Clients PUT an object as the multipart field "file", GET it back, and
// DELETE it. Writes and deletes require the shared secret as a bearer token;
// reads are public and served through a read-through response cache. A
// cache miss is filled by a detached background write, so the response is
// never held up by the cache. Nothing invalidates cached entries, so a GET
// may return a replaced or deleted object until the entry expires.
//
// # Key Components
//
//   - ObjectStore: Put, Get and Delete by key
//   - Store: ObjectStore over a FileStorage plus a MetaDataRepo (PostgreSQL, SQLite)
//   - ResponseCache: Match and Store of whole GET responses
//   - TokenVerifier: constant-time bearer token check
//
// # Example Usage
//
//	store := bucketgate.NewStore(repo, storage, bucketgate.StoreConfig{})
//
//	err := store.Put(ctx, "images/logo.png", file, bucketgate.ObjectMeta{
//	    ContentType: "image/png",
//	    Filename:    "logo.png",
//	})
//
//	obj, err := store.Get(ctx, "images/logo.png")
//	defer obj.Body.Close()
//
// See the http package for the REST API, s3store for the S3 backend and
// respcache for the cache implementations.
package bucketgate
