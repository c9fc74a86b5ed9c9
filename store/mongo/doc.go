// Package mongo implements store.Store on the official MongoDB driver.
// This is the natural backend when Vigil shares the media pipeline's own
// document store: job collections, videos, and dead letters live next to
// the documents the pipeline already writes.
//
// The caller owns the *mongo.Client lifecycle -- the store never closes
// it. Pass a database handle through the constructor:
//
//	client, _ := mongod.Connect(options.Client().ApplyURI(uri))
//	store := mongo.New(client.Database("pipeline"))
//	store.Migrate(ctx)
package mongo
