package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CountCreatedSince counts documents created in the collection at or after
// since. The collection does not have to be one vigil owns: quota usage
// also counts pipeline-owned collections such as "transcripts".
func (s *Store) CountCreatedSince(ctx context.Context, collection string, since time.Time) (int64, error) {
	col := s.db.Collection(collection)
	count, err := col.CountDocuments(ctx, bson.M{
		"created_at": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, fmt.Errorf("vigil/mongo: count created in %s: %w", collection, err)
	}
	return count, nil
}
