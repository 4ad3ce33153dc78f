package mongo

import (
	"log/slog"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// toDoc round-trips v through BSON so mock cursor responses carry exactly what the
// driver would have stored.
func toDoc(mt *mtest.T, v any) bson.D {
	mt.Helper()
	raw, err := bson.Marshal(v)
	if err != nil {
		mt.Fatalf("marshal %T: %v", v, err)
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		mt.Fatalf("unmarshal %T: %v", v, err)
	}
	return doc
}
