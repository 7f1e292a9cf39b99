package output

import (
	"context"
	"fmt"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSink 输出到MongoDB，每张表对应一个同名集合
type MongoSink struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo 连接MongoDB
// 参数：ctx-上下文，uri-连接串，db-数据库名
func OpenMongo(ctx context.Context, uri string, db string) (*MongoSink, error) {
	if uri == "" || db == "" {
		return nil, fmt.Errorf("mongo output requires both output.dsn and output.db")
	}
	client := mongoutil.NewClient(uri)
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Infof("mongo output opened: db=%s", db)
	return &MongoSink{client: client, db: client.Database(db)}, nil
}

func (s *MongoSink) insert(ctx context.Context, coll string, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := s.db.Collection(coll).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert %s: %w", coll, err)
	}
	return nil
}

func (s *MongoSink) WritePeople(ctx context.Context, people []PersonRow, dwellings []DwellingRow) error {
	if err := s.insert(ctx, TablePeople, lo.Map(people, func(p PersonRow, _ int) any {
		return bson.D{{Key: "index", Value: p.ID}, {Key: "dwellingId", Value: p.DwellingID}}
	})); err != nil {
		return err
	}
	return s.insert(ctx, TableDwellings, lo.Map(dwellings, func(d DwellingRow, _ int) any {
		return bson.D{{Key: "index", Value: d.ID}, {Key: "region", Value: d.Region}}
	}))
}

func (s *MongoSink) WriteActivity(ctx context.Context, records []Record) error {
	return s.insert(ctx, TableActivity, lo.Map(records, func(r Record, _ int) any {
		return bson.D{{Key: "timestamp", Value: r.Timestamp}, {Key: "id", Value: r.PersonID}, {Key: "value", Value: string(r.Activity)}}
	}))
}

func (s *MongoSink) WriteAggregated(ctx context.Context, records []AggregateRecord) error {
	return s.insert(ctx, TableActivityCounts, lo.Map(records, func(r AggregateRecord, _ int) any {
		counts := lo.MapKeys(r.Counts, func(_ int, k activity.State) string { return string(k) })
		return bson.D{
			{Key: "timestamp", Value: r.Timestamp},
			{Key: "id", Value: r.Region},
			{Key: "value", Value: r.Value()},
			{Key: "counts", Value: counts},
		}
	}))
}

func (s *MongoSink) Close() error {
	return s.client.Disconnect(context.Background())
}
