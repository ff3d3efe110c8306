// Package db persists labeled samples and run summaries in Scylla.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

type DB struct {
	sess *gocql.Session
}

func New(sess *gocql.Session) *DB {
	return &DB{sess: sess}
}

// Connect opens a session on keyspace.
func Connect(nodes []string, keyspace string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(nodes...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 2 * time.Second
	cluster.DisableInitialHostLookup = true
	cluster.DisableShardAwarePort = true
	sess, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("unable to connect: %w", err)
	}
	return sess, nil
}

func (db *DB) Close() {
	if db.sess != nil {
		db.sess.Close()
	}
}

var schema = []string{`
CREATE TABLE IF NOT EXISTS samples (
	run_id uuid,
	bucket_date date,
	timestamp timestamp,
	seq int,
	occupancy int,
	temp double,
	hum double,
	lux double,
	noise double,
	energy_kwh decimal,
	status text,
	pmv double,
	ppd double,
	PRIMARY KEY ((run_id, bucket_date), timestamp, seq)
) WITH CLUSTERING ORDER BY (timestamp ASC, seq ASC)
`, `
CREATE TABLE IF NOT EXISTS runs (
	run_id uuid PRIMARY KEY,
	created_at timestamp,
	policy text,
	summary text
)
`}

// EnsureSchema creates the tables when they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if err := db.sess.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
