package store

import "database/sql"

// Stores bundles one implementation of every store together with the
// connection they share, so services can open transactions across them.
type Stores struct {
	DB              *sql.DB
	Tasks           TaskStore
	KnowledgePoints KnowledgePointStore
	History         LearningHistoryStore
	Strategies      TeachingStrategyStore
}

// WithTx returns a copy whose stores all run on tx.
func (s Stores) WithTx(tx *sql.Tx) Stores {
	return Stores{
		DB:              s.DB,
		Tasks:           s.Tasks.WithTx(tx),
		KnowledgePoints: s.KnowledgePoints.WithTx(tx),
		History:         s.History.WithTx(tx),
		Strategies:      s.Strategies.WithTx(tx),
	}
}
