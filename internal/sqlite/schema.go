// Package sqlite implements the local home-state store on an in-memory
// SQLite database. Nodes are rows keyed by path; attributes are stored as a
// JSON object. Every mutation publishes the new node value through the
// subscription router.
package sqlite

// Schema DDL for the nodes table.
const (
	createNodes = `CREATE TABLE nodes (
    path TEXT PRIMARY KEY,
    tag TEXT NOT NULL,
    attrs TEXT NOT NULL DEFAULT '{}',
    text TEXT NOT NULL DEFAULT ''
);`

	createNodesTagIndex = `CREATE INDEX idx_nodes_tag ON nodes(tag);`
)

// schemaStatements lists DDL in execution order.
var schemaStatements = []string{
	createNodes,
	createNodesTagIndex,
}
