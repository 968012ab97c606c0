// package repositories provides the SQLite persistence layer.
//
// [DocumentRepository] stores whole JSON documents by name in the documents
// table created by the embedded migrations in package shared. The tracker keeps
// its entire state in a single row; the name column allows more than one
// shelf per database file.
package repositories
