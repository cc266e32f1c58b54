/*
Package ddb implements datastore.Store over AWS DynamoDB using a single-table
layout: the partition key is the collection name and the sort key is a
canonical rendering of the key filter a document was written under.

Backend constraints, versus the mongo backend:
  - composite key values must be non-null (the sort key is derived from them)
  - reads must use the same key equality set the document was written under
  - numeric values read back as json.Number and timestamps as ISO strings

EnsureUniqueIndex is a no-op: (PK, SK) uniqueness is inherent to the layout,
and the sort key covers exactly the fields the core indexes.
*/
package ddb
