// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: a blank import runs the init
// functions of each concrete backend, which register their factories with
// the storage package. Importing it makes the following archive kinds
// available at runtime:
//
//   - "sqlite"   (txnpipe/internal/storage/sqlite)
//   - "postgres" (txnpipe/internal/storage/postgres)
//   - "mysql"    (txnpipe/internal/storage/mysql)
//   - "mssql"    (txnpipe/internal/storage/mssql)
//
// A binary that only needs a subset can import the required backends
// directly instead of this package.
package all

import (
	_ "txnpipe/internal/storage/mssql"
	_ "txnpipe/internal/storage/mysql"
	_ "txnpipe/internal/storage/postgres"
	_ "txnpipe/internal/storage/sqlite"
)
