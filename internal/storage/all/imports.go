// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init function of each concrete backend, which registers
// its factory with the storage package. Importing it makes the following
// storage kinds available at runtime:
//
//   - "sqlite"   (checkpost/internal/storage/sqlite)
//   - "postgres" (checkpost/internal/storage/postgres)
//   - "mysql"    (checkpost/internal/storage/mysql)
//   - "mssql"    (checkpost/internal/storage/mssql)
//
// A binary that needs only a subset can import the backends it wants
// directly instead of this package.
package all

import (
	_ "checkpost/internal/storage/mssql"
	_ "checkpost/internal/storage/mysql"
	_ "checkpost/internal/storage/postgres"
	_ "checkpost/internal/storage/sqlite"
)
