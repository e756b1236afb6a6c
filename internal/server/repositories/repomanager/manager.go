package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/peerlink/internal/dbx"
	"github.com/dmitrijs2005/peerlink/internal/server/repositories/files"
	"github.com/dmitrijs2005/peerlink/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// use the same code on *sql.DB and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
}
