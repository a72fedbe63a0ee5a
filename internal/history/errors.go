package history

import (
	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.NewError(errors.CategoryHistory, "could not open history database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.NewError(errors.CategoryHistory, "failed to initialize history schema").Build()

	// ErrRecordFailed indicates inserting a pair result failed.
	ErrRecordFailed = errors.NewError(errors.CategoryHistory, "failed to record deployment").Build()

	// ErrQueryFailed indicates querying deployments failed.
	ErrQueryFailed = errors.NewError(errors.CategoryHistory, "failed to query deployments").Build()
)
