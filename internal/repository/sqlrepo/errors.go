// internal/repository/sqlrepo/errors.go
package sqlrepo

import (
	"errors"

	"membership-service/internal/util"
	"membership-service/pkg/db"
)

// notFound turns a missing row into util.ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, db.ErrNoRows) {
		return util.ErrNotFound
	}
	return err
}
