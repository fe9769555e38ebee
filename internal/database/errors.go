package database

import (
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
)

// ConnectionError reports that no connection to the database could be
// acquired.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "database connection error: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ExecutionError reports that the engine rejected a statement. Code and
// SQLState are zero when the driver does not provide them.
type ExecutionError struct {
	Message   string
	Code      int
	SQLState  string
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func newExecutionError(stmt string, err error) *ExecutionError {
	ee := &ExecutionError{Message: err.Error(), Statement: stmt, Err: err}

	var myErr *mysql.MySQLError
	var liteErr *sqlite.Error
	switch {
	case errors.As(err, &myErr):
		ee.Code = int(myErr.Number)
		if myErr.SQLState != [5]byte{} {
			ee.SQLState = string(myErr.SQLState[:])
		}
	case errors.As(err, &liteErr):
		ee.Code = liteErr.Code()
	}
	return ee
}

// isConnectionFailure reports whether a statement error is really a lost or
// refused connection rather than a rejected statement.
func isConnectionFailure(err error) bool {
	return errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn)
}
