// Package repository holds the MySQL and Redis data access for the back
// office.  Repositories return the sentinel values below so that the
// service layer can translate storage outcomes into domain errors without
// inspecting driver errors itself.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateBookingNumber is returned when an insert collides on the
// unique booking_number key.  It is the signal for the allocator retry loop
// and must stay distinct from every other write failure.
var ErrDuplicateBookingNumber = errors.New("duplicate booking number")

// ErrInUse is returned when a pass type cannot be deleted because bookings
// still reference it.
var ErrInUse = errors.New("in use")

// ErrEmailExists is returned when a staff email is already registered.
var ErrEmailExists = errors.New("email already exists")

const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a MySQL unique violation and, when
// the server names it, which key was hit.
func duplicateKey(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if me.Number != mysqlDuplicateEntry {
			return "", false
		}
		return keyName(me.Message), true
	}
	// Some proxies flatten driver errors into text.
	msg := err.Error()
	if strings.Contains(msg, "1062") || strings.Contains(msg, "Duplicate entry") {
		return keyName(msg), true
	}
	return "", false
}

// keyName extracts the key from "Duplicate entry 'x' for key 'tbl.key'".
func keyName(msg string) string {
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return ""
	}
	k := strings.TrimSuffix(msg[i+len("for key '"):], "'")
	if dot := strings.LastIndex(k, "."); dot >= 0 {
		k = k[dot+1:]
	}
	return k
}
