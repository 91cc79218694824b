// Package mirror implements the client's local sqlite copy of the server
// state. It satisfies the same store interfaces as the Postgres backend so
// the study service runs identically offline and online, and it carries
// the extra bookkeeping the sync reconciler needs: pending flags on
// locally recorded review events and a pull cursor.
package mirror
