// Package listmap maps named remote lists onto dynamically typed records
// with CRUD operations, query building, and optimistic-concurrency support.
//
// A RecordType is created per list and bound to a Transport. Its operations
// return a placeholder Result immediately; the transport round-trip runs in
// the background and populates the same placeholder objects in place. Callers
// observe completion through the Result's Done channel or Await, and must not
// read placeholder fields before the result settles.
package listmap
