// Package service holds what the use-case packages share: the ServiceError
// type and the rule for which errors pass through untouched.
//
// Each use case lives in its own subpackage:
//
//   - lifecycle: tasks and their knowledge points
//   - session: recording attempts and teaching strategies
//   - review: due reviews and reports
//
// Services depend on the interfaces in internal/store and never on a concrete
// database. Operations that touch more than one store run inside
// store.RunInTransaction.
package service
