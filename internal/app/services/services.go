// Package services holds the application use cases. Each service declares the
// narrow repository interfaces it consumes, so tests can swap in fakes.
//
// Services defined in this package:
//   - AuditService: appends and lists audit log records
//   - StudentService: student CRUD, filtering and grouping by course
//   - UserService: registration, login and profiles
//   - MessageService: private chat messages
package services
