// Package cursos is a session-gated course catalog served over HTTP.
//
// The catalog lists, creates, edits, removes and exports (XML, JSON) course records.
// Every request goes through a single front controller: the session gate opens the
// session and turns anonymous clients away, the route table resolves the path to a
// controller factory, and the controller returns a [web.Response] value that is
// written after the session is committed.
//
// # Architecture boundaries
//
// cursos is the assembly surface. It exposes [App], [Builder], [Config], the default
// route set and the metrics types. Controllers live in web, the gate in middleware,
// sessions in session, and persistence in course and account.
//
// # What this package must NOT do
//
//   - Hold request state outside the explicit session object.
//   - Resolve controllers by anything other than an exact route table lookup.
//   - Write controller output before the session is committed.
package cursos
