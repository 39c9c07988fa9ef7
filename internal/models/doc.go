// package models defines the data model shared by the vidx client packages.
//
// Jobs mirror the backend's JobStatus payload; users and preferences mirror
// the auth endpoints. All mutation of job state happens in internal/jobs,
// never in the view layer.
package models
