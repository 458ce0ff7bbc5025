// Package api implements the HTTP surface: job creation and polling,
// explicit apply, and the admin endpoints for orchestrated batch runs and
// tag-keyed cleanup. Handlers stay thin; all pipeline behavior lives in
// internal/service and internal/task.
package api
