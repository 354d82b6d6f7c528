// Package stack provides pure functions that describe the development stack
// for a validated BootstrapConfig.
//
// # Functions
//
//   - Environment: the variables handed to the orchestration backend
//   - ComposeFiles: which compose files make up the project
//   - ReadinessProbe: the per-engine command proving the database is up
//   - InstallCommand: the application's database install routine
//
// The imperative shell (internal/shell/...) executes what these functions
// describe.
package stack
